package store

import (
	"path/filepath"
	"sync"

	"github.com/lolvely/blibot/internal/domain"
)

const accountsFile = "accounts.json"

// Accounts is the registered-player file. Plain keyed CRUD, one JSON
// object per process lifetime, guarded by a single mutex.
type Accounts struct {
	mu   sync.Mutex
	path string
}

func NewAccounts(dir string) *Accounts {
	return &Accounts{path: filepath.Join(dir, accountsFile)}
}

func (a *Accounts) LoadAll() (map[domain.UserID]*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked()
}

func (a *Accounts) Get(uid domain.UserID) (*domain.Account, error) {
	all, err := a.LoadAll()
	if err != nil {
		return nil, err
	}
	return all[uid], nil
}

// Put inserts or replaces one record read-modify-write under the lock.
func (a *Accounts) Put(uid domain.UserID, acc *domain.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	all, err := a.loadLocked()
	if err != nil {
		return err
	}
	all[uid] = acc
	return writeJSON(a.path, all)
}

func (a *Accounts) Delete(uid domain.UserID) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	all, err := a.loadLocked()
	if err != nil {
		return false, err
	}
	if _, ok := all[uid]; !ok {
		return false, nil
	}
	delete(all, uid)
	return true, writeJSON(a.path, all)
}

func (a *Accounts) loadLocked() (map[domain.UserID]*domain.Account, error) {
	all := map[domain.UserID]*domain.Account{}
	if err := readJSON(a.path, &all); err != nil {
		return nil, err
	}
	return all, nil
}
