package store

import (
	"path/filepath"
	"sync"
	"time"
)

const linksFile = "deeplol_links.json"

// MatchLink pairs an internal match id with an external spectate room
// code.
type MatchLink struct {
	RoomCode  string `json:"roomCode"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Links persists matchID -> room-code associations.
type Links struct {
	mu   sync.Mutex
	path string
}

func NewLinks(dir string) *Links {
	return &Links{path: filepath.Join(dir, linksFile)}
}

func (l *Links) Put(matchID, roomCode string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := map[string]MatchLink{}
	if err := readJSON(l.path, &all); err != nil {
		return err
	}
	all[matchID] = MatchLink{RoomCode: roomCode, UpdatedAt: time.Now().UnixMilli()}
	return writeJSON(l.path, all)
}

func (l *Links) Get(matchID string) (MatchLink, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := map[string]MatchLink{}
	if err := readJSON(l.path, &all); err != nil {
		return MatchLink{}, false, err
	}
	link, ok := all[matchID]
	return link, ok, nil
}
