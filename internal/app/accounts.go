package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/store"
)

var (
	// ErrAccountNotFound means the verification lookup rejected the
	// riot id. Verifier implementations wrap it.
	ErrAccountNotFound   = errors.New("riot account not found")
	ErrAlreadyRegistered = errors.New("account already registered")
	ErrNoAccount         = errors.New("no registered account")
	ErrMainMismatch      = errors.New("main account name does not match")
	ErrAltExists         = errors.New("alt already linked")
)

// VerifiedAccount is the result of a successful third-party lookup.
type VerifiedAccount struct {
	GameName string
	TagLine  string
	PUUID    string
}

// AccountVerifier is the external account-verification lookup.
type AccountVerifier interface {
	Verify(ctx context.Context, gameName, tagLine string) (VerifiedAccount, error)
}

// AccountService is plain keyed CRUD over the accounts file, with a
// verification step on registration. No concurrency subtleties beyond
// the store's own file lock.
type AccountService struct {
	Store    *store.Accounts
	Verifier AccountVerifier
}

// Register verifies the riot id and creates the main account record.
// Returns ErrAlreadyRegistered when the user already has one.
func (a *AccountService) Register(ctx context.Context, uid domain.UserID, userTag, riotID string) (*domain.Account, error) {
	game, tag, err := domain.SplitRiotID(riotID)
	if err != nil {
		return nil, err
	}

	verified, err := a.Verifier.Verify(ctx, game, tag)
	if err != nil {
		return nil, fmt.Errorf("verify %s#%s: %w", game, tag, err)
	}

	existing, err := a.Store.Get(uid)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrAlreadyRegistered
	}

	officialName := verified.GameName + "#" + verified.TagLine
	acc := domain.NewAccount(officialName, verified.PUUID, userTag)
	if err := a.Store.Put(uid, acc); err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.accounts").Str("user", string(uid)).Str("riot", officialName).Msg("account registered")
	return acc, nil
}

// LinkAlt attaches an alt name to the caller's main account after
// checking the claimed main name matches the registered one.
func (a *AccountService) LinkAlt(ctx context.Context, uid domain.UserID, altName, mainName string) error {
	acc, err := a.Store.Get(uid)
	if err != nil {
		return err
	}
	if acc == nil {
		return ErrNoAccount
	}
	if acc.RiotName != mainName {
		return fmt.Errorf("%w: registered main is %s", ErrMainMismatch, acc.RiotName)
	}
	if acc.HasAlt(altName) {
		return ErrAltExists
	}
	acc.Alts = append(acc.Alts, altName)
	if err := a.Store.Put(uid, acc); err != nil {
		return err
	}
	log.Info().Str("module", "app.accounts").Str("user", string(uid)).Str("alt", altName).Msg("alt linked")
	return nil
}

// Delete removes the caller's record. Returns ErrNoAccount if there
// was nothing to delete.
func (a *AccountService) Delete(ctx context.Context, uid domain.UserID) error {
	deleted, err := a.Store.Delete(uid)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNoAccount
	}
	log.Info().Str("module", "app.accounts").Str("user", string(uid)).Msg("account deleted")
	return nil
}
