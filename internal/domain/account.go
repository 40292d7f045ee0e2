package domain

import (
	"errors"
	"strings"
)

const (
	MaxRiotNameLen = 40
	StartingMMR    = 1000
)

var (
	ErrRiotNameEmpty   = errors.New("riot name empty")
	ErrRiotNameTooLong = errors.New("riot name too long")
	ErrRiotNameFormat  = errors.New("riot name must be name#tag")
)

// Account links a chat-platform user to a verified game account.
type Account struct {
	RiotName    string   `json:"riotName"`
	PUUID       string   `json:"puuid"`
	MMR         int      `json:"mmr"`
	Wins        int      `json:"wins"`
	Losses      int      `json:"losses"`
	Streak      int      `json:"streak"`
	GamesPlayed int      `json:"gamesPlayed"`
	UserTag     string   `json:"userTag"`
	Type        string   `json:"type"`
	Alts        []string `json:"alts,omitempty"`
}

// NewAccount is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewAccount(riotName, puuid, userTag string) *Account {
	return &Account{
		RiotName: riotName,
		PUUID:    puuid,
		MMR:      StartingMMR,
		UserTag:  userTag,
		Type:     "main",
	}
}

// SplitRiotID validates and splits "name#tag" input.
func SplitRiotID(raw string) (game, tag string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrRiotNameEmpty
	}
	if len(raw) > MaxRiotNameLen {
		return "", "", ErrRiotNameTooLong
	}
	game, tag, ok := strings.Cut(raw, "#")
	if !ok || game == "" || tag == "" {
		return "", "", ErrRiotNameFormat
	}
	return game, tag, nil
}

// HasAlt reports whether name is already linked as an alt.
func (a *Account) HasAlt(name string) bool {
	for _, alt := range a.Alts {
		if alt == name {
			return true
		}
	}
	return false
}
