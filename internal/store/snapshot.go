// Package store owns every durable file the bot writes. It knows wire
// shapes and atomic-write mechanics; it knows nothing about roster
// rules.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/domain"
)

const snapshotFile = "rooms.json"

// Snapshot persists the whole session registry as one JSON document:
// an array of [sessionId, record] pairs. Set-valued fields travel as
// {"__set":true,"v":[...]} so load can rebuild true set semantics.
type Snapshot struct {
	dir  string
	path string
}

func NewSnapshot(dir string) *Snapshot {
	return &Snapshot{dir: dir, path: filepath.Join(dir, snapshotFile)}
}

func (s *Snapshot) Path() string { return s.path }

// Save writes the registry atomically: temp file first, then rename
// over the canonical path, so a crash mid-write never clobbers the
// last good snapshot.
func (s *Snapshot) Save(sessions map[domain.MessageID]*domain.Session) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	pairs := make([][2]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		key, err := json.Marshal(id)
		if err != nil {
			return fmt.Errorf("marshal session id: %w", err)
		}
		rec, err := json.Marshal(toWire(sessions[domain.MessageID(id)]))
		if err != nil {
			return fmt.Errorf("marshal session %s: %w", id, err)
		}
		pairs = append(pairs, [2]json.RawMessage{key, rec})
	}

	data, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load reads the last snapshot. It never fails: a missing, empty or
// malformed file degrades to an empty registry with a warning, and
// per-record damage skips only that record.
func (s *Snapshot) Load() map[domain.MessageID]*domain.Session {
	out := map[domain.MessageID]*domain.Session{}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("module", "store.snapshot").Str("path", s.path).Msg("no snapshot file, starting fresh")
		return out
	}
	if err != nil {
		log.Error().Err(err).Str("module", "store.snapshot").Msg("read snapshot")
		return out
	}
	if strings.TrimSpace(string(raw)) == "" {
		log.Warn().Str("module", "store.snapshot").Str("path", s.path).Msg("snapshot file is empty, starting fresh")
		return out
	}

	var pairs []json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		log.Error().Err(err).Str("module", "store.snapshot").Msg("snapshot is not an array, starting fresh")
		return out
	}

	for _, p := range pairs {
		var tuple []json.RawMessage
		if err := json.Unmarshal(p, &tuple); err != nil || len(tuple) != 2 {
			log.Warn().Str("module", "store.snapshot").Msg("skipping malformed snapshot pair")
			continue
		}
		var id flexID
		if err := json.Unmarshal(tuple[0], &id); err != nil || id == "" {
			log.Warn().Str("module", "store.snapshot").Msg("skipping pair with unusable id")
			continue
		}
		var w wireSession
		if err := json.Unmarshal(tuple[1], &w); err != nil {
			log.Warn().Err(err).Str("module", "store.snapshot").Str("id", string(id)).Msg("skipping malformed session record")
			continue
		}
		out[domain.MessageID(id)] = fromWire(domain.MessageID(id), &w)
	}

	log.Info().Str("module", "store.snapshot").Int("sessions", len(out)).Str("path", s.path).Msg("snapshot restored")
	return out
}

// flexID accepts both string and legacy numeric identities and always
// yields the canonical string form.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	return fmt.Errorf("id %s is neither string nor number", string(b))
}

// wireSet is the tagged-set encoding. On the way in it also tolerates
// a bare array and null.
type wireSet struct {
	V []flexID
}

func (w wireSet) MarshalJSON() ([]byte, error) {
	v := w.V
	if v == nil {
		v = []flexID{}
	}
	return json.Marshal(struct {
		Set bool     `json:"__set"`
		V   []flexID `json:"v"`
	}{Set: true, V: v})
}

func (w *wireSet) UnmarshalJSON(b []byte) error {
	var tagged struct {
		Set bool     `json:"__set"`
		V   []flexID `json:"v"`
	}
	if err := json.Unmarshal(b, &tagged); err == nil && tagged.Set {
		w.V = tagged.V
		return nil
	}
	var plain []flexID
	if err := json.Unmarshal(b, &plain); err == nil {
		w.V = plain
		return nil
	}
	w.V = nil
	return nil
}

type wireLanes struct {
	Main *string  `json:"main"`
	Sub  []string `json:"sub"`
}

type wireSession struct {
	Members   []flexID             `json:"members"`
	Lanes     map[string]wireLanes `json:"lanes"`
	Tiers     map[string]string    `json:"tiers"`
	TierBand  map[string]string    `json:"tierBand"`
	Last      wireSet              `json:"last"`
	Wait      wireSet              `json:"wait"`
	JoinedAt  map[string]float64   `json:"joinedAt"`
	StartTime *string              `json:"startTime"`
	IsAram    bool                 `json:"isAram"`
	ChannelID string               `json:"channelId"`
}

func toWire(s *domain.Session) *wireSession {
	w := &wireSession{
		Members:   make([]flexID, 0, len(s.Members)),
		Lanes:     map[string]wireLanes{},
		Tiers:     map[string]string{},
		TierBand:  map[string]string{},
		Last:      wireSet{V: []flexID{}},
		Wait:      wireSet{V: make([]flexID, 0, len(s.Wait))},
		JoinedAt:  map[string]float64{},
		IsAram:    s.Mode == domain.ModeAram,
		ChannelID: string(s.ChannelID),
	}
	if s.StartTime != "" {
		t := s.StartTime
		w.StartTime = &t
	}
	for _, m := range s.Members {
		w.Members = append(w.Members, flexID(m))
	}
	for _, m := range s.Wait {
		w.Wait.V = append(w.Wait.V, flexID(m))
	}
	last := make([]string, 0, len(s.Last))
	for uid := range s.Last {
		last = append(last, string(uid))
	}
	sort.Strings(last)
	for _, uid := range last {
		w.Last.V = append(w.Last.V, flexID(uid))
	}
	for uid, a := range s.Attrs {
		key := string(uid)
		if a.Main != "" || len(a.Sub) > 0 {
			wl := wireLanes{Sub: []string{}}
			if a.Main != "" {
				main := string(a.Main)
				wl.Main = &main
			}
			for _, l := range a.Sub {
				wl.Sub = append(wl.Sub, string(l))
			}
			w.Lanes[key] = wl
		}
		if a.Tier != "" {
			w.Tiers[key] = string(a.Tier)
		}
		if a.Band != "" {
			w.TierBand[key] = string(a.Band)
		}
		if !a.JoinedAt.IsZero() {
			w.JoinedAt[key] = float64(a.JoinedAt.UnixMilli())
		}
	}
	return w
}

func fromWire(id domain.MessageID, w *wireSession) *domain.Session {
	s := domain.NewSession(id, domain.ChannelID(w.ChannelID), domain.ModeStandard, "")
	if w.IsAram {
		s.Mode = domain.ModeAram
	}
	if w.StartTime != nil {
		s.StartTime = *w.StartTime
	}
	for _, m := range w.Members {
		s.Members = append(s.Members, domain.UserID(m))
	}
	for _, m := range w.Wait.V {
		s.Wait = append(s.Wait, domain.UserID(m))
	}
	for _, m := range w.Last.V {
		s.Last[domain.UserID(m)] = struct{}{}
	}
	for uid, wl := range w.Lanes {
		a := s.Attr(domain.UserID(uid))
		if wl.Main != nil {
			a.Main = domain.Lane(*wl.Main)
		}
		for _, l := range wl.Sub {
			a.Sub = append(a.Sub, domain.Lane(l))
		}
	}
	for uid, t := range w.Tiers {
		s.Attr(domain.UserID(uid)).Tier = domain.Tier(t)
	}
	for uid, b := range w.TierBand {
		s.Attr(domain.UserID(uid)).Band = domain.TierBand(b)
	}
	for uid, ms := range w.JoinedAt {
		if ms > 0 {
			s.Attr(domain.UserID(uid)).JoinedAt = time.UnixMilli(int64(ms))
		}
	}
	return s
}
