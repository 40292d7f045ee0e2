package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/domain"
)

// Backups writes timestamped copies of a single session after roster
// mutations. Pure observer: failures are logged and swallowed, the
// mutation has already committed.
type Backups struct {
	dir string
}

func NewBackups(dir string) *Backups {
	return &Backups{dir: dir}
}

func (b *Backups) Write(s *domain.Session) {
	name := fmt.Sprintf("rooms_%d.json", time.Now().UnixMilli())
	path := filepath.Join(b.dir, name)
	if err := writeJSON(path, toWire(s)); err != nil {
		log.Error().Err(err).Str("module", "store.backup").Str("session", string(s.ID)).Msg("backup write failed")
		return
	}
	log.Debug().Str("module", "store.backup").Str("path", path).Msg("session backed up")
}
