package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/domain"
)

// AnnounceRule posts a recruitment announcement every day at a fixed
// local time.
type AnnounceRule struct {
	At        string // "15:04"
	Channel   string
	Mode      string
	StartTime string
}

// Scheduler is a thin caller of CreateSession. It owns no session
// state.
type Scheduler struct {
	Orch  *Orchestrator
	Rules []AnnounceRule
}

// Run blocks until ctx is canceled, firing matching rules once per
// minute tick.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.Rules) == 0 {
		return
	}
	log.Info().Str("module", "app.scheduler").Int("rules", len(s.Rules)).Msg("announce scheduler running")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.fire(ctx, now)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, now time.Time) {
	hhmm := now.Format("15:04")
	for _, rule := range s.Rules {
		if rule.At != hhmm {
			continue
		}
		mode := domain.ModeStandard
		if rule.Mode == string(domain.ModeAram) {
			mode = domain.ModeAram
		}
		if _, err := s.Orch.CreateSession(ctx, domain.ChannelID(rule.Channel), mode, rule.StartTime); err != nil {
			log.Error().Err(err).Str("module", "app.scheduler").Str("channel", rule.Channel).Msg("scheduled announce failed")
			continue
		}
		log.Info().Str("module", "app.scheduler").Str("channel", rule.Channel).Str("at", rule.At).Msg("scheduled recruitment posted")
	}
}
