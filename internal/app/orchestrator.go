package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/render"
	"github.com/lolvely/blibot/internal/store"
)

var (
	ErrNotAuthorized  = errors.New("not authorized")
	ErrUnknownSession = errors.New("unknown session")
)

// Orchestrator turns incoming actor events into roster mutations and
// runs the external side effects strictly after the in-memory mutation
// committed: schedule save, write backup, re-render the announcement.
type Orchestrator struct {
	Registry *Registry
	Roster   *core.Roster
	Chat     core.ChatClient
	Backups  *store.Backups
	Recovery *Recovery
	ModRoles []string

	// Now is swappable for tests.
	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) isModerator(actor core.Actor) bool {
	for _, role := range o.ModRoles {
		if actor.HasRole(role) {
			return true
		}
	}
	return false
}

// StartRecruitment is the role-gated command path; the scheduler calls
// CreateSession directly.
func (o *Orchestrator) StartRecruitment(ctx context.Context, actor core.Actor, channel domain.ChannelID, mode domain.Mode, startTime string) (*domain.Session, error) {
	if !o.isModerator(actor) {
		return nil, ErrNotAuthorized
	}
	return o.CreateSession(ctx, channel, mode, startTime)
}

// CreateSession posts a fresh announcement and registers the session
// under the returned message identity.
func (o *Orchestrator) CreateSession(ctx context.Context, channel domain.ChannelID, mode domain.Mode, startTime string) (*domain.Session, error) {
	draft := domain.NewSession("", channel, mode, startTime)
	msg, err := o.Chat.SendMessage(ctx, channel, render.Session(draft))
	if err != nil {
		return nil, fmt.Errorf("post announcement: %w", err)
	}
	s := o.Registry.Create(msg.ID, channel, mode, startTime)
	log.Info().Str("module", "app.orchestrator").Str("session", string(msg.ID)).Str("channel", string(channel)).Msg("recruitment started")
	return s, nil
}

func (o *Orchestrator) Join(ctx context.Context, id domain.MessageID, uid domain.UserID) (core.Status, error) {
	var st core.Status
	ok := o.Registry.WithSession(id, func(s *domain.Session) {
		st = o.Roster.Join(s, uid, o.now())
	})
	if !ok {
		return core.StatusNone, ErrUnknownSession
	}
	if st == core.StatusJoined || st == core.StatusWaitlisted {
		o.afterMutation(ctx, id)
	}
	return st, nil
}

func (o *Orchestrator) Leave(ctx context.Context, id domain.MessageID, uid domain.UserID) (core.Status, error) {
	var st core.Status
	ok := o.Registry.WithSession(id, func(s *domain.Session) {
		st = o.Roster.Leave(s, uid)
	})
	if !ok {
		return core.StatusNone, ErrUnknownSession
	}
	if st == core.StatusRemoved {
		o.afterMutation(ctx, id)
	}
	return st, nil
}

func (o *Orchestrator) LastCall(ctx context.Context, id domain.MessageID, uid domain.UserID) (core.Status, error) {
	var st core.Status
	ok := o.Registry.WithSession(id, func(s *domain.Session) {
		st = o.Roster.DeclareLastCall(s, uid)
	})
	if !ok {
		return core.StatusNone, ErrUnknownSession
	}
	if st == core.StatusLastCalled {
		o.afterMutation(ctx, id)
	}
	return st, nil
}

// ForceRemove is the moderator correction for both the roster and the
// last-call list.
func (o *Orchestrator) ForceRemove(ctx context.Context, actor core.Actor, id domain.MessageID, target domain.UserID) (core.Status, error) {
	if !o.isModerator(actor) {
		return core.StatusNone, ErrNotAuthorized
	}
	return o.RemoveParticipant(ctx, id, target)
}

// RemoveParticipant is the unauthenticated inner path, shared with the
// admin HTTP surface which authenticates on its own.
func (o *Orchestrator) RemoveParticipant(ctx context.Context, id domain.MessageID, target domain.UserID) (core.Status, error) {
	var st core.Status
	ok := o.Registry.WithSession(id, func(s *domain.Session) {
		st = o.Roster.ForceRemove(s, target)
	})
	if !ok {
		return core.StatusNone, ErrUnknownSession
	}
	if st == core.StatusRemoved {
		o.afterMutation(ctx, id)
	}
	return st, nil
}

func (o *Orchestrator) ChangeTime(ctx context.Context, actor core.Actor, id domain.MessageID, newTime string) error {
	if !o.isModerator(actor) {
		return ErrNotAuthorized
	}
	ok := o.Registry.WithSession(id, func(s *domain.Session) {
		s.StartTime = newTime
	})
	if !ok {
		return ErrUnknownSession
	}
	o.afterMutation(ctx, id)
	return nil
}

// AttrUpdate carries the fields a settings-panel event changed. Nil
// pointers and nil slices leave the current value alone.
type AttrUpdate struct {
	Main *domain.Lane
	Sub  []domain.Lane
	Tier *domain.Tier
	Band *domain.TierBand
}

// ConfigureAttributes writes attribute changes and, when autoAdmit is
// set, joins the user once main lane, sub lanes and tier are all
// configured and they are not yet present anywhere. The check and the
// admission run inside the same session lock so two racing panel
// events cannot double-admit.
func (o *Orchestrator) ConfigureAttributes(ctx context.Context, id domain.MessageID, uid domain.UserID, upd AttrUpdate, autoAdmit bool) (st core.Status, admitted bool, err error) {
	ok := o.Registry.WithSession(id, func(s *domain.Session) {
		if upd.Main != nil {
			o.Roster.SetPrimaryLane(s, uid, *upd.Main)
		}
		if upd.Sub != nil {
			o.Roster.SetSecondaryLanes(s, uid, upd.Sub)
		}
		if upd.Tier != nil {
			o.Roster.SetTier(s, uid, *upd.Tier)
		}
		if upd.Band != nil {
			o.Roster.SetTierBand(s, uid, *upd.Band)
		}
		if autoAdmit && s.Attr(uid).Complete() && !s.Present(uid) {
			st = o.Roster.Join(s, uid, o.now())
			admitted = st == core.StatusJoined || st == core.StatusWaitlisted
		}
	})
	if !ok {
		return core.StatusNone, false, ErrUnknownSession
	}
	o.afterMutation(ctx, id)
	return st, admitted, nil
}

// afterMutation runs the external side effects for a committed
// mutation. The session lock is already released here; all work
// happens on a deep copy.
func (o *Orchestrator) afterMutation(ctx context.Context, id domain.MessageID) {
	snap := o.Registry.Snapshot(id)
	if snap == nil {
		return
	}
	o.Registry.ScheduleSave()
	if o.Backups != nil {
		o.Backups.Write(snap)
	}
	o.refresh(ctx, snap)
}

// refresh re-renders the announcement. A vanished message defers to
// recovery; any other failure is retried once and then left for the
// next refresh.
func (o *Orchestrator) refresh(ctx context.Context, snap *domain.Session) {
	msg := core.Message{ID: snap.ID, Channel: snap.ChannelID}
	view := render.Session(snap)
	err := o.Chat.EditMessage(ctx, msg, view)
	if err == nil {
		return
	}
	if errors.Is(err, core.ErrMessageNotFound) {
		if o.Recovery != nil {
			o.Recovery.RecoverSession(ctx, snap.ID)
		}
		return
	}
	log.Warn().Err(err).Str("module", "app.orchestrator").Str("session", string(snap.ID)).Msg("announcement edit failed, retrying once")
	if err := o.Chat.EditMessage(ctx, msg, view); err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Str("session", string(snap.ID)).Msg("announcement edit retry failed")
	}
}
