package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/render"
)

// Recovery reconciles persisted sessions against the live chat history.
// A deleted announcement is recreated from current session state and
// the session is rekeyed to the new message; transient failures leave
// the session untouched so user data never dies on a network blip.
type Recovery struct {
	Registry *Registry
	Chat     core.ChatClient
}

// Reconcile runs once at startup over every restored session.
func (r *Recovery) Reconcile(ctx context.Context) {
	for _, id := range r.Registry.IDs() {
		r.RecoverSession(ctx, id)
	}
}

// RecoverSession checks one session's announcement and self-heals it
// when the message is gone. Safe against concurrent roster mutations:
// the final re-render reads the session again after the rekey, so a
// join that raced the recreation still shows up.
func (r *Recovery) RecoverSession(ctx context.Context, id domain.MessageID) {
	snap := r.Registry.Snapshot(id)
	if snap == nil {
		return
	}

	_, err := r.Chat.FetchMessage(ctx, snap.ChannelID, id)
	if err == nil {
		return
	}
	if !errors.Is(err, core.ErrMessageNotFound) {
		log.Warn().Err(err).Str("module", "app.recovery").Str("session", string(id)).Msg("fetch failed transiently, leaving session alone")
		return
	}

	msg, err := r.Chat.SendMessage(ctx, snap.ChannelID, render.Session(snap))
	if err != nil {
		log.Error().Err(err).Str("module", "app.recovery").Str("session", string(id)).Msg("could not recreate announcement")
		return
	}

	r.Registry.Rekey(id, msg.ID)

	// Re-render from the freshest state under the new identity.
	if snap = r.Registry.Snapshot(msg.ID); snap != nil {
		if err := r.Chat.EditMessage(ctx, msg, render.Session(snap)); err != nil {
			log.Warn().Err(err).Str("module", "app.recovery").Str("session", string(msg.ID)).Msg("post-rekey render failed")
		}
	}

	log.Info().Str("module", "app.recovery").Str("old", string(id)).Str("new", string(msg.ID)).Msg("announcement recreated and session rekeyed")
}
