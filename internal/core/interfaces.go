package core

import (
	"context"
	"errors"

	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/render"
)

// ErrMessageNotFound classifies the "announcement message is gone"
// failure. Adapters must wrap their platform's not-found errors with it
// so recovery can tell a deleted message from a transient fault.
var ErrMessageNotFound = errors.New("message not found")

// Message is the external identity of a rendered announcement.
type Message struct {
	ID      domain.MessageID
	Channel domain.ChannelID
}

// ChatClient abstracts the chat platform. Owned by the adapter; the
// core only sees identities and rendered views.
type ChatClient interface {
	// FetchMessage returns ErrMessageNotFound (wrapped) when the
	// message has been deleted.
	FetchMessage(ctx context.Context, channel domain.ChannelID, id domain.MessageID) (Message, error)
	// SendMessage posts a new announcement and returns its identity.
	SendMessage(ctx context.Context, channel domain.ChannelID, view render.Embed) (Message, error)
	EditMessage(ctx context.Context, msg Message, view render.Embed) error
	// Notify delivers a private notice to a single user.
	Notify(ctx context.Context, user domain.UserID, text string) error
}

// Actor is the identity and authorization view of one incoming event.
type Actor interface {
	ID() domain.UserID
	// HasRole checks chat-platform role membership, used to gate
	// moderator-only commands.
	HasRole(roleID string) bool
}
