package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/render"
)

// fakeChat is an in-memory chat platform: messages live in a map and
// can be "deleted" to exercise the recovery path, or fail transiently.
type fakeChat struct {
	mu       sync.Mutex
	nextID   int
	messages map[domain.MessageID]render.Embed
	fetchErr error
	notices  map[domain.UserID][]string
	edits    int
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		messages: map[domain.MessageID]render.Embed{},
		notices:  map[domain.UserID][]string{},
	}
}

func (f *fakeChat) FetchMessage(ctx context.Context, channel domain.ChannelID, id domain.MessageID) (core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return core.Message{}, f.fetchErr
	}
	if _, ok := f.messages[id]; !ok {
		return core.Message{}, fmt.Errorf("fetch %s: %w", id, core.ErrMessageNotFound)
	}
	return core.Message{ID: id, Channel: channel}, nil
}

func (f *fakeChat) SendMessage(ctx context.Context, channel domain.ChannelID, view render.Embed) (core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := domain.MessageID(fmt.Sprintf("msg-%d", f.nextID))
	f.messages[id] = view
	return core.Message{ID: id, Channel: channel}, nil
}

func (f *fakeChat) EditMessage(ctx context.Context, msg core.Message, view render.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[msg.ID]; !ok {
		return fmt.Errorf("edit %s: %w", msg.ID, core.ErrMessageNotFound)
	}
	f.messages[msg.ID] = view
	f.edits++
	return nil
}

func (f *fakeChat) Notify(ctx context.Context, user domain.UserID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices[user] = append(f.notices[user], text)
	return nil
}

func (f *fakeChat) deleteMessage(id domain.MessageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
}

func (f *fakeChat) view(id domain.MessageID) (render.Embed, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.messages[id]
	return v, ok
}

func emptyView() render.Embed {
	return render.Session(domain.NewSession("", "", domain.ModeStandard, ""))
}

// fakeActor carries a fixed identity and role set.
type fakeActor struct {
	id    domain.UserID
	roles []string
}

func (a fakeActor) ID() domain.UserID { return a.id }

func (a fakeActor) HasRole(roleID string) bool {
	for _, r := range a.roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// fakeVerifier accepts the accounts it was seeded with.
type fakeVerifier struct {
	known map[string]VerifiedAccount // key "name#tag"
}

func (v *fakeVerifier) Verify(ctx context.Context, gameName, tagLine string) (VerifiedAccount, error) {
	acc, ok := v.known[gameName+"#"+tagLine]
	if !ok {
		return VerifiedAccount{}, fmt.Errorf("%s#%s: %w", gameName, tagLine, ErrAccountNotFound)
	}
	return acc, nil
}
