package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lolvely/blibot/internal/core"
	"github.com/lolvely/blibot/internal/domain"
)

const modRole = "role-staff"

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeChat) {
	t.Helper()
	chat := newFakeChat()
	registry, _ := newTestRegistry(t)
	o := &Orchestrator{
		Registry: registry,
		Roster:   core.NewRoster(40, 10),
		Chat:     chat,
		ModRoles: []string{modRole},
		Now:      func() time.Time { return time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC) },
	}
	o.Recovery = &Recovery{Registry: registry, Chat: chat}
	return o, chat
}

func TestStartRecruitment(t *testing.T) {
	ctx := context.Background()
	o, chat := newTestOrchestrator(t)

	t.Run("requires moderator role", func(t *testing.T) {
		_, err := o.StartRecruitment(ctx, fakeActor{id: "u"}, "c1", domain.ModeStandard, "9 PM")
		if !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("posts announcement and registers", func(t *testing.T) {
		s, err := o.StartRecruitment(ctx, fakeActor{id: "mod", roles: []string{modRole}}, "c1", domain.ModeAram, "9 PM")
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if !o.Registry.Has(s.ID) {
			t.Fatal("session not registered")
		}
		view, ok := chat.view(s.ID)
		if !ok {
			t.Fatal("announcement not posted")
		}
		if !strings.Contains(view.Title, "ARAM") {
			t.Fatalf("title = %q", view.Title)
		}
	})
}

func TestJoinFlowRefreshesAnnouncement(t *testing.T) {
	ctx := context.Background()
	o, chat := newTestOrchestrator(t)
	s, _ := o.CreateSession(ctx, "c1", domain.ModeStandard, "9 PM")

	st, err := o.Join(ctx, s.ID, "alice")
	if err != nil || st != core.StatusJoined {
		t.Fatalf("join: %v %v", st, err)
	}

	view, _ := chat.view(s.ID)
	if !strings.Contains(view.Description, "<@alice>") {
		t.Fatalf("announcement not refreshed: %q", view.Description)
	}
}

func TestJoinUnknownSession(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	if _, err := o.Join(context.Background(), "ghost", "a"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("err = %v", err)
	}
}

func TestAutoAdmitOnCompleteAttributes(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(t)
	s, _ := o.CreateSession(ctx, "c1", domain.ModeStandard, "")

	main := domain.LaneMid
	_, admitted, err := o.ConfigureAttributes(ctx, s.ID, "a", AttrUpdate{Main: &main}, true)
	if err != nil || admitted {
		t.Fatalf("after main lane: admitted=%v err=%v", admitted, err)
	}

	_, admitted, _ = o.ConfigureAttributes(ctx, s.ID, "a", AttrUpdate{Sub: []domain.Lane{domain.LaneTop}}, true)
	if admitted {
		t.Fatal("admitted before tier was set")
	}

	tier := domain.TierGold
	st, admitted, _ := o.ConfigureAttributes(ctx, s.ID, "a", AttrUpdate{Tier: &tier}, true)
	if !admitted || st != core.StatusJoined {
		t.Fatalf("final attribute: admitted=%v st=%v", admitted, st)
	}

	// Re-running a setter must not admit twice.
	_, admitted, _ = o.ConfigureAttributes(ctx, s.ID, "a", AttrUpdate{Tier: &tier}, true)
	if admitted {
		t.Fatal("double admission")
	}
	snap := o.Registry.Snapshot(s.ID)
	if len(snap.Members) != 1 {
		t.Fatalf("roster = %v", snap.Members)
	}
}

func TestAutoAdmitDisabled(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(t)
	s, _ := o.CreateSession(ctx, "c1", domain.ModeStandard, "")

	main, tier := domain.LaneMid, domain.TierGold
	_, admitted, _ := o.ConfigureAttributes(ctx, s.ID, "a", AttrUpdate{
		Main: &main, Sub: []domain.Lane{domain.LaneTop}, Tier: &tier,
	}, false)
	if admitted {
		t.Fatal("admitted with autoAdmit off")
	}
	if snap := o.Registry.Snapshot(s.ID); snap.Present("a") {
		t.Fatal("membership changed by attribute write")
	}
}

func TestForceRemove(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(t)
	s, _ := o.CreateSession(ctx, "c1", domain.ModeStandard, "")
	o.Join(ctx, s.ID, "a")

	t.Run("requires moderator", func(t *testing.T) {
		_, err := o.ForceRemove(ctx, fakeActor{id: "pleb"}, s.ID, "a")
		if !errors.Is(err, ErrNotAuthorized) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("removes target", func(t *testing.T) {
		st, err := o.ForceRemove(ctx, fakeActor{id: "mod", roles: []string{modRole}}, s.ID, "a")
		if err != nil || st != core.StatusRemoved {
			t.Fatalf("st=%v err=%v", st, err)
		}
		if o.Registry.Snapshot(s.ID).Present("a") {
			t.Fatal("target still present")
		}
	})
}

func TestChangeTime(t *testing.T) {
	ctx := context.Background()
	o, chat := newTestOrchestrator(t)
	s, _ := o.CreateSession(ctx, "c1", domain.ModeStandard, "9 PM")

	if err := o.ChangeTime(ctx, fakeActor{id: "pleb"}, s.ID, "10 PM"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v", err)
	}
	if err := o.ChangeTime(ctx, fakeActor{id: "mod", roles: []string{modRole}}, s.ID, "10 PM"); err != nil {
		t.Fatalf("err = %v", err)
	}
	view, _ := chat.view(s.ID)
	if !strings.Contains(view.Description, "10 PM") {
		t.Fatalf("time not rendered: %q", view.Description)
	}
}

func TestRefreshRecoversDeletedAnnouncement(t *testing.T) {
	ctx := context.Background()
	o, chat := newTestOrchestrator(t)
	s, _ := o.CreateSession(ctx, "c1", domain.ModeStandard, "")
	o.Join(ctx, s.ID, "a")

	chat.deleteMessage(s.ID)

	// The next mutation finds the message gone mid-refresh and the
	// opportunistic recovery recreates it under a new identity.
	if _, err := o.Join(ctx, s.ID, "b"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if o.Registry.Has(s.ID) {
		t.Fatal("old identity survived")
	}
	ids := o.Registry.IDs()
	if len(ids) != 1 {
		t.Fatalf("registry has %d sessions", len(ids))
	}
	snap := o.Registry.Snapshot(ids[0])
	if len(snap.Members) != 2 {
		t.Fatalf("roster after recovery = %v", snap.Members)
	}
	view, ok := chat.view(ids[0])
	if !ok || !strings.Contains(view.Description, "<@b>") {
		t.Fatal("recreated announcement missing latest roster")
	}
}
