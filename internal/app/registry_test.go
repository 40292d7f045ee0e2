package app

import (
	"testing"

	"github.com/lolvely/blibot/internal/domain"
	"github.com/lolvely/blibot/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *store.Snapshot) {
	t.Helper()
	snap := store.NewSnapshot(t.TempDir())
	r := NewRegistry(snap)
	t.Cleanup(r.Close)
	return r, snap
}

func TestCreateAndSnapshot(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Create("m1", "c1", domain.ModeAram, "9 PM")

	s := r.Snapshot("m1")
	if s == nil {
		t.Fatal("session not found")
	}
	if s.Mode != domain.ModeAram || s.ChannelID != "c1" || s.StartTime != "9 PM" {
		t.Fatalf("session = %+v", s)
	}
	if r.Snapshot("nope") != nil {
		t.Fatal("expected nil for unknown id")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Create("m1", "c1", domain.ModeStandard, "")

	snap := r.Snapshot("m1")
	snap.Members = append(snap.Members, "intruder")

	if again := r.Snapshot("m1"); len(again.Members) != 0 {
		t.Fatalf("mutating a snapshot leaked into the registry")
	}
}

func TestDelete(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Create("m1", "c1", domain.ModeStandard, "")
	r.Delete("m1")
	if r.Has("m1") {
		t.Fatal("session survived delete")
	}
	// Deleting twice is fine.
	r.Delete("m1")
}

func TestRekey(t *testing.T) {
	t.Run("moves state", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		r.Create("old", "c1", domain.ModeStandard, "")
		r.WithSession("old", func(s *domain.Session) {
			s.Members = append(s.Members, "a")
		})

		r.Rekey("old", "new")

		if r.Has("old") {
			t.Fatal("old key still present")
		}
		s := r.Snapshot("new")
		if s == nil || len(s.Members) != 1 || s.Members[0] != "a" {
			t.Fatalf("state lost in rekey: %+v", s)
		}
		if s.ID != "new" {
			t.Fatalf("session id not updated: %s", s.ID)
		}
	})

	t.Run("absent old id is a no-op", func(t *testing.T) {
		r, _ := newTestRegistry(t)
		r.Create("m1", "c1", domain.ModeStandard, "")
		r.Rekey("ghost", "new")
		if r.Has("new") || !r.Has("m1") {
			t.Fatal("no-op rekey changed the registry")
		}
	})
}

func TestWithSessionUnknownID(t *testing.T) {
	r, _ := newTestRegistry(t)
	if ok := r.WithSession("nope", func(*domain.Session) {}); ok {
		t.Fatal("WithSession succeeded for unknown id")
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	snap := store.NewSnapshot(dir)

	r := NewRegistry(snap)
	r.Create("m1", "c1", domain.ModeAram, "9 PM")
	r.WithSession("m1", func(s *domain.Session) {
		s.Members = append(s.Members, "a", "b")
		s.Wait = append(s.Wait, "c")
		s.Last["d"] = struct{}{}
	})
	r.Close() // final synchronous save

	r2 := NewRegistry(store.NewSnapshot(dir))
	defer r2.Close()
	s := r2.Snapshot("m1")
	if s == nil {
		t.Fatal("session not restored")
	}
	if len(s.Members) != 2 || len(s.Wait) != 1 || !s.InLastCall("d") {
		t.Fatalf("restored session = %+v", s)
	}
	if s.Mode != domain.ModeAram || s.StartTime != "9 PM" {
		t.Fatalf("restored header = %+v", s)
	}
}

func TestLatestInChannel(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Create("100", "c1", domain.ModeStandard, "")
	r.Create("99", "c1", domain.ModeStandard, "")
	r.Create("1000", "c2", domain.ModeStandard, "")

	id, ok := r.LatestInChannel("c1")
	if !ok || id != "100" {
		t.Fatalf("got %s %v, want 100", id, ok)
	}
	if _, ok := r.LatestInChannel("empty"); ok {
		t.Fatal("found session in empty channel")
	}
}
