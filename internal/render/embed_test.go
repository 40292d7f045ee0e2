package render

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lolvely/blibot/internal/domain"
)

func TestSessionDeterministic(t *testing.T) {
	s := domain.NewSession("m", "c", domain.ModeStandard, "9 PM")
	s.Members = []domain.UserID{"a", "b"}
	s.Last["z"] = struct{}{}
	s.Last["y"] = struct{}{}

	first := Session(s)
	for i := 0; i < 20; i++ {
		if got := Session(s); !reflect.DeepEqual(got, first) {
			t.Fatalf("render %d differs from first", i)
		}
	}
}

func TestSessionNeverMutates(t *testing.T) {
	s := domain.NewSession("m", "c", domain.ModeAram, "")
	s.Members = []domain.UserID{"a"}
	before := s.Clone()
	Session(s)
	if !reflect.DeepEqual(s.Members, before.Members) || !reflect.DeepEqual(s.Attrs, before.Attrs) {
		t.Fatalf("render mutated the session")
	}
}

func TestTitleByMode(t *testing.T) {
	std := Session(domain.NewSession("m", "c", domain.ModeStandard, ""))
	aram := Session(domain.NewSession("m", "c", domain.ModeAram, ""))
	if !strings.Contains(std.Title, "lolvely") {
		t.Fatalf("standard title = %q", std.Title)
	}
	if !strings.Contains(aram.Title, "ARAM") {
		t.Fatalf("aram title = %q", aram.Title)
	}
}

func TestMissingAttributesRenderAsNone(t *testing.T) {
	s := domain.NewSession("m", "c", domain.ModeStandard, "")
	s.Members = []domain.UserID{"a"}

	view := Session(s)
	if !strings.Contains(view.Description, "(main: none / sub: none / tier: none)") {
		t.Fatalf("description = %q", view.Description)
	}
}

func TestAnnotationsAndJoinTime(t *testing.T) {
	s := domain.NewSession("m", "c", domain.ModeStandard, "9 PM")
	s.Members = []domain.UserID{"a"}
	s.Attrs["a"] = &domain.Attributes{
		Main:     domain.LaneTop,
		Sub:      []domain.Lane{domain.LaneMid, domain.LaneADC},
		Tier:     domain.TierEmerald,
		JoinedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), // 21:00 KST
	}

	view := Session(s)
	if !strings.Contains(view.Description, "(main: Top / sub: Mid, ADC / tier: Emerald)") {
		t.Fatalf("description = %q", view.Description)
	}
	if !strings.Contains(view.Description, "9:00 PM") {
		t.Fatalf("joined-at missing: %q", view.Description)
	}
}

func TestWaitlistNumberingContinuesFromRoster(t *testing.T) {
	s := domain.NewSession("m", "c", domain.ModeStandard, "")
	for i := 1; i <= 10; i++ {
		s.Members = append(s.Members, domain.UserID(fmt.Sprintf("r%d", i)))
	}
	s.Wait = []domain.UserID{"w1", "w2"}

	view := Session(s)
	var waitField *Field
	for i := range view.Fields {
		if view.Fields[i].Name == "Waitlist" {
			waitField = &view.Fields[i]
		}
	}
	if waitField == nil {
		t.Fatalf("no waitlist field: %+v", view.Fields)
	}
	if !strings.Contains(waitField.Value, "11. <@w1>") || !strings.Contains(waitField.Value, "12. <@w2>") {
		t.Fatalf("waitlist numbering: %q", waitField.Value)
	}
}

func TestOverflowNotice(t *testing.T) {
	s := domain.NewSession("m", "c", domain.ModeStandard, "")
	for i := 0; i < 41; i++ {
		s.Members = append(s.Members, domain.UserID(fmt.Sprintf("u%02d", i)))
	}
	view := Session(s)
	if !strings.Contains(view.Description, "no further joins") {
		t.Fatalf("missing overflow notice")
	}
	// Display stops at the limit even though more members exist.
	if strings.Contains(view.Description, "41. ") {
		t.Fatalf("rendered past display limit")
	}
}

func TestEmptyLists(t *testing.T) {
	view := Session(domain.NewSession("m", "c", domain.ModeStandard, ""))
	if !strings.Contains(view.Description, "(empty)") {
		t.Fatalf("empty roster placeholder missing: %q", view.Description)
	}
	if !strings.Contains(view.Description, "Start: TBD") {
		t.Fatalf("TBD start missing: %q", view.Description)
	}
	if len(view.Fields) != 1 || view.Fields[0].Value != "(empty)" {
		t.Fatalf("fields = %+v", view.Fields)
	}
}
