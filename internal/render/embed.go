// Package render maps session state to the announcement view. Pure
// functions only: same session, same embed.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lolvely/blibot/internal/domain"
)

const (
	embedColor   = 0x5865F2
	displayLimit = domain.DefaultCapacity
	noneLabel    = "none"
)

// Embed is the platform-neutral announcement view model.
type Embed struct {
	Color       int     `json:"color"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

var laneLabels = map[domain.Lane]string{
	domain.LaneTop:     "Top",
	domain.LaneJungle:  "Jungle",
	domain.LaneMid:     "Mid",
	domain.LaneADC:     "ADC",
	domain.LaneSupport: "Support",
}

var tierLabels = map[domain.Tier]string{
	domain.TierIron:        "Iron",
	domain.TierBronze:      "Bronze",
	domain.TierSilver:      "Silver",
	domain.TierGold:        "Gold",
	domain.TierPlatinum:    "Platinum",
	domain.TierEmerald:     "Emerald",
	domain.TierDiamond:     "Diamond",
	domain.TierMaster:      "Master",
	domain.TierGrandmaster: "Grandmaster",
	domain.TierChallenger:  "Challenger",
	domain.TierT1415:       "S14~15 peak",
}

// kst matches the community's timezone for the joined-at annotation.
var kst = time.FixedZone("KST", 9*60*60)

// Session renders the full announcement embed. Never mutates s.
func Session(s *domain.Session) Embed {
	title := "[lolvely] Scrim recruitment is open"
	if s.Mode == domain.ModeAram {
		title = "[ARAM] Scrim recruitment is open"
	}

	start := s.StartTime
	if start == "" {
		start = "TBD"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Start: %s\n\nRoster:\n%s", start, rosterText(s))
	if len(s.Members) > displayLimit {
		b.WriteString("\n\nRoster is over 40 players, no further joins are possible. Please open a new sheet.")
	}

	fields := []Field{{Name: "Last call", Value: lastCallText(s)}}
	if len(s.Wait) > 0 {
		fields = append(fields, Field{Name: "Waitlist", Value: waitlistText(s)})
	}

	return Embed{
		Color:       embedColor,
		Title:       title,
		Description: b.String(),
		Fields:      fields,
	}
}

func rosterText(s *domain.Session) string {
	if len(s.Members) == 0 {
		return "(empty)"
	}
	lines := make([]string, 0, len(s.Members))
	limit := len(s.Members)
	if limit > displayLimit {
		limit = displayLimit
	}
	for i, uid := range s.Members[:limit] {
		lines = append(lines, fmt.Sprintf("%d. <@%s> %s%s", i+1, uid, annotation(s, uid), joinedAtText(s, uid)))
	}
	return strings.Join(lines, "\n")
}

func waitlistText(s *domain.Session) string {
	if len(s.Wait) == 0 {
		return "(empty)"
	}
	lines := make([]string, 0, len(s.Wait))
	for i, uid := range s.Wait {
		// Numbering continues from the roster so waitlisted players see
		// their effective queue position.
		lines = append(lines, fmt.Sprintf("%d. <@%s>", len(s.Members)+i+1, uid))
	}
	return strings.Join(lines, "\n")
}

func lastCallText(s *domain.Session) string {
	if len(s.Last) == 0 {
		return "(empty)"
	}
	ids := make([]string, 0, len(s.Last))
	for uid := range s.Last {
		ids = append(ids, string(uid))
	}
	// Map iteration order is random; sort for a stable rendering.
	sort.Strings(ids)
	lines := make([]string, 0, len(ids))
	for i, id := range ids {
		lines = append(lines, fmt.Sprintf("%d. <@%s>", i+1, id))
	}
	return strings.Join(lines, "\n")
}

// annotation formats "(main: X / sub: Y / tier: Z)" for one entry,
// tolerating a missing or partially filled attribute record.
func annotation(s *domain.Session, uid domain.UserID) string {
	a := s.Attrs[uid]
	main, sub, tier := noneLabel, noneLabel, noneLabel
	if a != nil {
		if l, ok := laneLabels[a.Main]; ok {
			main = l
		}
		if len(a.Sub) > 0 {
			labels := make([]string, 0, len(a.Sub))
			for _, lane := range a.Sub {
				if l, ok := laneLabels[lane]; ok {
					labels = append(labels, l)
				}
			}
			if len(labels) > 0 {
				sub = strings.Join(labels, ", ")
			}
		}
		if t, ok := tierLabels[a.Tier]; ok {
			tier = t
		}
	}
	return fmt.Sprintf("(main: %s / sub: %s / tier: %s)", main, sub, tier)
}

func joinedAtText(s *domain.Session, uid domain.UserID) string {
	a := s.Attrs[uid]
	if a == nil || a.JoinedAt.IsZero() {
		return ""
	}
	return " " + a.JoinedAt.In(kst).Format("3:04 PM")
}
