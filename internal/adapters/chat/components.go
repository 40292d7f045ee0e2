package chat

import (
	"fmt"
	"strings"

	"github.com/lolvely/blibot/internal/domain"
)

// Component is the platform-neutral interactive control attached to a
// message or an interaction response.
type Component struct {
	Type        string   `json:"type"` // "button" | "select"
	CustomID    string   `json:"custom_id"`
	Label       string   `json:"label,omitempty"`
	Style       string   `json:"style,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	MinValues   int      `json:"min_values,omitempty"`
	MaxValues   int      `json:"max_values,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

const (
	buttonJoin     = "join_game"
	buttonLeave    = "leave_game"
	buttonLastCall = "last_call"

	selectLane    = "lane"
	selectSubLane = "sublane"
	selectTier    = "tier"
	selectBand    = "band"
)

// AnnouncementButtons are the three controls under every announcement.
func AnnouncementButtons() []Component {
	return []Component{
		{Type: "button", CustomID: buttonJoin, Label: "✅ Join", Style: "success"},
		{Type: "button", CustomID: buttonLeave, Label: "❎ Leave", Style: "danger"},
		{Type: "button", CustomID: buttonLastCall, Label: "⛔ Last call", Style: "primary"},
	}
}

// panelID binds a select to its session and owner so a stray click on
// someone else's panel can be rejected and the session resolved without
// scanning channel history.
func panelID(kind string, session domain.MessageID, owner domain.UserID) string {
	return fmt.Sprintf("%s:%s:%s", kind, session, owner)
}

func parsePanelID(customID string) (kind string, session domain.MessageID, owner domain.UserID, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], domain.MessageID(parts[1]), domain.UserID(parts[2]), true
}

var laneOptions = []Option{
	{Label: "Top", Value: string(domain.LaneTop)},
	{Label: "Jungle", Value: string(domain.LaneJungle)},
	{Label: "Mid", Value: string(domain.LaneMid)},
	{Label: "ADC", Value: string(domain.LaneADC)},
	{Label: "Support", Value: string(domain.LaneSupport)},
}

var tierOptions = []Option{
	{Label: "Iron", Value: string(domain.TierIron)},
	{Label: "Bronze", Value: string(domain.TierBronze)},
	{Label: "Silver", Value: string(domain.TierSilver)},
	{Label: "Gold", Value: string(domain.TierGold)},
	{Label: "Platinum", Value: string(domain.TierPlatinum)},
	{Label: "Emerald", Value: string(domain.TierEmerald)},
	{Label: "Diamond", Value: string(domain.TierDiamond)},
	{Label: "Master", Value: string(domain.TierMaster)},
	{Label: "Grandmaster", Value: string(domain.TierGrandmaster)},
	{Label: "Challenger", Value: string(domain.TierChallenger)},
	{Label: "S14~15 peak", Value: string(domain.TierT1415)},
}

var bandOptions = []Option{
	{Label: "Low", Value: string(domain.BandLow)},
	{Label: "Mid", Value: string(domain.BandMid)},
	{Label: "High", Value: string(domain.BandHigh)},
}

// SettingsPanel builds the personal lane/tier configuration controls.
func SettingsPanel(session domain.MessageID, owner domain.UserID) []Component {
	subOptions := append([]Option{{Label: "None", Value: "none"}}, laneOptions...)
	return []Component{
		{Type: "select", CustomID: panelID(selectLane, session, owner), Placeholder: "Main lane", Options: laneOptions},
		{Type: "select", CustomID: panelID(selectSubLane, session, owner), Placeholder: "Sub lanes", MinValues: 1, MaxValues: 5, Options: subOptions},
		{Type: "select", CustomID: panelID(selectTier, session, owner), Placeholder: "Tier", Options: tierOptions},
		{Type: "select", CustomID: panelID(selectBand, session, owner), Placeholder: "Tier band", Options: bandOptions},
	}
}
