package domain

import "time"

// Lane is a position preference.
type Lane string

const (
	LaneTop     Lane = "top"
	LaneJungle  Lane = "jungle"
	LaneMid     Lane = "mid"
	LaneADC     Lane = "adc"
	LaneSupport Lane = "support"
)

// Tier is a self-reported ranked tier. T1415 means the player reports
// their season 14~15 peak instead of a current tier.
type Tier string

const (
	TierIron        Tier = "I"
	TierBronze      Tier = "B"
	TierSilver      Tier = "S"
	TierGold        Tier = "G"
	TierPlatinum    Tier = "P"
	TierEmerald     Tier = "E"
	TierDiamond     Tier = "D"
	TierMaster      Tier = "M"
	TierGrandmaster Tier = "GM"
	TierChallenger  Tier = "C"
	TierT1415       Tier = "T1415"
)

// TierBand groups tiers coarsely for display next to the exact tier.
type TierBand string

const (
	BandLow  TierBand = "low"
	BandMid  TierBand = "mid"
	BandHigh TierBand = "high"
)

// Attributes is the per-participant self-configured record. It exists
// independently of roster membership: a user may fill it in before
// joining, and it survives everything except an explicit leave.
type Attributes struct {
	Main Lane
	Sub  []Lane
	Tier Tier
	Band TierBand
	// JoinedAt is set when the user is admitted to roster or waitlist
	// and zeroed when they leave or declare last-call.
	JoinedAt time.Time
}

// Complete reports whether the settings panel has been fully filled in.
// Used by the auto-admit composition, never by the roster engine itself.
func (a *Attributes) Complete() bool {
	return a != nil && a.Main != "" && len(a.Sub) > 0 && a.Tier != ""
}
