// Package domain contains entity without logic, just meta-data
package domain

type (
	// UserID is the chat-platform identity of a participant.
	UserID string
	// ChannelID locates the channel an announcement lives in.
	ChannelID string
	// MessageID is the external identity of the announcement message.
	// It doubles as the registry key and may change on recovery rekey.
	MessageID string
)

// Mode selects the recruitment flavor. Display only.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeAram     Mode = "aram"
)

const (
	// DefaultCapacity bounds roster+waitlist per session.
	DefaultCapacity = 40
	// DefaultBandSize is the waitlist promotion batch.
	DefaultBandSize = 10
)

// Session is one recruitment round tied to one announcement message.
// Every collection is always non-nil after EnsureInit; callers mutate
// it only through the roster engine.
type Session struct {
	ID        MessageID
	ChannelID ChannelID
	Mode      Mode
	StartTime string

	// Members is the active roster, in admission order.
	Members []UserID
	// Wait holds band-overflow admissions, FIFO.
	Wait []UserID
	// Last holds participants who stepped back before the round.
	Last map[UserID]struct{}

	// Attrs keeps self-reported preferences, independent of membership.
	Attrs map[UserID]*Attributes
}

// NewSession avoids ad-hoc struct literals in adapters and guarantees
// initialized collections.
func NewSession(id MessageID, channel ChannelID, mode Mode, startTime string) *Session {
	s := &Session{ID: id, ChannelID: channel, Mode: mode, StartTime: startTime}
	s.EnsureInit()
	return s
}

// EnsureInit replaces nil collections with empty ones so the roster
// engine never branches on shape. Safe to call repeatedly.
func (s *Session) EnsureInit() {
	if s.Members == nil {
		s.Members = []UserID{}
	}
	if s.Wait == nil {
		s.Wait = []UserID{}
	}
	if s.Last == nil {
		s.Last = map[UserID]struct{}{}
	}
	if s.Attrs == nil {
		s.Attrs = map[UserID]*Attributes{}
	}
	if s.Mode == "" {
		s.Mode = ModeStandard
	}
}

// Attr returns the attribute record for uid, creating it if absent.
func (s *Session) Attr(uid UserID) *Attributes {
	a, ok := s.Attrs[uid]
	if !ok {
		a = &Attributes{}
		s.Attrs[uid] = a
	}
	return a
}

func (s *Session) InRoster(uid UserID) bool {
	for _, m := range s.Members {
		if m == uid {
			return true
		}
	}
	return false
}

func (s *Session) InWaitlist(uid UserID) bool {
	for _, w := range s.Wait {
		if w == uid {
			return true
		}
	}
	return false
}

func (s *Session) InLastCall(uid UserID) bool {
	_, ok := s.Last[uid]
	return ok
}

// Present reports membership in any of roster, waitlist or last-call.
func (s *Session) Present(uid UserID) bool {
	return s.InRoster(uid) || s.InWaitlist(uid) || s.InLastCall(uid)
}

// Clone deep-copies the session so renderers and the snapshot writer
// can work outside the session lock.
func (s *Session) Clone() *Session {
	c := &Session{
		ID:        s.ID,
		ChannelID: s.ChannelID,
		Mode:      s.Mode,
		StartTime: s.StartTime,
		Members:   append([]UserID{}, s.Members...),
		Wait:      append([]UserID{}, s.Wait...),
		Last:      make(map[UserID]struct{}, len(s.Last)),
		Attrs:     make(map[UserID]*Attributes, len(s.Attrs)),
	}
	for uid := range s.Last {
		c.Last[uid] = struct{}{}
	}
	for uid, a := range s.Attrs {
		ac := *a
		ac.Sub = append([]Lane{}, a.Sub...)
		c.Attrs[uid] = &ac
	}
	return c
}
