package core

import (
	"time"

	"github.com/lolvely/blibot/internal/domain"
)

// Status is the outcome of a roster operation. Expected conditions are
// statuses, never errors; callers translate them into user notices.
type Status int

const (
	// StatusNone is the zero value, reported when no membership change
	// happened.
	StatusNone Status = iota
	// StatusJoined: admitted straight into the roster (possibly via an
	// immediate full-band promotion).
	StatusJoined
	// StatusWaitlisted: admitted, held in the waitlist band.
	StatusWaitlisted
	StatusAlreadyPresent
	StatusCapacityExceeded
	// StatusRemoved: left (or was removed from) roster, waitlist or
	// last-call.
	StatusRemoved
	// StatusNotPresent: removal no-op, the user was nowhere.
	StatusNotPresent
	// StatusLastCalled: moved from roster into the last-call list.
	StatusLastCalled
	// StatusNotAParticipant: last-call denied, user is not on the roster.
	StatusNotAParticipant
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusJoined:
		return "joined"
	case StatusWaitlisted:
		return "waitlisted"
	case StatusAlreadyPresent:
		return "already_present"
	case StatusCapacityExceeded:
		return "capacity_exceeded"
	case StatusRemoved:
		return "removed"
	case StatusNotPresent:
		return "not_present"
	case StatusLastCalled:
		return "last_called"
	case StatusNotAParticipant:
		return "not_a_participant"
	}
	return "unknown"
}

// Roster implements the admission state machine over a Session. All
// operations mutate in place, complete synchronously and never touch
// I/O; the caller persists and re-renders after the mutation committed.
type Roster struct {
	Capacity int
	BandSize int
}

// NewRoster applies the default capacity and band size for
// non-positive arguments.
func NewRoster(capacity, bandSize int) *Roster {
	if capacity <= 0 {
		capacity = domain.DefaultCapacity
	}
	if bandSize <= 0 {
		bandSize = domain.DefaultBandSize
	}
	return &Roster{Capacity: capacity, BandSize: bandSize}
}

// Join admits uid. When the roster sits exactly at a band boundary the
// admission routes to the waitlist; a waitlist reaching a full band is
// promoted into the roster as one batch, preserving FIFO order.
func (r *Roster) Join(s *domain.Session, uid domain.UserID, now time.Time) Status {
	s.EnsureInit()
	if s.Present(uid) {
		return StatusAlreadyPresent
	}
	if len(s.Members)+len(s.Wait) >= r.Capacity {
		return StatusCapacityExceeded
	}

	n := len(s.Members)
	if n > 0 && n%r.BandSize == 0 {
		s.Wait = append(s.Wait, uid)
		s.Attr(uid).JoinedAt = now
		if len(s.Wait) >= r.BandSize {
			s.Members = append(s.Members, s.Wait[:r.BandSize]...)
			s.Wait = append(s.Wait[:0:0], s.Wait[r.BandSize:]...)
			return StatusJoined
		}
		return StatusWaitlisted
	}

	s.Members = append(s.Members, uid)
	s.Attr(uid).JoinedAt = now
	return StatusJoined
}

// Leave removes uid from whichever list holds it. A roster vacancy
// pulls the waitlist front immediately; this single-slot promotion does
// not wait for a full band.
func (r *Roster) Leave(s *domain.Session, uid domain.UserID) Status {
	s.EnsureInit()
	switch {
	case s.InRoster(uid):
		s.Members = remove(s.Members, uid)
		r.promoteOne(s)
	case s.InWaitlist(uid):
		s.Wait = remove(s.Wait, uid)
	case s.InLastCall(uid):
		delete(s.Last, uid)
	default:
		return StatusNotPresent
	}
	if a, ok := s.Attrs[uid]; ok {
		a.JoinedAt = time.Time{}
	}
	return StatusRemoved
}

// DeclareLastCall moves an active roster member to the last-call list.
// Only roster members may declare; waitlisted and absent users cannot.
func (r *Roster) DeclareLastCall(s *domain.Session, uid domain.UserID) Status {
	s.EnsureInit()
	if !s.InRoster(uid) {
		return StatusNotAParticipant
	}
	s.Members = remove(s.Members, uid)
	s.Last[uid] = struct{}{}
	if a, ok := s.Attrs[uid]; ok {
		a.JoinedAt = time.Time{}
	}
	r.promoteOne(s)
	return StatusLastCalled
}

// ForceRemove is the moderator correction path. Same effect as Leave on
// behalf of another user; authorization happens at the call site.
func (r *Roster) ForceRemove(s *domain.Session, uid domain.UserID) Status {
	return r.Leave(s, uid)
}

// SetPrimaryLane writes the main lane preference. Attribute setters
// never change membership; a not-yet-joined user may pre-configure.
func (r *Roster) SetPrimaryLane(s *domain.Session, uid domain.UserID, lane domain.Lane) {
	s.EnsureInit()
	s.Attr(uid).Main = lane
}

func (r *Roster) SetSecondaryLanes(s *domain.Session, uid domain.UserID, lanes []domain.Lane) {
	s.EnsureInit()
	s.Attr(uid).Sub = append([]domain.Lane{}, lanes...)
}

func (r *Roster) SetTier(s *domain.Session, uid domain.UserID, tier domain.Tier) {
	s.EnsureInit()
	s.Attr(uid).Tier = tier
}

func (r *Roster) SetTierBand(s *domain.Session, uid domain.UserID, band domain.TierBand) {
	s.EnsureInit()
	s.Attr(uid).Band = band
}

func (r *Roster) promoteOne(s *domain.Session) {
	if len(s.Wait) == 0 {
		return
	}
	front := s.Wait[0]
	s.Wait = append(s.Wait[:0:0], s.Wait[1:]...)
	s.Members = append(s.Members, front)
}

func remove(list []domain.UserID, uid domain.UserID) []domain.UserID {
	out := list[:0]
	for _, m := range list {
		if m != uid {
			out = append(out, m)
		}
	}
	return out
}
