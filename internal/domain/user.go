package domain

import "time"

// User is the minimal projection of an account this engine needs. Accounts
// are owned by the identity service; the engine only auto-creates student
// records for calendar-originated bookings with unknown emails.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
}

// Service is a bookable offering from the catalog
type Service struct {
	ID              string
	Name            string
	ServiceType     string
	MaxParticipants int // 0 = no participant cap
	CreatedAt       time.Time
}

// HasParticipantCap reports whether the service limits concurrent
// participants at one slot (group lessons).
func (s *Service) HasParticipantCap() bool {
	return s.MaxParticipants > 0
}
