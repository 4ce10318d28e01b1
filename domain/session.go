package domain

import "time"

// SessionStatus is the persisted lifecycle state of a shopping session.
// Closing is monotonic: a closed session never reopens.
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// Session is one bounded shopping errand run by a creator (jastiper)
// on behalf of a circle of friends.
type Session struct {
	ID              string        `json:"id"`
	CircleID        string        `json:"circle_id"`
	CreatorID       string        `json:"creator_id"`
	CreatorName     string        `json:"creator_name"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	LocationName    string        `json:"location_name,omitempty"`
	Latitude        float64       `json:"latitude,omitempty"`
	Longitude       float64       `json:"longitude,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	MaxTitip        int           `json:"max_titip"`
	Status          SessionStatus `json:"status"`
	RevisionMode    bool          `json:"revision_mode"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ExpiresAt is a computed projection, never stored, so persisted status
// and client clocks cannot diverge on what the boundary is.
func (s *Session) ExpiresAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.CreatedAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// IsExpired reports whether the session no longer accepts orders at the
// given reference time. A closed session is always expired.
func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if s.Status != SessionStatusOpen {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !reference.Before(s.ExpiresAt())
}

func (s *Session) IsClosed() bool {
	return s != nil && s.Status == SessionStatusClosed
}

func (s *Session) IsCreator(userID string) bool {
	return s != nil && userID != "" && s.CreatorID == userID
}
