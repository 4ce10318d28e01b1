package monitor

import "time"

// Status is one probe cycle's view of the dependencies. OutboxSize is the
// number of buffered chat messages still waiting for redelivery.
type Status struct {
	PostgreSQL bool      `json:"postgresql"`
	Redis      bool      `json:"redis"`
	Outbox     bool      `json:"outbox"`
	OutboxSize int       `json:"outbox_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether the primary stores are both reachable. The outbox
// being down degrades chat delivery but does not take the service offline.
func (s Status) Healthy() bool {
	return s.PostgreSQL && s.Redis
}
