package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	KindMessage = "message"
)

// Item is one undelivered side effect waiting for the primary store to come
// back. Today that is only system chat messages; the kind field leaves room
// for more.
type Item struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Kind == "" {
		i.Kind = KindMessage
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
