package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/titipin/backend/domain"
)

// UpdateKind distinguishes which collection of a session changed.
type UpdateKind string

const (
	UpdateKindSession      UpdateKind = "session"
	UpdateKindOrders       UpdateKind = "orders"
	UpdateKindPayments     UpdateKind = "payments"
	UpdateKindDisbursement UpdateKind = "disbursement"
	UpdateKindMessage      UpdateKind = "message"
)

// Update is the fan-out payload published after every write. Subscribers
// reload the snapshot instead of trusting the payload, so delivery order
// across kinds does not matter: the next reload converges.
type Update struct {
	SessionID string          `json:"session_id"`
	Kind      UpdateKind      `json:"kind"`
	Event     string          `json:"event,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	At        time.Time       `json:"at"`
}

// Stream publishes and subscribes per-session updates over Redis pub/sub,
// standing in for the managed backend's realtime listeners.
type Stream struct {
	client *redislib.Client
	prefix string
}

// NewStream creates a Redis-backed update stream.
func NewStream(client *redislib.Client) *Stream {
	return &Stream{
		client: client,
		prefix: "session:",
	}
}

// Publish fans the update out to every subscriber of the session channel.
func (s *Stream) Publish(ctx context.Context, update Update) error {
	if update.SessionID == "" {
		return domain.ErrInvalidPayload
	}
	if update.At.IsZero() {
		update.At = time.Now()
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel(update.SessionID), payload).Err()
}

// Subscribe returns a channel of updates for one session. The subscription
// ends when ctx is cancelled; the returned channel is closed afterwards.
func (s *Stream) Subscribe(ctx context.Context, sessionID string) (<-chan Update, error) {
	sub := s.client.Subscribe(ctx, s.channel(sessionID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Update)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var update Update
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Stream) channel(sessionID string) string {
	return fmt.Sprintf("%s%s", s.prefix, sessionID)
}
