package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/internal/infrastructure/outbox"
	"github.com/titipin/backend/repository"
	redisRepo "github.com/titipin/backend/repository/redis"
	"github.com/titipin/backend/usecase"
)

// ChatSink persists system chat messages and fans them out to subscribers.
// Delivery is fire-and-forget: when the primary store is down the message is
// parked in the outbox and the caller proceeds as if it were sent.
type ChatSink struct {
	messages  repository.MessageRepository
	stream    *redisRepo.Stream
	processor *OutboxProcessor
	logger    *zap.Logger
}

func NewChatSink(
	messages repository.MessageRepository,
	stream *redisRepo.Stream,
	processor *OutboxProcessor,
	logger *zap.Logger,
) *ChatSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatSink{
		messages:  messages,
		stream:    stream,
		processor: processor,
		logger:    logger,
	}
}

// PostSystemMessage writes the chat line and publishes it. A storage failure
// buffers the message for redelivery; only a failure to buffer surfaces, and
// callers log that rather than fail their transition.
func (s *ChatSink) PostSystemMessage(ctx context.Context, sessionID, body string) error {
	message := &domain.SystemMessage{
		SessionID: sessionID,
		Body:      body,
	}

	if err := s.messages.Create(ctx, message); err != nil {
		s.logger.Warn("system message write failed, buffering",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return s.buffer(message)
	}

	s.publish(ctx, message)
	return nil
}

func (s *ChatSink) buffer(message *domain.SystemMessage) error {
	if s.processor == nil {
		return domain.NewError(domain.ErrCodeUnavailable, "system message lost: no outbox configured")
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.processor.Enqueue(outbox.Item{
		ID:        message.ID,
		SessionID: message.SessionID,
		Kind:      outbox.KindMessage,
		Data:      payload,
	})
}

func (s *ChatSink) publish(ctx context.Context, message *domain.SystemMessage) {
	if s.stream == nil {
		return
	}
	payload, _ := json.Marshal(message)
	err := s.stream.Publish(ctx, redisRepo.Update{
		SessionID: message.SessionID,
		Kind:      redisRepo.UpdateKindMessage,
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("system message publish failed",
			zap.String("session_id", message.SessionID),
			zap.Error(err))
	}
}

var _ usecase.ChatSink = (*ChatSink)(nil)
