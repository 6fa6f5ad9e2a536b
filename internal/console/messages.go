package console

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/models"
	"github.com/lumora/signal-console/internal/storage"
)

// MessageService manages messages and their channel variants.
type MessageService struct {
	messages storage.MessageRepo
	logger   *zap.Logger
}

func NewMessageService(messages storage.MessageRepo, logger *zap.Logger) *MessageService {
	return &MessageService{messages: messages, logger: logger}
}

func (s *MessageService) List(ctx context.Context, accountID string) ([]*models.Message, error) {
	return s.messages.ListAll(ctx, accountID)
}

func (s *MessageService) Get(ctx context.Context, id string) (*models.Message, error) {
	return s.messages.GetByID(ctx, id)
}

func (s *MessageService) Save(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if err := s.messages.Upsert(ctx, m); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// Delete removes a message and all of its variants. Variants go first
// so a failure leaves no orphaned payloads pointing at a deleted
// message.
func (s *MessageService) Delete(ctx context.Context, id string) error {
	if err := s.messages.DeleteVariantsByMessage(ctx, id); err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	if err := s.messages.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	s.logger.Info("message deleted", zap.String("message_id", id))
	return nil
}

func (s *MessageService) ListVariants(ctx context.Context, messageID string) ([]*models.MessageVariant, error) {
	return s.messages.ListVariants(ctx, messageID)
}

// SaveVariant validates and upserts a variant; its parent message must
// exist.
func (s *MessageService) SaveVariant(ctx context.Context, v *models.MessageVariant) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	if err := v.Validate(); err != nil {
		return fmt.Errorf("invalid variant: %w", err)
	}

	m, err := s.messages.GetByID(ctx, v.MessageID)
	if err != nil {
		return fmt.Errorf("check message: %w", err)
	}
	if m == nil {
		return fmt.Errorf("variant references unknown message %q", v.MessageID)
	}

	return s.messages.UpsertVariant(ctx, v)
}

func (s *MessageService) DeleteVariant(ctx context.Context, id string) error {
	return s.messages.DeleteVariant(ctx, id)
}
