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

// ProfileService manages profiles and channel subscriptions.
type ProfileService struct {
	profiles storage.ProfileRepo
	events   storage.EventStore
	logger   *zap.Logger
}

func NewProfileService(profiles storage.ProfileRepo, events storage.EventStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, events: events, logger: logger}
}

func (s *ProfileService) List(ctx context.Context, accountID string) ([]*models.Profile, error) {
	return s.profiles.ListAll(ctx, accountID)
}

func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

func (s *ProfileService) Save(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if p.Email == "" && p.Phone == "" && p.DeviceID == "" {
		return fmt.Errorf("profile needs at least one of email, phone or device_id")
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *ProfileService) Delete(ctx context.Context, id string) error {
	return s.profiles.Delete(ctx, id)
}

// Activity returns a profile's recent event stream.
func (s *ProfileService) Activity(ctx context.Context, profileID string, since time.Time) ([]*models.Event, error) {
	return s.events.ListByProfile(ctx, profileID, since)
}

// NormalizeSubscription turns a possibly-missing stored row into the
// effective consent state. A profile with no record for a channel is
// pending, indistinguishable from one whose stored status is pending.
func NormalizeSubscription(profileID string, ch models.Channel, sub *models.ChannelSubscription) *models.ChannelSubscription {
	if sub != nil {
		return sub
	}
	return &models.ChannelSubscription{
		ProfileID: profileID,
		Channel:   ch,
		Status:    models.StatusPending,
	}
}

// Subscription returns the effective consent state for one channel,
// applying the pending default when no row is stored.
func (s *ProfileService) Subscription(ctx context.Context, profileID string, ch models.Channel) (*models.ChannelSubscription, error) {
	sub, err := s.profiles.GetSubscription(ctx, profileID, ch)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return NormalizeSubscription(profileID, ch, sub), nil
}

// Subscriptions returns the effective consent state for every channel,
// filling pending for channels with no stored row.
func (s *ProfileService) Subscriptions(ctx context.Context, profileID string) ([]*models.ChannelSubscription, error) {
	stored, err := s.profiles.ListSubscriptions(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	byChannel := make(map[models.Channel]*models.ChannelSubscription, len(stored))
	for _, sub := range stored {
		byChannel[sub.Channel] = sub
	}

	out := make([]*models.ChannelSubscription, 0, len(models.AllChannels))
	for _, ch := range models.AllChannels {
		out = append(out, NormalizeSubscription(profileID, ch, byChannel[ch]))
	}
	return out, nil
}

// SetSubscription stores an explicit consent state.
func (s *ProfileService) SetSubscription(ctx context.Context, sub *models.ChannelSubscription) error {
	if sub.ProfileID == "" {
		return fmt.Errorf("subscription requires a profile_id")
	}
	switch sub.Channel {
	case models.ChannelEmail, models.ChannelSMS, models.ChannelPush:
	default:
		return fmt.Errorf("unknown channel %q", sub.Channel)
	}
	switch sub.Status {
	case models.StatusSubscribed, models.StatusUnsubscribed, models.StatusBounced, models.StatusPending:
	default:
		return fmt.Errorf("unknown subscription status %q", sub.Status)
	}
	sub.UpdatedAt = time.Now().UTC()

	if err := s.profiles.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	s.logger.Info("subscription updated",
		zap.String("profile_id", sub.ProfileID),
		zap.String("channel", string(sub.Channel)),
		zap.String("status", string(sub.Status)),
	)
	return nil
}
