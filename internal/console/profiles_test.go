package console

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/models"
	"github.com/lumora/signal-console/internal/storage"
)

func newProfileService() (*ProfileService, *storage.InMemoryProfileRepo) {
	repo := storage.NewInMemoryProfileRepo()
	return NewProfileService(repo, storage.NewInMemoryEventStore(), zap.NewNop()), repo
}

func TestNormalizeSubscription_MissingRowIsPending(t *testing.T) {
	sub := NormalizeSubscription("p1", models.ChannelEmail, nil)
	assert.Equal(t, "p1", sub.ProfileID)
	assert.Equal(t, models.ChannelEmail, sub.Channel)
	assert.Equal(t, models.StatusPending, sub.Status)
}

func TestNormalizeSubscription_StoredRowPassesThrough(t *testing.T) {
	stored := &models.ChannelSubscription{
		ProfileID: "p1",
		Channel:   models.ChannelEmail,
		Status:    models.StatusUnsubscribed,
	}
	assert.Same(t, stored, NormalizeSubscription("p1", models.ChannelEmail, stored))
}

func TestSubscription_MissingEqualsExplicitPending(t *testing.T) {
	svc, repo := newProfileService()
	ctx := context.Background()

	// p1 has no email row; p2 has an explicit pending row.
	err := repo.UpsertSubscription(ctx, &models.ChannelSubscription{
		ProfileID: "p2",
		Channel:   models.ChannelEmail,
		Status:    models.StatusPending,
	})
	assert.NoError(t, err)

	implicit, err := svc.Subscription(ctx, "p1", models.ChannelEmail)
	assert.NoError(t, err)
	explicit, err := svc.Subscription(ctx, "p2", models.ChannelEmail)
	assert.NoError(t, err)

	assert.Equal(t, implicit.Status, explicit.Status)
	assert.Equal(t, models.StatusPending, implicit.Status)
}

func TestSubscriptions_FillsAllChannels(t *testing.T) {
	svc, repo := newProfileService()
	ctx := context.Background()

	err := repo.UpsertSubscription(ctx, &models.ChannelSubscription{
		ProfileID: "p1",
		Channel:   models.ChannelSMS,
		Status:    models.StatusSubscribed,
	})
	assert.NoError(t, err)

	subs, err := svc.Subscriptions(ctx, "p1")
	assert.NoError(t, err)
	assert.Len(t, subs, len(models.AllChannels))

	byChannel := make(map[models.Channel]models.SubscriptionStatus)
	for _, sub := range subs {
		byChannel[sub.Channel] = sub.Status
	}
	assert.Equal(t, models.StatusSubscribed, byChannel[models.ChannelSMS])
	assert.Equal(t, models.StatusPending, byChannel[models.ChannelEmail])
	assert.Equal(t, models.StatusPending, byChannel[models.ChannelPush])
}

func TestSetSubscription_RejectsUnknownChannel(t *testing.T) {
	svc, _ := newProfileService()
	err := svc.SetSubscription(context.Background(), &models.ChannelSubscription{
		ProfileID: "p1",
		Channel:   "fax",
		Status:    models.StatusSubscribed,
	})
	assert.Error(t, err)
}

func TestSetSubscription_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newProfileService()
	err := svc.SetSubscription(context.Background(), &models.ChannelSubscription{
		ProfileID: "p1",
		Channel:   models.ChannelEmail,
		Status:    "maybe",
	})
	assert.Error(t, err)
}

func TestProfileSave_RequiresContactPoint(t *testing.T) {
	svc, _ := newProfileService()
	err := svc.Save(context.Background(), &models.Profile{AccountID: "acc"})
	assert.Error(t, err)
}

func TestProfileSave_AssignsIDAndTimestamps(t *testing.T) {
	svc, _ := newProfileService()
	p := &models.Profile{AccountID: "acc", Email: "jo@example.com"}

	err := svc.Save(context.Background(), p)
	assert.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestProfileActivity(t *testing.T) {
	events := storage.NewInMemoryEventStore()
	svc := NewProfileService(storage.NewInMemoryProfileRepo(), events, zap.NewNop())
	ctx := context.Background()

	now := time.Now().UTC()
	err := events.Append(ctx, &models.Event{
		ID: "e1", AccountID: "acc", ProfileID: "p1",
		Type: models.EventPageView, OccurredAt: now,
	})
	assert.NoError(t, err)

	got, err := svc.Activity(ctx, "p1", now.AddDate(0, 0, -1))
	assert.NoError(t, err)
	assert.Len(t, got, 1)
}
