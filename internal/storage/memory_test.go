package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumora/signal-console/internal/models"
)

func TestInMemoryAgentRepo_MissingIsNilNil(t *testing.T) {
	repo := NewInMemoryAgentRepo()
	a, err := repo.GetByID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestInMemoryAgentRepo_UpsertCopies(t *testing.T) {
	repo := NewInMemoryAgentRepo()
	ctx := context.Background()

	a := &models.Agent{ID: "a1", AccountID: "acc", Name: "original"}
	assert.NoError(t, repo.Upsert(ctx, a))

	// Mutating the caller's struct must not leak into the store.
	a.Name = "mutated"

	got, err := repo.GetByID(ctx, "a1")
	assert.NoError(t, err)
	assert.Equal(t, "original", got.Name)
}

func TestInMemoryAgentRepo_ListScopedByAccount(t *testing.T) {
	repo := NewInMemoryAgentRepo()
	ctx := context.Background()

	_ = repo.Upsert(ctx, &models.Agent{ID: "a1", AccountID: "acc1"})
	_ = repo.Upsert(ctx, &models.Agent{ID: "a2", AccountID: "acc2"})

	list, err := repo.ListAll(ctx, "acc1")
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	all, err := repo.ListAll(ctx, "")
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemorySegmentRepo_DeleteCascadesMembers(t *testing.T) {
	repo := NewInMemorySegmentRepo()
	ctx := context.Background()

	assert.NoError(t, repo.Upsert(ctx, &models.Segment{ID: "s1", AccountID: "acc", Name: "VIP"}))
	assert.NoError(t, repo.AddMember(ctx, &models.SegmentProfile{SegmentID: "s1", ProfileID: "p1"}))

	assert.NoError(t, repo.Delete(ctx, "s1"))

	members, err := repo.ListMembers(ctx, "s1")
	assert.NoError(t, err)
	assert.Empty(t, members)
}

func TestInMemorySegmentRepo_RemoveMember(t *testing.T) {
	repo := NewInMemorySegmentRepo()
	ctx := context.Background()

	_ = repo.Upsert(ctx, &models.Segment{ID: "s1", Name: "VIP"})
	_ = repo.AddMember(ctx, &models.SegmentProfile{SegmentID: "s1", ProfileID: "p1"})
	_ = repo.AddMember(ctx, &models.SegmentProfile{SegmentID: "s1", ProfileID: "p2"})

	assert.NoError(t, repo.RemoveMember(ctx, "s1", "p1"))

	members, err := repo.ListMembers(ctx, "s1")
	assert.NoError(t, err)
	assert.Len(t, members, 1)
	assert.Equal(t, "p2", members[0].ProfileID)
}

func TestInMemoryMessageRepo_DeleteVariantsByMessage(t *testing.T) {
	repo := NewInMemoryMessageRepo()
	ctx := context.Background()

	_ = repo.Upsert(ctx, &models.Message{ID: "m1", Name: "Sale"})
	_ = repo.UpsertVariant(ctx, &models.MessageVariant{ID: "v1", MessageID: "m1", Channel: models.ChannelEmail})
	_ = repo.UpsertVariant(ctx, &models.MessageVariant{ID: "v2", MessageID: "m1", Channel: models.ChannelSMS})
	_ = repo.UpsertVariant(ctx, &models.MessageVariant{ID: "v3", MessageID: "m2", Channel: models.ChannelEmail})

	assert.NoError(t, repo.DeleteVariantsByMessage(ctx, "m1"))

	v1, err := repo.ListVariants(ctx, "m1")
	assert.NoError(t, err)
	assert.Empty(t, v1)

	v2, err := repo.ListVariants(ctx, "m2")
	assert.NoError(t, err)
	assert.Len(t, v2, 1)
}

func TestInMemoryProfileRepo_MissingSubscriptionIsNilNil(t *testing.T) {
	repo := NewInMemoryProfileRepo()
	sub, err := repo.GetSubscription(context.Background(), "p1", models.ChannelEmail)
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestInMemoryProfileRepo_SubscriptionRoundTrip(t *testing.T) {
	repo := NewInMemoryProfileRepo()
	ctx := context.Background()

	assert.NoError(t, repo.UpsertSubscription(ctx, &models.ChannelSubscription{
		ProfileID: "p1",
		Channel:   models.ChannelEmail,
		Status:    models.StatusSubscribed,
	}))

	sub, err := repo.GetSubscription(ctx, "p1", models.ChannelEmail)
	assert.NoError(t, err)
	assert.NotNil(t, sub)
	assert.Equal(t, models.StatusSubscribed, sub.Status)

	// Other channels stay absent.
	sub, err = repo.GetSubscription(ctx, "p1", models.ChannelSMS)
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestInMemoryDecisionRepo_InsertionOrder(t *testing.T) {
	repo := NewInMemoryDecisionRepo()
	ctx := context.Background()

	for _, id := range []string{"d1", "d2", "d3"} {
		assert.NoError(t, repo.Insert(ctx, &models.AgentDecision{ID: id, AccountID: "acc", AgentID: "a1"}))
	}

	list, err := repo.ListAll(ctx, "acc")
	assert.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "d1", list[0].ID)
	assert.Equal(t, "d3", list[2].ID)
}

func TestInMemoryEventStore_RangeIsClosed(t *testing.T) {
	store := NewInMemoryEventStore()
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{-time.Hour, 0, time.Hour, 48 * time.Hour} {
		_ = store.Append(ctx, &models.Event{
			ID:         string(rune('a' + i)),
			AccountID:  "acc",
			Type:       models.EventPageView,
			OccurredAt: base.Add(offset),
		})
	}

	got, err := store.ListRange(ctx, "acc", base, base.Add(time.Hour))
	assert.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestInMemoryEventStore_ListByProfile(t *testing.T) {
	store := NewInMemoryEventStore()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = store.Append(ctx, &models.Event{ID: "e1", AccountID: "acc", ProfileID: "p1", OccurredAt: now})
	_ = store.Append(ctx, &models.Event{ID: "e2", AccountID: "acc", ProfileID: "p2", OccurredAt: now})
	_ = store.Append(ctx, &models.Event{ID: "e3", AccountID: "acc", ProfileID: "p1", OccurredAt: now.AddDate(0, 0, -200)})

	got, err := store.ListByProfile(ctx, "p1", now.AddDate(0, 0, -90))
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}
