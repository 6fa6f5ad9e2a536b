package storage

import (
	"context"
	"time"

	"github.com/lumora/signal-console/internal/models"
)

// Repositories return (nil, nil) on a missing id rather than an error.

// =============================================
// AGENT REPOSITORY
// =============================================

// AgentRepo defines operations for agent storage.
type AgentRepo interface {
	ListAll(ctx context.Context, accountID string) ([]*models.Agent, error)
	GetByID(ctx context.Context, id string) (*models.Agent, error)
	Upsert(ctx context.Context, a *models.Agent) error
	Delete(ctx context.Context, id string) error
}

// =============================================
// SEGMENT REPOSITORY
// =============================================

// SegmentRepo defines operations for segments and their membership
// rows.
type SegmentRepo interface {
	ListAll(ctx context.Context, accountID string) ([]*models.Segment, error)
	GetByID(ctx context.Context, id string) (*models.Segment, error)
	Upsert(ctx context.Context, s *models.Segment) error
	Delete(ctx context.Context, id string) error

	ListMembers(ctx context.Context, segmentID string) ([]*models.SegmentProfile, error)
	AddMember(ctx context.Context, m *models.SegmentProfile) error
	RemoveMember(ctx context.Context, segmentID, profileID string) error
}

// =============================================
// MESSAGE REPOSITORY
// =============================================

// MessageRepo defines operations for messages and their variants.
type MessageRepo interface {
	ListAll(ctx context.Context, accountID string) ([]*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	Upsert(ctx context.Context, m *models.Message) error
	Delete(ctx context.Context, id string) error

	ListVariants(ctx context.Context, messageID string) ([]*models.MessageVariant, error)
	UpsertVariant(ctx context.Context, v *models.MessageVariant) error
	DeleteVariant(ctx context.Context, id string) error
	DeleteVariantsByMessage(ctx context.Context, messageID string) error
}

// =============================================
// PROFILE REPOSITORY
// =============================================

// ProfileRepo defines operations for profiles and channel
// subscriptions. GetSubscription returns (nil, nil) when no row exists
// for the (profile, channel) pair; that absence means pending and is
// normalized by the console layer, not here.
type ProfileRepo interface {
	ListAll(ctx context.Context, accountID string) ([]*models.Profile, error)
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	Delete(ctx context.Context, id string) error

	ListSubscriptions(ctx context.Context, profileID string) ([]*models.ChannelSubscription, error)
	GetSubscription(ctx context.Context, profileID string, ch models.Channel) (*models.ChannelSubscription, error)
	UpsertSubscription(ctx context.Context, sub *models.ChannelSubscription) error
}

// =============================================
// DECISION REPOSITORY
// =============================================

// DecisionRepo defines operations for agent decision logs.
type DecisionRepo interface {
	ListAll(ctx context.Context, accountID string) ([]*models.AgentDecision, error)
	ListByAgent(ctx context.Context, agentID string) ([]*models.AgentDecision, error)
	GetByID(ctx context.Context, id string) (*models.AgentDecision, error)
	Insert(ctx context.Context, d *models.AgentDecision) error
}

// =============================================
// EVENT STORE
// =============================================

// EventStore defines operations for the append-only event stream.
type EventStore interface {
	Append(ctx context.Context, ev *models.Event) error
	// ListRange returns events for an account inside the closed
	// interval [start, end].
	ListRange(ctx context.Context, accountID string, start, end time.Time) ([]*models.Event, error)
	ListByProfile(ctx context.Context, profileID string, since time.Time) ([]*models.Event, error)
}
