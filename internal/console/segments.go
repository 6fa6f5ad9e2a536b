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

// SegmentService manages segments and membership.
type SegmentService struct {
	segments storage.SegmentRepo
	profiles storage.ProfileRepo
	logger   *zap.Logger
}

func NewSegmentService(segments storage.SegmentRepo, profiles storage.ProfileRepo, logger *zap.Logger) *SegmentService {
	return &SegmentService{segments: segments, profiles: profiles, logger: logger}
}

func (s *SegmentService) List(ctx context.Context, accountID string) ([]*models.Segment, error) {
	return s.segments.ListAll(ctx, accountID)
}

func (s *SegmentService) Get(ctx context.Context, id string) (*models.Segment, error) {
	return s.segments.GetByID(ctx, id)
}

func (s *SegmentService) Save(ctx context.Context, seg *models.Segment) error {
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = now
	}
	seg.UpdatedAt = now

	if err := seg.Validate(); err != nil {
		return fmt.Errorf("invalid segment: %w", err)
	}
	if err := s.segments.Upsert(ctx, seg); err != nil {
		return fmt.Errorf("save segment: %w", err)
	}
	return nil
}

// Delete removes a segment; the repository cascades the membership
// rows.
func (s *SegmentService) Delete(ctx context.Context, id string) error {
	return s.segments.Delete(ctx, id)
}

func (s *SegmentService) ListMembers(ctx context.Context, segmentID string) ([]*models.SegmentProfile, error) {
	return s.segments.ListMembers(ctx, segmentID)
}

// AddMember places a profile into a segment. Both sides must exist.
func (s *SegmentService) AddMember(ctx context.Context, segmentID, profileID string) error {
	seg, err := s.segments.GetByID(ctx, segmentID)
	if err != nil {
		return fmt.Errorf("check segment: %w", err)
	}
	if seg == nil {
		return fmt.Errorf("unknown segment %q", segmentID)
	}

	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("check profile: %w", err)
	}
	if p == nil {
		return fmt.Errorf("unknown profile %q", profileID)
	}

	return s.segments.AddMember(ctx, &models.SegmentProfile{
		SegmentID: segmentID,
		ProfileID: profileID,
		AddedAt:   time.Now().UTC(),
	})
}

func (s *SegmentService) RemoveMember(ctx context.Context, segmentID, profileID string) error {
	return s.segments.RemoveMember(ctx, segmentID, profileID)
}
