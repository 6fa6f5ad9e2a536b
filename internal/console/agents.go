// Package console implements the decisioning console's application
// services: entity management, event ingestion and the dashboard
// aggregations, on top of the storage interfaces.
package console

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumora/signal-console/internal/metrics"
	"github.com/lumora/signal-console/internal/models"
	"github.com/lumora/signal-console/internal/storage"
)

// AgentService manages decisioning agents and their decision log.
type AgentService struct {
	agents    storage.AgentRepo
	segments  storage.SegmentRepo
	decisions storage.DecisionRepo
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewAgentService(agents storage.AgentRepo, segments storage.SegmentRepo, decisions storage.DecisionRepo, logger *zap.Logger, m *metrics.Metrics) *AgentService {
	return &AgentService{
		agents:    agents,
		segments:  segments,
		decisions: decisions,
		logger:    logger,
		metrics:   m,
	}
}

func (s *AgentService) List(ctx context.Context, accountID string) ([]*models.Agent, error) {
	return s.agents.ListAll(ctx, accountID)
}

func (s *AgentService) Get(ctx context.Context, id string) (*models.Agent, error) {
	return s.agents.GetByID(ctx, id)
}

// Save validates and upserts an agent. Validation runs here at the
// write boundary, so a direct API write cannot persist an agent whose
// outcome mappings collide.
func (s *AgentService) Save(ctx context.Context, a *models.Agent) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid agent: %w", err)
	}

	if a.SegmentID != "" {
		seg, err := s.segments.GetByID(ctx, a.SegmentID)
		if err != nil {
			return fmt.Errorf("check segment: %w", err)
		}
		if seg == nil {
			return fmt.Errorf("agent references unknown segment %q", a.SegmentID)
		}
	}

	if err := s.agents.Upsert(ctx, a); err != nil {
		return fmt.Errorf("save agent: %w", err)
	}

	s.logger.Info("agent saved",
		zap.String("agent_id", a.ID),
		zap.String("segment_id", a.SegmentID),
		zap.Bool("active", a.IsActive),
	)
	return nil
}

func (s *AgentService) Delete(ctx context.Context, id string) error {
	return s.agents.Delete(ctx, id)
}

// RecordDecision appends one decisioning pass to the log.
func (s *AgentService) RecordDecision(ctx context.Context, d *models.AgentDecision) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.DecisionedAt.IsZero() {
		d.DecisionedAt = time.Now().UTC()
	}
	if d.AgentID == "" {
		return fmt.Errorf("decision requires an agent_id")
	}
	if d.ProfileID == "" {
		return fmt.Errorf("decision requires a profile_id")
	}

	if err := s.decisions.Insert(ctx, d); err != nil {
		return fmt.Errorf("record decision: %w", err)
	}

	outcome := "sent"
	switch {
	case d.IsHoldout:
		outcome = "holdout"
	case d.SendError != "":
		outcome = "error"
	case !d.WasSent:
		outcome = "skipped"
	}
	s.metrics.RecordDecision(d.AgentID, outcome)
	return nil
}

func (s *AgentService) ListDecisions(ctx context.Context, accountID string) ([]*models.AgentDecision, error) {
	return s.decisions.ListAll(ctx, accountID)
}

func (s *AgentService) ListDecisionsByAgent(ctx context.Context, agentID string) ([]*models.AgentDecision, error) {
	return s.decisions.ListByAgent(ctx, agentID)
}
