package models

import (
	"errors"
	"time"
)

// ===========================================
// SEGMENT
// ===========================================

// Segment is a named set of profiles. Membership is stored as
// SegmentProfile rows.
type Segment struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"` // active, archived

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks segment fields before save.
func (s *Segment) Validate() error {
	if s.ID == "" {
		return errors.New("segment id is required")
	}
	if s.Name == "" {
		return errors.New("segment name is required")
	}
	return nil
}

// SegmentProfile is a membership row.
type SegmentProfile struct {
	SegmentID string    `json:"segment_id"`
	ProfileID string    `json:"profile_id"`
	AddedAt   time.Time `json:"added_at"`
}
