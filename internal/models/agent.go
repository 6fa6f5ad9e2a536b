package models

import (
	"errors"
	"fmt"
	"time"
)

// ===========================================
// AGENT
// ===========================================

// SendFrequency controls how often an agent may message a profile.
type SendFrequency string

const (
	FrequencyDaily   SendFrequency = "daily"
	FrequencyWeekly  SendFrequency = "weekly"
	FrequencyMonthly SendFrequency = "monthly"
)

// TimeWindow is a local-time window in which an agent may send,
// expressed as "HH:MM" strings.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Agent is a decisioning configuration: which segment it watches,
// which message category it draws from, and when it is allowed to
// send.
type Agent struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`

	SegmentID         string `json:"segment_id"`
	MessageCategoryID string `json:"message_category_id"`

	IsActive          bool          `json:"is_active"`
	HoldoutPercentage float64       `json:"holdout_percentage"`
	SendFrequency     SendFrequency `json:"send_frequency"`
	SendDays          []string      `json:"send_days,omitempty"`
	SendTimeWindows   []TimeWindow  `json:"send_time_windows,omitempty"`

	// OutcomeMappings rank event types from worst to best. The four
	// ranks must map to four distinct event types.
	OutcomeMappings []OutcomeMapping `json:"outcome_mappings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks agent configuration before it is written. The
// distinct-outcome invariant is enforced here, at the data-access
// boundary, so a direct API write cannot violate it.
func (a *Agent) Validate() error {
	if a.ID == "" {
		return errors.New("agent id is required")
	}
	if a.SegmentID == "" {
		return errors.New("segment_id is required")
	}
	if a.HoldoutPercentage < 0 || a.HoldoutPercentage > 100 {
		return fmt.Errorf("holdout_percentage must be within [0,100], got %v", a.HoldoutPercentage)
	}
	switch a.SendFrequency {
	case "", FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("unknown send_frequency %q", a.SendFrequency)
	}
	return a.validateOutcomeMappings()
}

func (a *Agent) validateOutcomeMappings() error {
	if len(a.OutcomeMappings) == 0 {
		return nil
	}
	if len(a.OutcomeMappings) != len(AllOutcomes) {
		return fmt.Errorf("expected %d outcome mappings, got %d", len(AllOutcomes), len(a.OutcomeMappings))
	}

	seenOutcome := make(map[Outcome]bool, len(a.OutcomeMappings))
	seenType := make(map[EventType]bool, len(a.OutcomeMappings))
	for _, m := range a.OutcomeMappings {
		if seenOutcome[m.Outcome] {
			return fmt.Errorf("duplicate outcome rank %q", m.Outcome)
		}
		if seenType[m.EventType] {
			return fmt.Errorf("outcome ranks must map to distinct event types, %q used twice", m.EventType)
		}
		seenOutcome[m.Outcome] = true
		seenType[m.EventType] = true
	}
	return nil
}
