package models

import (
	"time"
)

// ===========================================
// EVENT TYPES
// ===========================================

// EventType identifies what happened. Events are append-only and are
// never mutated after creation.
type EventType string

const (
	EventPageView         EventType = "page_view"
	EventSessionStart     EventType = "session_start"
	EventCheckoutStarted  EventType = "checkout_started"
	EventPurchase         EventType = "purchase"
	EventProfileCreated   EventType = "profile_created"
	EventMessageSent      EventType = "message_sent"
	EventMessageDelivered EventType = "message_delivered"
	EventMessageOpened    EventType = "message_opened"
	EventMessageClicked   EventType = "message_clicked"
	EventMessageBounced   EventType = "message_bounced"
	EventUnsubscribed     EventType = "unsubscribed"
)

// WebEventTypes are the types charted on the web analytics dashboard.
var WebEventTypes = []EventType{
	EventPageView,
	EventSessionStart,
	EventCheckoutStarted,
	EventPurchase,
}

// MessagingEventTypes are the types charted on the messaging dashboard.
var MessagingEventTypes = []EventType{
	EventMessageSent,
	EventMessageDelivered,
	EventMessageOpened,
	EventMessageClicked,
	EventMessageBounced,
	EventUnsubscribed,
}

// ===========================================
// CHANNELS
// ===========================================

// Channel is a message delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// AllChannels lists every supported delivery channel.
var AllChannels = []Channel{ChannelEmail, ChannelSMS, ChannelPush}

// ===========================================
// EVENT
// ===========================================

// Event is a single raw marketing event. Created by instrumentation
// outside this system; read-only here.
type Event struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       EventType `json:"event_type"`

	Channel   Channel `json:"channel,omitempty"`
	AgentID   string  `json:"agent_id,omitempty"`
	MessageID string  `json:"message_id,omitempty"`
	ProfileID string  `json:"profile_id,omitempty"`
	ProductID string  `json:"product_id,omitempty"`
	OrderID   string  `json:"order_id,omitempty"`

	Revenue  float64 `json:"revenue,omitempty"`
	Currency string  `json:"currency,omitempty"`

	PageURL string `json:"page_url,omitempty"`

	Properties map[string]string `json:"properties,omitempty"`
}

// ===========================================
// AGENT DECISION
// ===========================================

// AgentDecision is one row per decisioning pass of an agent over a
// profile: which message/variant/channel was chosen, or why nothing
// was sent.
type AgentDecision struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	AgentID   string `json:"agent_id"`
	ProfileID string `json:"profile_id"`

	MessageID        string  `json:"message_id,omitempty"`
	MessageVariantID string  `json:"message_variant_id,omitempty"`
	Channel          Channel `json:"channel,omitempty"`

	IsHoldout bool   `json:"is_holdout"`
	WasSent   bool   `json:"was_sent"`
	SendError string `json:"send_error,omitempty"`

	ScheduledSendAt *time.Time `json:"scheduled_send_at,omitempty"`
	DecisionedAt    time.Time  `json:"decisioned_at"`
	Reasoning       string     `json:"reasoning,omitempty"`
}

// ===========================================
// OUTCOME MAPPING
// ===========================================

// Outcome ranks how desirable an event type is for an agent.
type Outcome string

const (
	OutcomeWorst    Outcome = "worst"
	OutcomeGood     Outcome = "good"
	OutcomeVeryGood Outcome = "very_good"
	OutcomeBest     Outcome = "best"
)

// AllOutcomes lists the four outcome ranks an agent must map.
var AllOutcomes = []Outcome{OutcomeWorst, OutcomeGood, OutcomeVeryGood, OutcomeBest}

// OutcomeMapping ties one of the four outcome ranks to an event type.
// Static configuration, not computed.
type OutcomeMapping struct {
	AgentID   string    `json:"agent_id"`
	EventType EventType `json:"event_type"`
	Outcome   Outcome   `json:"outcome"`
	Weight    float64   `json:"weight,omitempty"`
}
