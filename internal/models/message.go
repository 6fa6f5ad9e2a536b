package models

import (
	"errors"
	"time"
)

// ===========================================
// MESSAGE
// ===========================================

// Message is a piece of reusable content an agent can send. The
// channel-specific payloads live on its variants.
type Message struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id,omitempty"`
	Status     string `json:"status,omitempty"` // draft, active, archived

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks message fields before save.
func (m *Message) Validate() error {
	if m.ID == "" {
		return errors.New("message id is required")
	}
	if m.Name == "" {
		return errors.New("message name is required")
	}
	return nil
}

// ===========================================
// MESSAGE VARIANT
// ===========================================

// MessageVariant carries the channel-specific payload for a message.
type MessageVariant struct {
	ID        string  `json:"id"`
	MessageID string  `json:"message_id"`
	Channel   Channel `json:"channel"`

	Subject    string `json:"subject,omitempty"` // email only
	Body       string `json:"body"`
	PreviewURL string `json:"preview_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks variant fields before save.
func (v *MessageVariant) Validate() error {
	if v.ID == "" {
		return errors.New("variant id is required")
	}
	if v.MessageID == "" {
		return errors.New("variant message_id is required")
	}
	switch v.Channel {
	case ChannelEmail, ChannelSMS, ChannelPush:
	default:
		return errors.New("variant channel must be email, sms or push")
	}
	return nil
}
