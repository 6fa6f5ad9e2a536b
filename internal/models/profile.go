package models

import (
	"time"
)

// ===========================================
// PROFILE
// ===========================================

// Profile is a contact record.
type Profile struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`

	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`

	Properties map[string]string `json:"properties,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name for display.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

// ===========================================
// CHANNEL SUBSCRIPTION
// ===========================================

// SubscriptionStatus is the stored consent state for one channel.
type SubscriptionStatus string

const (
	StatusSubscribed   SubscriptionStatus = "subscribed"
	StatusUnsubscribed SubscriptionStatus = "unsubscribed"
	StatusBounced      SubscriptionStatus = "bounced"
	StatusPending      SubscriptionStatus = "pending"
)

// ChannelSubscription records a profile's consent state on a channel.
// Absence of a row for a (profile, channel) pair implies pending; that
// default is applied by console.NormalizeSubscription, never here.
type ChannelSubscription struct {
	ProfileID string             `json:"profile_id"`
	Channel   Channel            `json:"channel"`
	Status    SubscriptionStatus `json:"status"`
	IsPrimary bool               `json:"is_primary"`

	UpdatedAt time.Time `json:"updated_at"`
}
