// Package domain contains core business entities.
// Following Hexagonal Architecture: these models are infrastructure-agnostic.
package domain

import (
	"strings"
	"time"
)

// Integration kinds. Only Facebook integrations are processed by this core.
const (
	IntegrationKindFacebook = "facebook"
)

// Facebook data kinds distinguish messenger threads from other page activity
// (feed comments etc., out of scope here).
const (
	FacebookKindMessenger = "messenger"
)

// Integration is the configuration record linking an internal inbox to a set
// of Facebook pages owned by one app. Created by an administrator elsewhere;
// read-only in this core.
type Integration struct {
	ID        int64     `json:"id" db:"id"`
	Kind      string    `json:"kind" db:"kind"`
	AppID     string    `json:"app_id" db:"fb_app_id"`
	PageIDs   []string  `json:"page_ids" db:"fb_page_ids"` // JSON column
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// OwnsPage reports whether the given page id is in the integration's page list.
// Deliveries for pages outside this list must not be processed (cross-tenant guard).
func (i *Integration) OwnsPage(pageID string) bool {
	for _, id := range i.PageIDs {
		if id == pageID {
			return true
		}
	}
	return false
}

// ConversationStatus constants. Closed conversations are never reused.
const (
	ConversationStatusNew    = "new"
	ConversationStatusOpen   = "open"
	ConversationStatusClosed = "closed"
)

// FacebookThread is the platform sub-object stored on a conversation.
type FacebookThread struct {
	Kind        string `json:"kind" db:"fb_kind"`
	SenderID    string `json:"sender_id" db:"fb_sender_id"`
	RecipientID string `json:"recipient_id" db:"fb_recipient_id"`
	PageID      string `json:"page_id" db:"fb_page_id"`
}

// Conversation is a thread of messages between one customer and one page.
// For a given integration at most one non-closed conversation exists per
// unordered {senderId, recipientId} pair under the messenger kind; the
// canonical PairKey is the uniqueness and lookup key.
type Conversation struct {
	ID            int64          `json:"id" db:"id"`
	Content       string         `json:"content" db:"content"` // snapshot of the opening message
	IntegrationID int64          `json:"integration_id" db:"integration_id"`
	CustomerID    int64          `json:"customer_id" db:"customer_id"`
	Status        string         `json:"status" db:"status"`
	Facebook      FacebookThread `json:"facebook"`
	ReadUserIDs   []string       `json:"read_user_ids" db:"read_user_ids"` // JSON column
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty" db:"updated_at"`
}

// PairKey canonicalizes an unordered {senderID, recipientID} pair into a single
// lookup key, so the two possible orderings of the same thread collapse into
// one row instead of a two-branch OR query.
func PairKey(senderID, recipientID string) string {
	if strings.Compare(senderID, recipientID) > 0 {
		senderID, recipientID = recipientID, senderID
	}
	return senderID + ":" + recipientID
}

// Customer is an external Messenger contact, unique per
// (integration, Facebook user id). Name and picture are captured once at
// creation and never refreshed afterwards.
type Customer struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	IntegrationID int64     `json:"integration_id" db:"integration_id"`
	FacebookID    string    `json:"facebook_id" db:"fb_user_id"`
	ProfilePic    string    `json:"profile_pic" db:"profile_pic"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Message is a single inbound or outbound utterance. Append-only.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversation_id" db:"conversation_id"`
	CustomerID     int64     `json:"customer_id" db:"customer_id"`
	Content        string    `json:"content" db:"content"`
	Internal       bool      `json:"internal" db:"internal"` // always false for platform-sourced messages
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// WebhookStatus constants for the delivery audit log.
const (
	WebhookStatusPending   = "pending"
	WebhookStatusProcessed = "processed"
	WebhookStatusFailed    = "failed"
)

// WebhookLog is the raw audit trail for incoming deliveries. It exists for
// debugging redeliveries and is purged by the watchdog under disk pressure.
type WebhookLog struct {
	ID          int64     `json:"id" db:"id"`
	Platform    string    `json:"platform" db:"platform"`
	PayloadJSON []byte    `json:"payload_json" db:"payload_json"`
	Status      string    `json:"status" db:"status"`
	ErrorLog    *string   `json:"error_log,omitempty" db:"error_log"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
