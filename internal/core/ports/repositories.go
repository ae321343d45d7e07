// Package ports defines interfaces for dependency inversion.
// Following Hexagonal Architecture: core defines contracts, adapters implement them.
package ports

import (
	"context"
	"time"

	"messenger-inbox/internal/adapters/dto"
	"messenger-inbox/internal/core/domain"
)

// IntegrationRepository reads integration configuration. Integrations are
// administered outside this core and treated as read-only here.
type IntegrationRepository interface {
	// ListByApp returns all integrations of the given kind owned by one app.
	ListByApp(ctx context.Context, kind, appID string) ([]domain.Integration, error)

	// GetIntegration returns a single integration, or nil when it does not exist.
	GetIntegration(ctx context.Context, id int64) (*domain.Integration, error)
}

// ConversationRepository handles conversation threading.
type ConversationRepository interface {
	// FindOpenThread returns the non-closed conversation for a canonical
	// unordered pair key, or nil when no such thread exists.
	FindOpenThread(ctx context.Context, integrationID int64, kind, pairKey string) (*domain.Conversation, error)

	// CreateConversation inserts a new conversation and returns its id. When a concurrent
	// delivery already created the thread for the same pair, the insert must
	// resolve to the existing row's id instead of failing or duplicating.
	CreateConversation(ctx context.Context, conv *domain.Conversation) (int64, error)

	// ResetReadUsers clears the read-by set, re-opening visibility of the
	// thread for all prior readers.
	ResetReadUsers(ctx context.Context, id int64) error

	// GetConversation returns a conversation, or nil when it does not exist.
	GetConversation(ctx context.Context, id int64) (*domain.Conversation, error)
}

// CustomerRepository handles customer identity records.
type CustomerRepository interface {
	// FindByFacebookID returns the customer for (integration, Facebook user),
	// or nil when none exists.
	FindByFacebookID(ctx context.Context, integrationID int64, fbUserID string) (*domain.Customer, error)

	// CreateCustomer inserts a customer and returns its id. A concurrent insert for
	// the same (integration, Facebook user) must resolve to the existing row.
	CreateCustomer(ctx context.Context, c *domain.Customer) (int64, error)
}

// MessageRepository appends messages. Messages are never mutated or deleted.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *domain.Message) (int64, error)
}

// WebhookRepository persists the raw delivery audit trail.
type WebhookRepository interface {
	SaveLog(ctx context.Context, log *domain.WebhookLog) error
}

// DedupRepository guards against platform redelivery of already-processed events.
type DedupRepository interface {
	// IsDuplicate reports whether an event id was already processed.
	IsDuplicate(ctx context.Context, eventID string) (bool, error)

	// MarkProcessed records an event id with a TTL so old entries expire.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error
}

// GraphGateway is the outbound Facebook Graph API surface consumed by the
// core. Each credential-chain hop is a separate call so callers can time out
// or retry them individually.
type GraphGateway interface {
	// PageAccessToken exchanges a user/app access token for the page-scoped
	// token of one page.
	PageAccessToken(ctx context.Context, pageID, userToken string) (string, error)

	// UserProfile fetches a Messenger user's profile with a page token.
	UserProfile(ctx context.Context, userID, pageToken string) (*dto.UserProfile, error)

	// SendMessage posts a text reply to a page-scoped recipient.
	SendMessage(ctx context.Context, pageToken, recipientID, text string) (*dto.SendResponse, error)
}
