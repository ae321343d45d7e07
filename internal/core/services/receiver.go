// Package services contains core business logic.
// Following Hexagonal Architecture: services orchestrate domain logic using ports.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"messenger-inbox/internal/adapters/dto"
	"messenger-inbox/internal/config"
	"messenger-inbox/internal/core/domain"
	"messenger-inbox/internal/core/ports"
)

// dedupTTL is how long processed message ids are remembered. Facebook
// redelivers on timeout within minutes; 24 hours leaves a wide margin.
const dedupTTL = 24 * time.Hour

// Receiver ingests webhook deliveries: it resolves each messaging event to a
// conversation and customer and appends the inbound message.
type Receiver struct {
	integrations  ports.IntegrationRepository
	conversations ports.ConversationRepository
	customers     ports.CustomerRepository
	messages      ports.MessageRepository
	webhooks      ports.WebhookRepository
	dedup         ports.DedupRepository
	graph         ports.GraphGateway
}

// NewReceiver creates a receiver with all dependencies injected.
func NewReceiver(
	integrations ports.IntegrationRepository,
	conversations ports.ConversationRepository,
	customers ports.CustomerRepository,
	messages ports.MessageRepository,
	webhooks ports.WebhookRepository,
	dedup ports.DedupRepository,
	graph ports.GraphGateway,
) *Receiver {
	return &Receiver{
		integrations:  integrations,
		conversations: conversations,
		customers:     customers,
		messages:      messages,
		webhooks:      webhooks,
		dedup:         dedup,
		graph:         graph,
	}
}

// ProcessDelivery handles one raw webhook delivery addressed to one app.
// Every integration owned by the app gets its own ingest pass; a failure or
// panic in one pass is logged and must not stop the siblings. The webhook
// endpoint answers success regardless, so nothing is returned to the platform.
func (s *Receiver) ProcessDelivery(ctx context.Context, app config.FacebookApp, payload []byte) {
	status := domain.WebhookStatusProcessed
	var firstErr error

	var delivery dto.WebhookPayload
	if err := json.Unmarshal(payload, &delivery); err != nil {
		slog.Error("Failed to parse webhook payload", "app_id", app.ID, "error", err)
		s.saveAuditLog(ctx, payload, domain.WebhookStatusFailed, err)
		return
	}

	integs, err := s.integrations.ListByApp(ctx, domain.IntegrationKindFacebook, app.ID)
	if err != nil {
		slog.Error("Failed to list integrations", "app_id", app.ID, "error", err)
		s.saveAuditLog(ctx, payload, domain.WebhookStatusFailed, err)
		return
	}

	for _, integ := range integs {
		if err := s.processIntegration(ctx, app, &integ, &delivery); err != nil {
			slog.Error("Integration processing failed",
				"integration_id", integ.ID,
				"app_id", app.ID,
				"error", err,
			)
			if firstErr == nil {
				status = domain.WebhookStatusFailed
				firstErr = err
			}
		}
	}

	s.saveAuditLog(ctx, payload, status, firstErr)
}

// processIntegration runs one ingest pass. Panics are converted to errors so
// one misbehaving integration cannot take down the delivery.
func (s *Receiver) processIntegration(ctx context.Context, app config.FacebookApp, integ *domain.Integration, delivery *dto.WebhookPayload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in integration %d: %v", integ.ID, r)
		}
	}()

	if delivery.Object != "page" {
		return nil
	}

	for _, entry := range delivery.Entry {
		// Authorization by ownership: a page outside the integration's
		// configured list must not leak into its conversations.
		if !integ.OwnsPage(entry.ID) {
			continue
		}

		for i := range entry.Messaging {
			event := &entry.Messaging[i]
			if !event.IsUserMessage() {
				continue
			}
			if err := s.ingestMessage(ctx, app, integ, entry.ID, event); err != nil {
				return err
			}
		}
	}

	return nil
}

// ingestMessage resolves one messaging event into conversation, customer and
// message records.
func (s *Receiver) ingestMessage(ctx context.Context, app config.FacebookApp, integ *domain.Integration, pageID string, event *dto.MessagingEvent) error {
	messageID := event.MessageID()

	// Scoped per integration: two integrations owning the same page each get
	// their own pass over the same delivery.
	dedupID := fmt.Sprintf("%d:%s", integ.ID, messageID)

	isDup, err := s.dedup.IsDuplicate(ctx, dedupID)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if isDup {
		slog.Info("Duplicate delivery, skipping", "message_id", messageID)
		return nil
	}

	conv, err := s.resolveConversation(ctx, app, integ, pageID, event)
	if err != nil {
		return err
	}

	customerID, err := s.resolveCustomer(ctx, app, integ, pageID, event.Sender.ID)
	if err != nil {
		return err
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		CustomerID:     customerID,
		Content:        event.Message.Text,
		Internal:       false,
		CreatedAt:      time.Now(),
	}
	if _, err := s.messages.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	if err := s.dedup.MarkProcessed(ctx, dedupID, dedupTTL); err != nil {
		// The message is already saved; a dedup miss only risks a redundant
		// lookup on redelivery.
		slog.Warn("Failed to mark message in dedup cache", "message_id", messageID, "error", err)
	}

	slog.Info("Message ingested",
		"message_id", messageID,
		"conversation_id", conv.ID,
		"customer_id", customerID,
	)
	return nil
}

// resolveConversation finds the open thread for the event's sender/recipient
// pair or creates one. The pair is canonicalized, so both orderings of the
// same two parties land on one thread. Reuse clears the read-by set.
func (s *Receiver) resolveConversation(ctx context.Context, app config.FacebookApp, integ *domain.Integration, pageID string, event *dto.MessagingEvent) (*domain.Conversation, error) {
	senderID := event.Sender.ID
	recipientID := event.Recipient.ID
	pairKey := domain.PairKey(senderID, recipientID)

	conv, err := s.conversations.FindOpenThread(ctx, integ.ID, domain.FacebookKindMessenger, pairKey)
	if err != nil {
		return nil, fmt.Errorf("find thread: %w", err)
	}

	if conv != nil {
		if err := s.conversations.ResetReadUsers(ctx, conv.ID); err != nil {
			return nil, fmt.Errorf("reset read users: %w", err)
		}
		conv.ReadUserIDs = nil
		return conv, nil
	}

	customerID, err := s.resolveCustomer(ctx, app, integ, pageID, senderID)
	if err != nil {
		return nil, err
	}

	conv = &domain.Conversation{
		Content:       event.Message.Text,
		IntegrationID: integ.ID,
		CustomerID:    customerID,
		Status:        domain.ConversationStatusNew,
		Facebook: domain.FacebookThread{
			Kind:        domain.FacebookKindMessenger,
			SenderID:    senderID,
			RecipientID: recipientID,
			PageID:      pageID,
		},
		CreatedAt: time.Now(),
	}

	id, err := s.conversations.CreateConversation(ctx, conv)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	conv.ID = id

	slog.Info("Conversation opened",
		"conversation_id", id,
		"integration_id", integ.ID,
		"page_id", pageID,
	)
	return conv, nil
}

// resolveCustomer finds the customer for a Facebook user or creates one. On
// creation the credential chain runs hop by hop: the app's user token buys the
// page token, the page token buys the profile. Either hop failing propagates
// as a PlatformError and aborts the enclosing event.
func (s *Receiver) resolveCustomer(ctx context.Context, app config.FacebookApp, integ *domain.Integration, pageID, fbUserID string) (int64, error) {
	customer, err := s.customers.FindByFacebookID(ctx, integ.ID, fbUserID)
	if err != nil {
		return 0, fmt.Errorf("find customer: %w", err)
	}
	if customer != nil {
		return customer.ID, nil
	}

	pageToken, err := s.graph.PageAccessToken(ctx, pageID, app.AccessToken)
	if err != nil {
		return 0, err
	}

	profile, err := s.graph.UserProfile(ctx, fbUserID, pageToken)
	if err != nil {
		return 0, err
	}

	id, err := s.customers.CreateCustomer(ctx, &domain.Customer{
		Name:          profile.FullName(),
		IntegrationID: integ.ID,
		FacebookID:    fbUserID,
		ProfilePic:    profile.ProfilePic,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}

	slog.Info("Customer created",
		"customer_id", id,
		"integration_id", integ.ID,
		"fb_user_id", fbUserID,
	)
	return id, nil
}

// saveAuditLog appends the raw delivery to the audit trail, best-effort.
func (s *Receiver) saveAuditLog(ctx context.Context, payload []byte, status string, cause error) {
	entry := &domain.WebhookLog{
		Platform:    domain.IntegrationKindFacebook,
		PayloadJSON: payload,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	if cause != nil {
		msg := cause.Error()
		entry.ErrorLog = &msg
	}
	if err := s.webhooks.SaveLog(ctx, entry); err != nil {
		slog.Error("Failed to save webhook audit log", "error", err)
	}
}
