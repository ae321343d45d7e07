// Package repository implements data persistence adapters.
// Following Hexagonal Architecture: adapters implement ports defined in core.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"messenger-inbox/internal/core/domain"
	"messenger-inbox/internal/core/ports"
)

// Ensure MySQLRepository implements the required ports.
var (
	_ ports.IntegrationRepository  = (*MySQLRepository)(nil)
	_ ports.ConversationRepository = (*MySQLRepository)(nil)
	_ ports.CustomerRepository     = (*MySQLRepository)(nil)
	_ ports.MessageRepository      = (*MySQLRepository)(nil)
	_ ports.WebhookRepository      = (*MySQLRepository)(nil)
)

// MySQLRepository implements persistence for integrations, conversations,
// customers, messages and the webhook audit log. See schema.sql for the
// uniqueness constraints the find-or-create paths rely on.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository creates a new repository instance.
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// ListByApp returns all integrations of one kind owned by an app.
func (r *MySQLRepository) ListByApp(ctx context.Context, kind, appID string) ([]domain.Integration, error) {
	query := `
		SELECT id, kind, fb_app_id, fb_page_ids, created_at
		FROM integrations
		WHERE kind = ? AND fb_app_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, kind, appID)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	var integs []domain.Integration
	for rows.Next() {
		integ, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		integs = append(integs, *integ)
	}
	return integs, rows.Err()
}

// GetIntegration returns one integration, or nil when it does not exist.
func (r *MySQLRepository) GetIntegration(ctx context.Context, id int64) (*domain.Integration, error) {
	query := `
		SELECT id, kind, fb_app_id, fb_page_ids, created_at
		FROM integrations
		WHERE id = ?
	`

	row := r.db.QueryRowContext(ctx, query, id)
	integ, err := scanIntegration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get integration: %w", err)
	}
	return integ, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntegration(row rowScanner) (*domain.Integration, error) {
	var integ domain.Integration
	var pageIDs []byte
	if err := row.Scan(&integ.ID, &integ.Kind, &integ.AppID, &pageIDs, &integ.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan integration: %w", err)
	}
	if len(pageIDs) > 0 {
		if err := json.Unmarshal(pageIDs, &integ.PageIDs); err != nil {
			return nil, fmt.Errorf("parse page ids: %w", err)
		}
	}
	return &integ, nil
}

// FindOpenThread returns the non-closed messenger conversation for a
// canonical pair key, or nil. open_flag carries the status≠closed part of the
// uniqueness constraint (1 while open, NULL once closed).
func (r *MySQLRepository) FindOpenThread(ctx context.Context, integrationID int64, kind, pairKey string) (*domain.Conversation, error) {
	query := `
		SELECT id, content, integration_id, customer_id, status,
		       fb_kind, fb_sender_id, fb_recipient_id, fb_page_id,
		       read_user_ids, created_at, updated_at
		FROM conversations
		WHERE integration_id = ? AND fb_kind = ? AND pair_key = ? AND open_flag = 1
	`

	row := r.db.QueryRowContext(ctx, query, integrationID, kind, pairKey)
	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open thread: %w", err)
	}
	return conv, nil
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var conv domain.Conversation
	var readUserIDs []byte
	err := row.Scan(
		&conv.ID,
		&conv.Content,
		&conv.IntegrationID,
		&conv.CustomerID,
		&conv.Status,
		&conv.Facebook.Kind,
		&conv.Facebook.SenderID,
		&conv.Facebook.RecipientID,
		&conv.Facebook.PageID,
		&readUserIDs,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	if len(readUserIDs) > 0 {
		if err := json.Unmarshal(readUserIDs, &conv.ReadUserIDs); err != nil {
			return nil, fmt.Errorf("parse read user ids: %w", err)
		}
	}
	return &conv, nil
}

// CreateConversation inserts a conversation. The unique key on
// (integration_id, fb_kind, pair_key, open_flag) turns the losing side of a
// concurrent insert for the same pair into a reuse of the winner's row:
// ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id) makes LastInsertId return
// the existing id.
func (r *MySQLRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) (int64, error) {
	pairKey := domain.PairKey(conv.Facebook.SenderID, conv.Facebook.RecipientID)

	query := `
		INSERT INTO conversations (
			content, integration_id, customer_id, status,
			fb_kind, fb_sender_id, fb_recipient_id, fb_page_id,
			pair_key, open_flag, read_user_ids, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, '[]', ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
	`

	result, err := r.db.ExecContext(ctx, query,
		conv.Content,
		conv.IntegrationID,
		conv.CustomerID,
		conv.Status,
		conv.Facebook.Kind,
		conv.Facebook.SenderID,
		conv.Facebook.RecipientID,
		conv.Facebook.PageID,
		pairKey,
		conv.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("create conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// ResetReadUsers clears the read-by set of a thread.
func (r *MySQLRepository) ResetReadUsers(ctx context.Context, id int64) error {
	query := `
		UPDATE conversations
		SET read_user_ids = '[]', updated_at = NOW()
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("reset read users: %w", err)
	}
	return nil
}

// GetConversation returns one conversation by id, or nil.
func (r *MySQLRepository) GetConversation(ctx context.Context, id int64) (*domain.Conversation, error) {
	query := `
		SELECT id, content, integration_id, customer_id, status,
		       fb_kind, fb_sender_id, fb_recipient_id, fb_page_id,
		       read_user_ids, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`

	row := r.db.QueryRowContext(ctx, query, id)
	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// FindByFacebookID returns the customer for (integration, Facebook user), or nil.
func (r *MySQLRepository) FindByFacebookID(ctx context.Context, integrationID int64, fbUserID string) (*domain.Customer, error) {
	query := `
		SELECT id, name, integration_id, fb_user_id, profile_pic, created_at
		FROM customers
		WHERE integration_id = ? AND fb_user_id = ?
	`

	var c domain.Customer
	err := r.db.QueryRowContext(ctx, query, integrationID, fbUserID).Scan(
		&c.ID,
		&c.Name,
		&c.IntegrationID,
		&c.FacebookID,
		&c.ProfilePic,
		&c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

// CreateCustomer inserts a customer. The unique key on
// (integration_id, fb_user_id) resolves concurrent duplicate inserts to the
// existing row, same idiom as conversation creation.
func (r *MySQLRepository) CreateCustomer(ctx context.Context, c *domain.Customer) (int64, error) {
	query := `
		INSERT INTO customers (name, integration_id, fb_user_id, profile_pic, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
	`

	result, err := r.db.ExecContext(ctx, query,
		c.Name,
		c.IntegrationID,
		c.FacebookID,
		c.ProfilePic,
		c.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// CreateMessage appends one message.
func (r *MySQLRepository) CreateMessage(ctx context.Context, msg *domain.Message) (int64, error) {
	query := `
		INSERT INTO messages (conversation_id, customer_id, content, internal, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		msg.ConversationID,
		msg.CustomerID,
		msg.Content,
		msg.Internal,
		msg.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// SaveLog persists a webhook delivery to the audit log.
func (r *MySQLRepository) SaveLog(ctx context.Context, log *domain.WebhookLog) error {
	query := `
		INSERT INTO webhook_logs (platform, payload_json, status, error_log, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.Platform,
		log.PayloadJSON,
		log.Status,
		log.ErrorLog,
		log.CreatedAt,
	)
	if err != nil {
		slog.Error("Failed to save webhook log", "error", err, "platform", log.Platform)
		return fmt.Errorf("save webhook log: %w", err)
	}
	return nil
}
