// Package db keeps conversations and the catalog in MySQL.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront-assistant/internal/model"
	"storefront-assistant/internal/store"
)

// Repository is a MySQL-backed store.Store.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// Open connects with a go-sql-driver/mysql DSN and creates missing tables.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Repository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &Repository{db: db, log: log.With().Str("component", "mysql").Logger(), now: time.Now}
	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

var schema = []struct{ table, ddl string }{
	{"conversations", `
	CREATE TABLE IF NOT EXISTS conversations (
		id VARCHAR(36) PRIMARY KEY,
		owner VARCHAR(64) NOT NULL DEFAULT '',
		title VARCHAR(255) NOT NULL,
		pinned BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_conversations_owner (owner, pinned, created_at)
	)`},
	{"messages", `
	CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(36) PRIMARY KEY,
		conversation_id VARCHAR(36) NOT NULL,
		sender VARCHAR(8) NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_messages_conversation (conversation_id, created_at)
	)`},
	{"categories", `
	CREATE TABLE IF NOT EXISTS categories (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		url VARCHAR(255) NOT NULL DEFAULT ''
	)`},
	{"products", `
	CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		category VARCHAR(100) NOT NULL,
		base_price DECIMAL(10,2) NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		status VARCHAR(16) NOT NULL DEFAULT 'approved',
		is_offer BOOLEAN NOT NULL DEFAULT FALSE,
		discount_percent INT NOT NULL DEFAULT 0,
		offer_start DATETIME NULL,
		offer_end DATETIME NULL,
		rating DECIMAL(3,2) NOT NULL DEFAULT 0,
		url VARCHAR(255) NOT NULL DEFAULT '',
		image VARCHAR(255) NOT NULL DEFAULT '',
		search_terms TEXT NULL
	)`},
}

func (r *Repository) initSchema(ctx context.Context) error {
	r.log.Info().Msg("initializing schema")
	for _, s := range schema {
		if _, err := r.db.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.table, err)
		}
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
}

func (r *Repository) CreateConversation(ctx context.Context, owner string) (*model.Conversation, error) {
	c := &model.Conversation{
		ID:        uuid.New().String(),
		Owner:     owner,
		Title:     model.DefaultConversationTitle,
		CreatedAt: r.now().UTC(),
	}
	query := `INSERT INTO conversations (id, owner, title, pinned, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Owner, c.Title, c.Pinned, c.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return c, nil
}

func (r *Repository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	query := `SELECT id, owner, title, pinned, created_at FROM conversations WHERE id = ?`
	var c model.Conversation
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Owner, &c.Title, &c.Pinned, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("conversation", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	return &c, nil
}

func (r *Repository) ListConversations(ctx context.Context, owner string) ([]model.Conversation, error) {
	query := `SELECT id, owner, title, pinned, created_at FROM conversations
		WHERE owner = ? ORDER BY pinned DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.Owner, &c.Title, &c.Pinned, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) SetTitle(ctx context.Context, id, title string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversations SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	// MySQL reports zero affected rows for an unchanged title.
	return r.requireRow(ctx, res, id)
}

func (r *Repository) TogglePin(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE conversations SET pinned = NOT pinned WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle pin: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, notFound("conversation", id)
	}
	c, err := r.GetConversation(ctx, id)
	if err != nil {
		return false, err
	}
	return c.Pinned, nil
}

func (r *Repository) DeleteConversation(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFound("conversation", id)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		return nil
	})
}

func (r *Repository) RestoreConversation(ctx context.Context, conv model.Conversation, msgs []model.Message) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO conversations (id, owner, title, pinned, created_at) VALUES (?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, query, conv.ID, conv.Owner, conv.Title, conv.Pinned, conv.CreatedAt); err != nil {
			return fmt.Errorf("failed to restore conversation: %w", err)
		}
		for _, m := range msgs {
			query := `INSERT INTO messages (id, conversation_id, sender, content, created_at) VALUES (?, ?, ?, ?, ?)`
			if _, err := tx.ExecContext(ctx, query, m.ID, conv.ID, m.Sender, m.Content, m.CreatedAt); err != nil {
				return fmt.Errorf("failed to restore message %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

func (r *Repository) AppendMessage(ctx context.Context, conversationID, sender, content string) (*model.Message, error) {
	if err := r.exists(ctx, conversationID); err != nil {
		return nil, err
	}
	m := &model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		CreatedAt:      r.now().UTC(),
	}
	query := `INSERT INTO messages (id, conversation_id, sender, content, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, m.ID, m.ConversationID, m.Sender, m.Content, m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return m, nil
}

func (r *Repository) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	if err := r.exists(ctx, conversationID); err != nil {
		return nil, err
	}
	query := `SELECT id, conversation_id, sender, content, created_at FROM messages
		WHERE conversation_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteMessage(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound("message", id)
	}
	return nil
}

func (r *Repository) exists(ctx context.Context, conversationID string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE id = ?`, conversationID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("conversation", conversationID)
	}
	if err != nil {
		return fmt.Errorf("failed to query conversation: %w", err)
	}
	return nil
}

func (r *Repository) requireRow(ctx context.Context, res sql.Result, id string) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	return r.exists(ctx, id)
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

var _ store.Store = (*Repository)(nil)
