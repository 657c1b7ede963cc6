package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepo struct{ DB *pgxpool.Pool }

// FindOrCreate returns the existing chat for (product, starter, owner) or
// creates it. The conflict clause makes concurrent starts converge on one row.
func (r *ChatRepo) FindOrCreate(ctx context.Context, productID, starterID, ownerID uuid.UUID) (market.Chat, error) {
	var c market.Chat
	err := r.DB.QueryRow(ctx, `
		INSERT INTO chats (product_id, starter_id, owner_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, starter_id, owner_id)
		DO UPDATE SET product_id = EXCLUDED.product_id
		RETURNING id, product_id, starter_id, owner_id, created_at`,
		productID, starterID, ownerID,
	).Scan(&c.ID, &c.ProductID, &c.StarterID, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		return market.Chat{}, fmt.Errorf("find or create chat: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) ByID(ctx context.Context, chatID uuid.UUID) (market.Chat, error) {
	var c market.Chat
	err := r.DB.QueryRow(ctx, `
		SELECT id, product_id, starter_id, owner_id, created_at
		FROM chats WHERE id = $1`, chatID,
	).Scan(&c.ID, &c.ProductID, &c.StarterID, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.Chat{}, fmt.Errorf("chat %s: %w", chatID, market.ErrNotFound)
		}
		return market.Chat{}, fmt.Errorf("get chat %s: %w", chatID, err)
	}
	return c, nil
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]market.Chat, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, starter_id, owner_id, created_at
		FROM chats
		WHERE starter_id = $1 OR owner_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var out []market.Chat
	for rows.Next() {
		var c market.Chat
		if err := rows.Scan(&c.ID, &c.ProductID, &c.StarterID, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChatRepo) InsertMessage(ctx context.Context, m market.ChatMessage) (market.ChatMessage, error) {
	if m.Body == "" {
		return market.ChatMessage{}, fmt.Errorf("message body is empty: %w", market.ErrInvalidInput)
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO chat_messages (chat_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, sent_at`,
		m.ChatID, m.SenderID, m.Body,
	).Scan(&m.ID, &m.SentAt)
	if err != nil {
		return market.ChatMessage{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (r *ChatRepo) Messages(ctx context.Context, chatID uuid.UUID, limit int) ([]market.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, chat_id, sender_id, body, sent_at
		FROM chat_messages
		WHERE chat_id = $1
		ORDER BY sent_at
		LIMIT $2`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("chat messages: %w", err)
	}
	defer rows.Close()

	var out []market.ChatMessage
	for rows.Next() {
		var m market.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
