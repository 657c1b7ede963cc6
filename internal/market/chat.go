package market

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation between an interested buyer and a product's owner.
// At most one chat exists per (starter, owner, product).
type Chat struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	StarterID uuid.UUID
	OwnerID   uuid.UUID
	CreatedAt time.Time
}

func (c Chat) HasParticipant(userID uuid.UUID) bool {
	return c.StarterID == userID || c.OwnerID == userID
}

type ChatMessage struct {
	ID       uuid.UUID `json:"id"`
	ChatID   uuid.UUID `json:"chat_id"`
	SenderID uuid.UUID `json:"sender_id"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}
