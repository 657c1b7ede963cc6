package httpx

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/acordeapp/acorde/internal/chat"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Identity comes from headers, not cookies, so cross-origin upgrades
	// are fine here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatHandler struct {
	Chats    *repo.ChatRepo
	Products *repo.ProductRepo
	Hub      *chat.Hub
}

func (h *ChatHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/chats/product/{productID}", h.start)
		r.Get("/chats", h.list)
		r.Get("/chats/{id}/messages", h.messages)
		r.Post("/chats/{id}/messages", h.send)
		r.Get("/chats/{id}/ws", h.websocket)
	})
}

type chatResp struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	StarterID string `json:"starter_id"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

func toChatResp(c market.Chat) chatResp {
	return chatResp{
		ID:        c.ID.String(),
		ProductID: c.ProductID.String(),
		StarterID: c.StarterID.String(),
		OwnerID:   c.OwnerID.String(),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// start opens (or reuses) the conversation between the caller and the
// product's owner.
func (h *ChatHandler) start(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := h.Products.ByID(ctx, productID)
	if err != nil {
		writeError(w, err)
		return
	}
	starter := identity(r)
	if product.Owner.ID == starter.ID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot chat with yourself"})
		return
	}

	c, err := h.Chats.FindOrCreate(ctx, productID, starter.ID, product.Owner.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChatResp(c))
}

func (h *ChatHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	chats, err := h.Chats.ListForUser(ctx, identity(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]chatResp, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatResp(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// participantChat loads the chat and rejects callers that are not part of it.
func (h *ChatHandler) participantChat(ctx context.Context, r *http.Request) (market.Chat, error) {
	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return market.Chat{}, market.ErrInvalidInput
	}
	c, err := h.Chats.ByID(ctx, chatID)
	if err != nil {
		return market.Chat{}, err
	}
	if !c.HasParticipant(identity(r).ID) {
		// Hide the chat's existence from outsiders.
		return market.Chat{}, market.ErrNotFound
	}
	return c, nil
}

func (h *ChatHandler) messages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.participantChat(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := h.Chats.Messages(ctx, c.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []market.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type sendMessageReq struct {
	Body string `json:"body"`
}

// send persists the message first, then publishes it so every connected
// participant sees it live.
func (h *ChatHandler) send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.participantChat(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req sendMessageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	msg, err := h.Chats.InsertMessage(ctx, market.ChatMessage{
		ChatID:   c.ID,
		SenderID: identity(r).ID,
		Body:     req.Body,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Hub.Publish(ctx, msg); err != nil {
		// The message is stored; live delivery is best-effort.
		log.Printf("publish chat message %s: %v", msg.ID, err)
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) websocket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.participantChat(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade for chat %s: %v", c.ID, err)
		return
	}
	chat.NewClient(h.Hub, conn, c.ID.String()).Run()
}
