// Package chat delivers buyer-seller messages live. Persistence belongs to
// the chat repository; the hub only fans messages out to connected websocket
// clients, bridged across instances by a Redis channel per chat.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type Hub struct {
	rdb *redis.Client

	mu    sync.Mutex
	rooms map[string]map[*Client]bool
	stops map[string]chan struct{}
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		rdb:   rdb,
		rooms: make(map[string]map[*Client]bool),
		stops: make(map[string]chan struct{}),
	}
}

// Publish pushes a persisted message onto the chat's Redis channel; every
// instance subscribed to the room relays it to its local clients.
func (h *Hub) Publish(ctx context.Context, m market.ChatMessage) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	channel := fmt.Sprintf(redisx.ChanChat, m.ChatID)
	if err := h.rdb.Publish(ctx, channel, b).Err(); err != nil {
		return fmt.Errorf("publish chat message: %w", err)
	}
	return nil
}

// Join registers a client; the first client of a room starts its Redis
// subscription.
func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[c.room] == nil {
		h.rooms[c.room] = make(map[*Client]bool)
		stop := make(chan struct{})
		h.stops[c.room] = stop
		go h.subscribe(c.room, stop)
	}
	h.rooms[c.room][c] = true
}

// Leave unregisters a client; the last client of a room stops its
// subscription so idle rooms do not leak goroutines.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.room]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
		if stop, ok := h.stops[c.room]; ok {
			close(stop)
			delete(h.stops, c.room)
		}
	}
}

func (h *Hub) subscribe(room string, stop chan struct{}) {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, fmt.Sprintf(redisx.ChanChat, room))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.deliver(room, []byte(msg.Payload))
		case <-stop:
			return
		}
	}
}

func (h *Hub) deliver(room string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default:
			// Slow client: drop the message rather than stall the room.
			log.Printf("chat room %s: dropping message for slow client", room)
		}
	}
}
