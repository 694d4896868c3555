// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"loyalty-service/internal/domain/auth"
	"loyalty-service/internal/domain/notification"
	wstypes "loyalty-service/internal/domain/websocket"

	"go.uber.org/zap"
)

// staffKey groups every back-office connection; customers are keyed by id.
const staffKey = "role:staff"

// Resolver authenticates connecting clients.
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	resolver Resolver
	logger   *zap.Logger
}

// BroadcastMessage goes to every client under Keys that listens on Channel.
type BroadcastMessage struct {
	Keys    []string
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(resolver Resolver, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan *BroadcastMessage, 256),
		resolver:   resolver,
		logger:     logger,
	}
}

// Authenticate resolves token to the principal the connection acts as.
func (h *Hub) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	return h.resolver.Resolve(ctx, token)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Register hands a new connection to the run loop.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

func keyFor(p auth.Principal) string {
	if p.IsCustomer() {
		return p.SubjectID
	}
	return staffKey
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.key] == nil {
		h.clients[client.key] = make(map[*Client]bool)
	}
	h.clients[client.key][client] = true

	h.logger.Info("websocket client connected",
		zap.String("key", client.key),
		zap.String("role", string(client.principal.Role)),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"role":        client.principal.Role,
		"customer_id": client.principal.SubjectID,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.key]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()
			if len(clients) == 0 {
				delete(h.clients, client.key)
			}
			h.logger.Info("websocket client disconnected",
				zap.String("key", client.key),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, key := range msg.Keys {
		for client := range h.clients[key] {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}
}

// PublishNotification pushes a status change to the customer it concerns and
// to every staff connection. It never blocks; a full queue drops the event.
func (h *Hub) PublishNotification(n notification.Notification) {
	event := wstypes.EventTypeNotificationQueued
	if n.Status == notification.StatusSent {
		event = wstypes.EventTypeNotificationSent
	}
	msg := &BroadcastMessage{
		Keys:    []string{n.CustomerID, staffKey},
		Channel: wstypes.ChannelNotifications,
		Message: wstypes.NewMessage(event, n),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event", zap.String("notification_id", n.ID))
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, key)
	}
}
