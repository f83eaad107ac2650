package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type delivery struct {
	userID  uuid.UUID
	message []byte
}

// Hub routes deal-feed messages to the sockets of one VC user. All
// membership changes go through Run's goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns.
	done     chan struct{}
	stopOnce sync.Once
	mutex    sync.RWMutex
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		deliver:    make(chan delivery, 256),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run serves the hub until ctx is done, then closes every client. Register
// and Unregister stop blocking once it has returned.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mutex.Unlock()
			return

		case c := <-h.register:
			h.mutex.Lock()
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			h.mutex.Unlock()
			h.logger.Debug("deal feed connected", zap.String("user_id", c.userID.String()))

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.deliver:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients[d.userID]))
			for c := range h.clients[d.userID] {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- d.message:
				default:
					h.logger.Warn("deal feed client too slow, dropping", zap.String("user_id", c.userID.String()))
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.logger.Debug("deal feed disconnected", zap.String("user_id", c.userID.String()))
}

// Register adds c to the feed. After Run has returned, c's send channel is
// closed instead so its writer exits.
func (h *Hub) Register(c *Client) {
	if h == nil || c == nil {
		return
	}
	select {
	case <-h.done:
		close(c.send)
		return
	default:
	}
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

func (h *Hub) Unregister(c *Client) {
	if h == nil || c == nil {
		return
	}
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Send queues message for userID. It never blocks; a full queue drops the
// message.
func (h *Hub) Send(userID uuid.UUID, message []byte) bool {
	if h == nil {
		return false
	}
	select {
	case h.deliver <- delivery{userID: userID, message: message}:
		return true
	default:
		h.logger.Warn("deal feed message dropped", zap.String("reason", "buffer_full"))
		return false
	}
}

func (h *Hub) ClientCount(userID uuid.UUID) int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[userID])
}
