package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docschat/internal/middleware"
)

// feedFunc streams raw event payloads until ctx is cancelled.
type feedFunc func(ctx context.Context) <-chan []byte

// Hub relays ingestion events to every connected websocket client. The
// upstream subscription only runs while at least one client is connected.
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]struct{}
	feed        feedFunc
	upgrader    websocket.Upgrader
	cancel      context.CancelFunc
	logger      *zap.Logger
}

// NewHub accepts browser connections from allowedOrigin only ("*" for any),
// matching the CORS policy of the HTTP routes.
func NewHub(redisClient *redis.Client, channel, allowedOrigin string, logger *zap.Logger) *Hub {
	return newHub(redisFeed(redisClient, channel), allowedOrigin, logger)
}

func newHub(feed feedFunc, allowedOrigin string, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]struct{}),
		feed:        feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigin, origin)
			},
		},
		logger: logger,
	}
}

func redisFeed(client *redis.Client, channel string) feedFunc {
	return func(ctx context.Context) <-chan []byte {
		out := make(chan []byte)
		go func() {
			defer close(out)

			pubsub := client.Subscribe(ctx, channel)
			defer pubsub.Close()

			ch := pubsub.Channel()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- []byte(msg.Payload):
					case <-ctx.Done():
						return
					}
				}
			}
		}()
		return out
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.register(conn)

	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = struct{}{}

	if len(h.connections) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		go h.relay(h.feed(ctx))
	}

	h.logger.Info("websocket connected", zap.Int("clients", len(h.connections)))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.connections, conn)

	if len(h.connections) == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	h.logger.Info("websocket disconnected", zap.Int("clients", len(h.connections)))
}

func (h *Hub) relay(events <-chan []byte) {
	for data := range events {
		h.broadcast(data)
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Close disconnects every client and stops the upstream subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.connections))
	for c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
