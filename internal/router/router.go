package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docschat/internal/handlers"
	"docschat/internal/middleware"
	"docschat/internal/websocket"
)

// New wires the HTTP surface. wsHub may be nil when no ingestion queue is
// configured; the event feed route is then not mounted.
func New(
	chatHandler *handlers.ChatHandler,
	pagesHandler *handlers.PagesHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		// Every method reaches the handler so it can answer 405 in JSON.
		r.HandleFunc("/chat", chatHandler.Chat)

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", pagesHandler.List)
			r.Get("/content", pagesHandler.Content)
		})

		if wsHub != nil {
			r.Get("/ingest/ws", wsHub.HandleWebSocket)
		}
	})

	return r
}
