package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"huizenzoeker/internal/core/port"
)

type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

func NewServer(httpPort string, handlers *ListingHandlers, baseLogger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + httpPort,
			Handler: NewRouter(handlers, baseLogger),
		},
		logger: baseLogger,
	}
}

// NewRouter собирает маршруты отдельно от сервера, чтобы их можно было тестировать.
func NewRouter(handlers *ListingHandlers, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(baseLogger)) // Логирует каждый запрос (метод, путь, время выполнения)
	r.Use(middleware.Recoverer)         // Перехватывает паники и возвращает 500 ошибку, чтобы сервер не упал

	r.Get("/health", handlers.HandleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/listings", func(r chi.Router) {
			r.Get("/", handlers.HandleQueryListings)
			r.Get("/{id}", handlers.HandleGetListing)
			r.Get("/{id}/history", handlers.HandleGetListingHistory)
		})
		r.Get("/changes/recent", handlers.HandleGetRecentChanges)
		r.Get("/stats", handlers.HandleGetSourceStats)
	})

	return r
}

// Start запускает HTTP-сервер
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
