// Package health exposes a small HTTP surface next to the bot so
// hosting platforms can check liveness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Deepx7/otp_market_bot/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type InventoryCounter interface {
	CountAvailableAccounts(ctx context.Context) (map[string]int64, error)
}

type Server struct {
	counter InventoryCounter
	logger  *utils.Logger
}

func NewServer(counter InventoryCounter, logger *utils.Logger) *Server {
	return &Server{counter: counter, logger: logger}
}

// Start runs the health server; it blocks, call it in a goroutine.
func (s *Server) Start(addr string) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		counts, err := s.counter.CountAvailableAccounts(ctx)
		if err != nil {
			s.logger.Errorf("Failed to count inventory for /stats: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": counts})
	})

	s.logger.Infof("Health server listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
