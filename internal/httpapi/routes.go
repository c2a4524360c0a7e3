package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/lobby"
	"github.com/studyparty/backend/internal/rounds"
	"github.com/studyparty/backend/internal/ws"
)

// SetupRoutes builds the router with all dependencies injected.
func SetupRoutes(reg *lobby.Registry, b *bus.Bus, runner *rounds.Runner, log *zap.Logger, allowedOrigins []string, grace time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware(allowedOrigins))

	r.Post("/create-lobby", CreateLobby(reg))
	r.Get("/lobby/{lobbyID}", GetLobby(reg))
	r.Get("/lobby/{lobbyID}/topic", GetTopic(reg))
	r.Get("/lobby/{lobbyID}/participants", GetParticipants(reg))
	r.Get("/lobby/{lobbyID}/paragraphs", GetParagraphs(reg))
	r.Post("/lobby/{lobbyID}/join", JoinLobby(reg))
	r.Post("/lobby/{lobbyID}/start", StartGame(reg))
	r.Post("/lobby/{lobbyID}/chat", Chat(reg, b))
	r.Post("/rounds/start", StartRounds(reg, runner))
	r.Get("/ws/{lobbyID}", ws.Handler(reg, b, log, grace))
	r.Get("/healthz", Healthz)
	return r
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
