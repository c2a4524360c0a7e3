package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/lobby"
)

// Close reasons sent with StatusPolicyViolation when a connection is
// rejected before the session starts.
const (
	ReasonMissingUserID = "Missing user_id"
	ReasonBadLobbyID    = "Invalid lobby ID format"
	ReasonNoLobby       = "Lobby does not exist"
)

// DefaultTransitionGrace is how long a transitioning session lingers before
// releasing its resources, so the start signal wins the race against any
// trailing cleanup events.
const DefaultTransitionGrace = 2 * time.Second

// Handler upgrades /ws/{lobbyID}?user_id= connections and runs a session per
// accepted client. Identity and lobby existence are checked up front; a
// rejected connection never touches lobby state.
func Handler(reg *lobby.Registry, b *bus.Bus, log *zap.Logger, grace time.Duration) http.HandlerFunc {
	if grace <= 0 {
		grace = DefaultTransitionGrace
	}
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID := chi.URLParam(r, "lobbyID")
		userID := r.URL.Query().Get("user_id")

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // cross-origin is enforced at the CORS layer
		})
		if err != nil {
			return
		}

		if userID == "" {
			_ = conn.Close(websocket.StatusPolicyViolation, ReasonMissingUserID)
			return
		}
		if !lobby.ValidID(lobbyID) {
			_ = conn.Close(websocket.StatusPolicyViolation, ReasonBadLobbyID)
			return
		}
		if _, err := reg.Get(r.Context(), lobbyID); err != nil {
			if errors.Is(err, lobby.ErrNotFound) {
				_ = conn.Close(websocket.StatusPolicyViolation, ReasonNoLobby)
			} else {
				_ = conn.Close(websocket.StatusInternalError, "lobby lookup failed")
			}
			return
		}

		s := &session{
			conn:    conn,
			reg:     reg,
			bus:     b,
			sub:     b.Subscribe(lobbyID),
			lobbyID: lobbyID,
			userID:  userID,
			grace:   grace,
			log:     log.With(zap.String("lobby_id", lobbyID), zap.String("user_id", userID)),
		}
		defer s.sub.Close()
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		s.run(r.Context())
	}
}
