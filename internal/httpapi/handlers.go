package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/lobby"
	"github.com/studyparty/backend/internal/protocol"
	"github.com/studyparty/backend/internal/rounds"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrBadLobbyID):
		writeDetail(w, http.StatusBadRequest, "Invalid lobby ID format")
	case errors.Is(err, lobby.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Lobby does not exist")
	case errors.Is(err, lobby.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Only the host can start the game")
	default:
		writeDetail(w, http.StatusInternalServerError, "internal server error")
	}
}

func CreateLobby(reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		lobbyID, creatorID, err := reg.Create(r.Context(), req.Topic)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"lobby_id":   lobbyID,
			"creator_id": creatorID,
		})
	}
}

func GetLobby(reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, err := reg.Get(r.Context(), chi.URLParam(r, "lobbyID"))
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"creator_id": lb.CreatorID,
			"topic":      lb.Topic,
		})
	}
}

func GetTopic(reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, err := reg.Get(r.Context(), chi.URLParam(r, "lobbyID"))
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"lobby_id": lb.ID,
			"topic":    lb.Topic,
		})
	}
}

func GetParticipants(reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := reg.Participants(r.Context(), chi.URLParam(r, "lobbyID"))
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"players": names})
	}
}

func JoinLobby(reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID     string `json:"user_id"`
			PlayerName string `json:"player_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := reg.Join(r.Context(), chi.URLParam(r, "lobbyID"), req.UserID, req.PlayerName); err != nil {
			writeRegistryError(w, err)
			return
		}
		writeDetail(w, http.StatusOK, "Joined the lobby successfully")
	}
}

func StartGame(reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := reg.RequestStart(r.Context(), chi.URLParam(r, "lobbyID"), req.UserID); err != nil {
			writeRegistryError(w, err)
			return
		}
		writeDetail(w, http.StatusOK, "Game started successfully")
	}
}

// Chat broadcasts a message submitted over plain HTTP instead of the
// websocket. The sender id is whatever the client supplies here; only
// websocket chat carries a verified session identity.
func Chat(reg *lobby.Registry, b *bus.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerName string `json:"playerName"`
			Message    string `json:"message"`
			SenderID   string `json:"senderId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		lobbyID := chi.URLParam(r, "lobbyID")
		if _, err := reg.Get(r.Context(), lobbyID); err != nil {
			writeRegistryError(w, err)
			return
		}
		b.Publish(lobbyID, protocol.ChatMessage{
			PlayerName: req.PlayerName,
			Message:    req.Message,
			SenderID:   req.SenderID,
		})
		writeDetail(w, http.StatusOK, "Message sent")
	}
}

func GetParagraphs(reg *lobby.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, err := reg.Get(r.Context(), chi.URLParam(r, "lobbyID"))
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		paragraphs := []string{
			fmt.Sprintf("Paragraph 1 about %s.", lb.Topic),
			fmt.Sprintf("Paragraph 2 about %s.", lb.Topic),
			fmt.Sprintf("Paragraph 3 about %s.", lb.Topic),
		}
		writeJSON(w, http.StatusOK, map[string][]string{"paragraphs": paragraphs})
	}
}

// StartRounds kicks off background round generation for the lobby's topic.
// The request returns as soon as the job is dispatched; the outcome arrives
// on the broadcast channel.
func StartRounds(reg *lobby.Registry, runner *rounds.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID := r.URL.Query().Get("lobby_id")
		lb, err := reg.Get(r.Context(), lobbyID)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		runner.Dispatch(lb.ID, lb.Topic)
		writeDetail(w, http.StatusAccepted, "Round generation started")
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
