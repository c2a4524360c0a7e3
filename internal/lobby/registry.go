package lobby

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/protocol"
	"github.com/studyparty/backend/internal/store"
)

var (
	// ErrBadLobbyID is returned before any store lookup when the id does not
	// match the token format.
	ErrBadLobbyID = errors.New("invalid lobby id format")
	ErrNotFound   = store.ErrNotFound
	ErrForbidden  = errors.New("only the host can start the game")
)

const (
	// HostName is the reserved display name seeded for the creator.
	HostName = "Host"

	unknownPlayerName    = "Unknown Player"
	hostDisconnectReason = "The host has disconnected. The lobby is closed."
)

var idPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// ValidID reports whether id matches the 32-char lowercase-hex token format.
func ValidID(id string) bool { return idPattern.MatchString(id) }

// NewToken returns a fresh 32-char lowercase-hex token.
func NewToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Registry owns lobby lifecycle: creation, membership, game start, and
// teardown. Every mutation that other participants should see publishes the
// corresponding event on the lobby's broadcast channel.
type Registry struct {
	store store.Store
	bus   *bus.Bus
	log   *zap.Logger
}

func NewRegistry(st store.Store, b *bus.Bus, log *zap.Logger) *Registry {
	return &Registry{store: st, bus: b, log: log}
}

// Create allocates a lobby with a fresh id and creator id and seeds the
// participant set with the host.
func (r *Registry) Create(ctx context.Context, topic string) (lobbyID, creatorID string, err error) {
	lobbyID, creatorID = NewToken(), NewToken()
	if err := r.store.CreateLobby(ctx, store.Lobby{ID: lobbyID, CreatorID: creatorID, Topic: topic}); err != nil {
		return "", "", fmt.Errorf("create lobby: %w", err)
	}
	if err := r.store.AddParticipant(ctx, lobbyID, creatorID, HostName); err != nil {
		return "", "", fmt.Errorf("seed host: %w", err)
	}
	r.log.Info("lobby created", zap.String("lobby_id", lobbyID), zap.String("topic", topic))
	return lobbyID, creatorID, nil
}

func (r *Registry) Get(ctx context.Context, id string) (store.Lobby, error) {
	if !ValidID(id) {
		return store.Lobby{}, ErrBadLobbyID
	}
	return r.store.GetLobby(ctx, id)
}

// Join adds the participant and announces it. Joining twice with the same
// user id is a no-op on the set but still republishes player_joined.
func (r *Registry) Join(ctx context.Context, id, userID, name string) error {
	if !ValidID(id) {
		return ErrBadLobbyID
	}
	if _, err := r.store.GetLobby(ctx, id); err != nil {
		return err
	}
	if err := r.store.AddParticipant(ctx, id, userID, name); err != nil {
		return err
	}
	r.bus.Publish(id, protocol.PlayerJoined{PlayerName: name})
	return nil
}

// Participants returns the display names of everyone in the lobby, in no
// particular order. A participant without a stored name gets a placeholder.
func (r *Registry) Participants(ctx context.Context, id string) ([]string, error) {
	if !ValidID(id) {
		return nil, ErrBadLobbyID
	}
	parts, err := r.store.Participants(ctx, id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := p.Name
		if name == "" {
			name = unknownPlayerName
		}
		names = append(names, name)
	}
	return names, nil
}

// RequestStart publishes the start_game signal. Only the creator may start;
// anyone else gets ErrForbidden and nothing is published.
func (r *Registry) RequestStart(ctx context.Context, id, requesterID string) error {
	if !ValidID(id) {
		return ErrBadLobbyID
	}
	lb, err := r.store.GetLobby(ctx, id)
	if err != nil {
		return err
	}
	if lb.CreatorID != requesterID {
		return ErrForbidden
	}
	r.bus.Publish(id, protocol.StartGame{InitiatedByHost: true})
	r.log.Info("game start requested", zap.String("lobby_id", id))
	return nil
}

// Close announces lobby_closed, deletes every lobby key, and drops the
// broadcast channel. Closing a lobby that no longer exists is a silent no-op.
func (r *Registry) Close(ctx context.Context, id, reason string) error {
	if !ValidID(id) {
		return ErrBadLobbyID
	}
	if _, err := r.store.GetLobby(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	r.bus.Publish(id, protocol.LobbyClosed{Reason: reason})
	if err := r.store.DeleteLobby(ctx, id); err != nil {
		return err
	}
	r.bus.DropChannel(id)
	r.log.Info("lobby closed", zap.String("lobby_id", id), zap.String("reason", reason))
	return nil
}

// Leave removes the participant and announces player_left. When the creator
// leaves, the lobby cannot continue and Leave behaves as Close.
func (r *Registry) Leave(ctx context.Context, id, userID string) error {
	if !ValidID(id) {
		return ErrBadLobbyID
	}
	lb, err := r.store.GetLobby(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if lb.CreatorID == userID {
		return r.Close(ctx, id, hostDisconnectReason)
	}

	name := unknownPlayerName
	if parts, err := r.store.Participants(ctx, id); err == nil {
		for _, p := range parts {
			if p.UserID == userID && p.Name != "" {
				name = p.Name
				break
			}
		}
	}
	if err := r.store.RemoveParticipant(ctx, id, userID); err != nil {
		return err
	}
	r.bus.Publish(id, protocol.PlayerLeft{PlayerName: name})
	return nil
}
