package store

import (
	"context"
	"errors"
)

// ErrNotFound reports that no lobby exists under the given id.
var ErrNotFound = errors.New("lobby not found")

type Lobby struct {
	ID        string
	CreatorID string
	Topic     string
}

type Participant struct {
	UserID string
	Name   string
}

// Store is the key/value abstraction behind the lobby registry: lobby
// metadata, the participant set, and the display-name map. Implementations
// guarantee per-call atomicity only; callers own any cross-call ordering.
type Store interface {
	CreateLobby(ctx context.Context, l Lobby) error
	GetLobby(ctx context.Context, id string) (Lobby, error)
	// DeleteLobby removes the lobby and every derived key. Deleting an
	// absent lobby is a no-op.
	DeleteLobby(ctx context.Context, id string) error

	// AddParticipant upserts the participant and its display name.
	AddParticipant(ctx context.Context, lobbyID, userID, name string) error
	RemoveParticipant(ctx context.Context, lobbyID, userID string) error
	Participants(ctx context.Context, lobbyID string) ([]Participant, error)
}
