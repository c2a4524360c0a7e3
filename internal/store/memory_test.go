package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LobbyLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := Lobby{ID: "a1", CreatorID: "c1", Topic: "Rome"}
	require.NoError(t, s.CreateLobby(ctx, l))

	got, err := s.GetLobby(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, l, got)

	require.NoError(t, s.AddParticipant(ctx, "a1", "c1", "Host"))
	require.NoError(t, s.AddParticipant(ctx, "a1", "u2", "Bob"))
	require.NoError(t, s.AddParticipant(ctx, "a1", "u2", "Bob")) // upsert, no dup

	parts, err := s.Participants(ctx, "a1")
	require.NoError(t, err)
	require.ElementsMatch(t, []Participant{{UserID: "c1", Name: "Host"}, {UserID: "u2", Name: "Bob"}}, parts)

	require.NoError(t, s.RemoveParticipant(ctx, "a1", "u2"))
	parts, err = s.Participants(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, parts, 1)

	// Delete removes every derived key; a second delete is a no-op.
	require.NoError(t, s.DeleteLobby(ctx, "a1"))
	require.NoError(t, s.DeleteLobby(ctx, "a1"))

	_, err = s.GetLobby(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Participants(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.AddParticipant(ctx, "a1", "u3", "Eve"), ErrNotFound)
}
