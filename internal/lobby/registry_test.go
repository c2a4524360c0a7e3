package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/protocol"
	"github.com/studyparty/backend/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, *bus.Bus) {
	t.Helper()
	b := bus.New()
	return NewRegistry(store.NewMemoryStore(), b, zap.NewNop()), b
}

func recvEvent(t *testing.T, sub *bus.Subscription, within time.Duration) protocol.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatalf("subscription closed unexpectedly")
		}
		return ev
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return nil // unreachable
	}
}

func recvNoEvent(t *testing.T, sub *bus.Subscription, within time.Duration) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("expected no event within %v, got: %+v", within, ev)
		}
	case <-time.After(within):
	}
}

func TestCreate_TokenFormatAndSeededHost(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	lobbyID, creatorID, err := reg.Create(ctx, "Volcanoes")
	require.NoError(t, err)
	require.True(t, ValidID(lobbyID), "lobby id %q should be 32 lowercase hex chars", lobbyID)
	require.True(t, ValidID(creatorID), "creator id %q should be 32 lowercase hex chars", creatorID)

	lb, err := reg.Get(ctx, lobbyID)
	require.NoError(t, err)
	require.Equal(t, creatorID, lb.CreatorID)
	require.Equal(t, "Volcanoes", lb.Topic)

	names, err := reg.Participants(ctx, lobbyID)
	require.NoError(t, err)
	require.Equal(t, []string{HostName}, names)
}

func TestJoin_IdempotentButRepublishes(t *testing.T) {
	reg, b := newTestRegistry(t)
	ctx := context.Background()

	lobbyID, _, err := reg.Create(ctx, "Rome")
	require.NoError(t, err)

	sub := b.Subscribe(lobbyID)
	defer sub.Close()

	userID := NewToken()
	require.NoError(t, reg.Join(ctx, lobbyID, userID, "Bob"))
	require.NoError(t, reg.Join(ctx, lobbyID, userID, "Bob"))

	names, err := reg.Participants(ctx, lobbyID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{HostName, "Bob"}, names, "double join must not duplicate")

	// Both joins announce, even though the second is a set no-op.
	for i := 0; i < 2; i++ {
		ev := recvEvent(t, sub, 100*time.Millisecond)
		require.Equal(t, protocol.PlayerJoined{PlayerName: "Bob"}, ev)
	}
}

func TestJoin_UnknownLobby(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.Join(context.Background(), NewToken(), NewToken(), "Bob")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBadLobbyID_RejectedBeforeLookup(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, id := range []string{"", "short", "UPPERCASEUPPERCASEUPPERCASEUPPER", "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := reg.Get(ctx, id)
		require.ErrorIs(t, err, ErrBadLobbyID, "id %q", id)
		require.ErrorIs(t, reg.Join(ctx, id, "u", "n"), ErrBadLobbyID)
		_, err = reg.Participants(ctx, id)
		require.ErrorIs(t, err, ErrBadLobbyID)
	}
}

func TestRequestStart_HostOnly(t *testing.T) {
	reg, b := newTestRegistry(t)
	ctx := context.Background()

	lobbyID, creatorID, err := reg.Create(ctx, "Rome")
	require.NoError(t, err)

	sub := b.Subscribe(lobbyID)
	defer sub.Close()

	require.ErrorIs(t, reg.RequestStart(ctx, lobbyID, NewToken()), ErrForbidden)
	recvNoEvent(t, sub, 50*time.Millisecond)

	require.NoError(t, reg.RequestStart(ctx, lobbyID, creatorID))
	ev := recvEvent(t, sub, 100*time.Millisecond)
	require.Equal(t, protocol.StartGame{InitiatedByHost: true}, ev)
}

func TestClose_PublishesThenDeletes(t *testing.T) {
	reg, b := newTestRegistry(t)
	ctx := context.Background()

	lobbyID, _, err := reg.Create(ctx, "Rome")
	require.NoError(t, err)

	sub := b.Subscribe(lobbyID)
	require.NoError(t, reg.Close(ctx, lobbyID, "shutting down"))

	ev := recvEvent(t, sub, 100*time.Millisecond)
	require.Equal(t, protocol.LobbyClosed{Reason: "shutting down"}, ev)
	recvNoEvent(t, sub, 50*time.Millisecond)

	_, err = reg.Get(ctx, lobbyID)
	require.ErrorIs(t, err, ErrNotFound)

	// Idempotent: closing again is a silent no-op.
	require.NoError(t, reg.Close(ctx, lobbyID, "again"))
}

func TestLeave_ParticipantAnnounced(t *testing.T) {
	reg, b := newTestRegistry(t)
	ctx := context.Background()

	lobbyID, _, err := reg.Create(ctx, "Rome")
	require.NoError(t, err)
	userID := NewToken()
	require.NoError(t, reg.Join(ctx, lobbyID, userID, "Bob"))

	sub := b.Subscribe(lobbyID)
	defer sub.Close()

	require.NoError(t, reg.Leave(ctx, lobbyID, userID))
	ev := recvEvent(t, sub, 100*time.Millisecond)
	require.Equal(t, protocol.PlayerLeft{PlayerName: "Bob"}, ev)

	names, err := reg.Participants(ctx, lobbyID)
	require.NoError(t, err)
	require.Equal(t, []string{HostName}, names)
}

func TestLeave_CreatorClosesLobby(t *testing.T) {
	reg, b := newTestRegistry(t)
	ctx := context.Background()

	lobbyID, creatorID, err := reg.Create(ctx, "Rome")
	require.NoError(t, err)
	require.NoError(t, reg.Join(ctx, lobbyID, NewToken(), "Bob"))

	sub := b.Subscribe(lobbyID)
	require.NoError(t, reg.Leave(ctx, lobbyID, creatorID))

	ev := recvEvent(t, sub, 100*time.Millisecond)
	closed, ok := ev.(protocol.LobbyClosed)
	require.True(t, ok, "want LobbyClosed, got %T", ev)
	require.NotEmpty(t, closed.Reason)

	_, err = reg.Get(ctx, lobbyID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLeave_GoneLobbyIsNoOp(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Leave(context.Background(), NewToken(), NewToken()))
}
