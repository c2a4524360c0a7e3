package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/lobby"
	"github.com/studyparty/backend/internal/protocol"
)

const (
	writeTimeout   = 3 * time.Second
	cleanupTimeout = 5 * time.Second
)

// Sentinels so both duties always return non-nil and the errgroup context
// cancels the survivor as soon as either finishes.
var (
	errTransition  = errors.New("client transitioning to game")
	errStreamEnded = errors.New("broadcast stream ended")
)

// session is one live client connection bound to a lobby and a participant.
// It runs two duties until the first finishes, then disambiguates a
// deliberate phase transition from an involuntary disconnect.
type session struct {
	conn    *websocket.Conn
	reg     *lobby.Registry
	bus     *bus.Bus
	sub     *bus.Subscription
	lobbyID string
	userID  string
	grace   time.Duration
	log     *zap.Logger

	// Set once by the inbound duty, read only after both duties stop.
	transitioning atomic.Bool
}

func (s *session) run(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.relay(gctx) })
	g.Go(func() error { return s.inbound(gctx) })
	err := g.Wait()
	s.log.Debug("session ended", zap.Error(err))

	s.finish()
}

// relay forwards every broadcast event to the client, in bus order.
func (s *session) relay(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.sub.Events():
			if !ok {
				return errStreamEnded
			}
			payload, err := protocol.Encode(ev)
			if err != nil {
				s.log.Error("encode broadcast event", zap.Error(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = s.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

// inbound consumes client frames. Transition messages mark the flag and end
// the duty; chat is republished; anything unrecognized is ignored.
func (s *session) inbound(ctx context.Context) error {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case protocol.ClientStartGameInitiated:
			s.transitioning.Store(true)
			s.bus.Publish(s.lobbyID, protocol.StartGame{InitiatedByHost: true})
			return errTransition

		case protocol.ClientTransitioning:
			s.transitioning.Store(true)
			return errTransition

		case protocol.ClientChatMessage:
			s.bus.Publish(s.lobbyID, protocol.ChatMessage{
				PlayerName: msg.PlayerName,
				Message:    msg.Message,
				SenderID:   s.userID,
			})

		default:
			// Unknown client message, ignore.
		}
	}
}

// finish runs after both duties have stopped. A set flag means the client is
// deliberately moving to the game phase: membership is preserved and a short
// grace delay lets the transition message land before resources go away.
// Otherwise this is an involuntary disconnect and the registry decides
// whether that removes one participant or closes the whole lobby.
func (s *session) finish() {
	if s.transitioning.Load() {
		time.Sleep(s.grace)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := s.reg.Leave(ctx, s.lobbyID, s.userID); err != nil {
		s.log.Warn("disconnect cleanup failed", zap.Error(err))
	}
}
