// Package rounds dispatches content generation as detached background jobs
// and reports the outcome on the lobby's broadcast channel.
package rounds

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/studyparty/backend/internal/bus"
	"github.com/studyparty/backend/internal/protocol"
)

// Generator produces round material for a topic. The real implementation is
// an external collaborator; the core only relays its output.
type Generator interface {
	Generate(ctx context.Context, topic string) (protocol.RoundData, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, topic string) (protocol.RoundData, error)

func (f GeneratorFunc) Generate(ctx context.Context, topic string) (protocol.RoundData, error) {
	return f(ctx, topic)
}

// Runner fires generation jobs without blocking the caller. Each dispatch
// publishes exactly one of round_data_ready or round_error; failures never
// propagate back to the triggering request and nothing is retried here.
type Runner struct {
	gen Generator
	bus *bus.Bus
	log *zap.Logger
}

func NewRunner(gen Generator, b *bus.Bus, log *zap.Logger) *Runner {
	return &Runner{gen: gen, bus: b, log: log}
}

// Dispatch starts a background job for the lobby and returns immediately.
func (r *Runner) Dispatch(lobbyID, topic string) {
	go r.generate(lobbyID, topic)
}

func (r *Runner) generate(lobbyID, topic string) {
	defer func() {
		if p := recover(); p != nil {
			r.bus.Publish(lobbyID, protocol.RoundError{Message: fmt.Sprintf("round generation panicked: %v", p)})
			r.log.Error("round generation panicked",
				zap.String("lobby_id", lobbyID), zap.Any("panic", p))
		}
	}()

	data, err := r.gen.Generate(context.Background(), topic)
	if err != nil {
		r.bus.Publish(lobbyID, protocol.RoundError{Message: err.Error()})
		r.log.Warn("round generation failed",
			zap.String("lobby_id", lobbyID), zap.String("topic", topic), zap.Error(err))
		return
	}

	r.bus.Publish(lobbyID, protocol.RoundDataReady{RoundData: data})
	r.log.Info("round data ready",
		zap.String("lobby_id", lobbyID), zap.Int("subtopics", len(data.Subtopics)))
}

// StaticGenerator is the built-in stand-in for the external content service:
// a fixed number of topic-templated subtopics.
type StaticGenerator struct {
	Count int
}

func (g StaticGenerator) Generate(_ context.Context, topic string) (protocol.RoundData, error) {
	n := g.Count
	if n <= 0 {
		n = 3
	}
	data := protocol.RoundData{Subtopics: make([]protocol.Subtopic, 0, n)}
	for i := 1; i <= n; i++ {
		data.Subtopics = append(data.Subtopics, protocol.Subtopic{
			Name:           fmt.Sprintf("Subtopic %d", i),
			Narrative:      fmt.Sprintf("Narrative %d about %s.", i, topic),
			Misinformation: fmt.Sprintf("A common misconception about %s.", topic),
		})
	}
	return data, nil
}
