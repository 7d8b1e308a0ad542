package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/DukeRupert/socialflow/internal/twitter"
)

// =============================================================================
// Test Helpers
// =============================================================================

// newTestLogger creates a logger that discards output for testing.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProcessor records every envelope it sees and delegates to ProcessFunc.
type mockProcessor struct {
	ProcessFunc func(ctx context.Context, env twitter.Envelope) error
	seen        []twitter.Envelope
}

func (m *mockProcessor) ProcessTweet(ctx context.Context, env twitter.Envelope) error {
	m.seen = append(m.seen, env)
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, env)
	}
	return nil
}
