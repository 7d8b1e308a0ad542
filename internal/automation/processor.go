// Package automation reacts to inbound social events. Every received tweet
// passes through a Chain of processors; the first failure stops the chain.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/twitter"
)

// Processor handles one normalized webhook event.
type Processor interface {
	ProcessTweet(ctx context.Context, env twitter.Envelope) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, env twitter.Envelope) error

func (f ProcessorFunc) ProcessTweet(ctx context.Context, env twitter.Envelope) error {
	return f(ctx, env)
}

// namer is implemented by processors that label their own metrics.
type namer interface {
	Name() string
}

func processorName(p Processor) string {
	if n, ok := p.(namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}

// Chain runs processors in order and stops at the first error.
type Chain struct {
	processors []Processor
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, processors ...Processor) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{processors: processors, logger: logger}
}

// Len returns the number of processors in the chain.
func (c *Chain) Len() int {
	return len(c.processors)
}

func (c *Chain) ProcessTweet(ctx context.Context, env twitter.Envelope) error {
	for _, p := range c.processors {
		name := processorName(p)
		start := time.Now()
		if err := p.ProcessTweet(ctx, env); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		metrics.ProcessorCompleted(name, time.Since(start))
	}
	return nil
}

// LogProcessor logs every event. It is the chain used when no other
// processor is configured.
type LogProcessor struct {
	Logger *slog.Logger
}

func (LogProcessor) Name() string { return "log" }

func (p LogProcessor) ProcessTweet(ctx context.Context, env twitter.Envelope) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "tweet received",
		"tweet_id", env.Data.ID,
		"author", env.Data.AuthorHandle(),
		"matching_rules", env.RuleIDs(),
	)
	return nil
}
