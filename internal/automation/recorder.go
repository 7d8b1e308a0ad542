package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/store"
	"github.com/DukeRupert/socialflow/internal/twitter"
)

// EventInserter is satisfied by *store.Queries.
type EventInserter interface {
	InsertEvent(ctx context.Context, e store.Event) error
}

// Recorder stores every event in the webhook_events table.
type Recorder struct {
	events EventInserter
	now    func() time.Time
}

func NewRecorder(events EventInserter) *Recorder {
	return &Recorder{events: events, now: time.Now}
}

func (*Recorder) Name() string { return "recorder" }

func (r *Recorder) ProcessTweet(ctx context.Context, env twitter.Envelope) error {
	if err := r.events.InsertEvent(ctx, newEvent(env, r.now())); err != nil {
		return fmt.Errorf("record tweet %s: %w", env.Data.ID, err)
	}
	metrics.EventsRecordedTotal.Inc()
	return nil
}

func newEvent(env twitter.Envelope, at time.Time) store.Event {
	includes := pqtype.NullRawMessage{}
	if len(env.Includes) > 0 && json.Valid(env.Includes) {
		includes = pqtype.NullRawMessage{RawMessage: env.Includes, Valid: true}
	}
	return store.Event{
		ID:              uuid.New(),
		Provider:        "twitter",
		TweetID:         env.Data.ID,
		AuthorID:        env.Data.AuthorID(),
		AuthorHandle:    env.Data.AuthorHandle(),
		Text:            env.Data.Text,
		Includes:        includes,
		MatchingRuleIDs: env.RuleIDs(),
		ReceivedAt:      at.UTC(),
	}
}
