package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// Event is one row of webhook_events.
type Event struct {
	ID              uuid.UUID
	Provider        string
	TweetID         string
	AuthorID        string
	AuthorHandle    string
	Text            string
	Includes        pqtype.NullRawMessage
	MatchingRuleIDs []string
	ReceivedAt      time.Time
}

const insertEvent = `
INSERT INTO webhook_events (
    id, provider, tweet_id, author_id, author_handle, text, includes, matching_rule_ids, received_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (q *Queries) InsertEvent(ctx context.Context, e Event) error {
	ruleIDs := e.MatchingRuleIDs
	if ruleIDs == nil {
		ruleIDs = []string{}
	}
	_, err := q.db.ExecContext(ctx, insertEvent,
		e.ID,
		e.Provider,
		e.TweetID,
		e.AuthorID,
		e.AuthorHandle,
		e.Text,
		e.Includes,
		pq.Array(ruleIDs),
		e.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}

const listRecentEvents = `
SELECT id, provider, tweet_id, author_id, author_handle, text, includes, matching_rule_ids, received_at
FROM webhook_events
ORDER BY received_at DESC
LIMIT $1
`

func (q *Queries) ListRecentEvents(ctx context.Context, limit int32) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listRecentEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("list webhook events: %w", err)
	}
	defer rows.Close()

	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID,
			&e.Provider,
			&e.TweetID,
			&e.AuthorID,
			&e.AuthorHandle,
			&e.Text,
			&e.Includes,
			pq.Array(&e.MatchingRuleIDs),
			&e.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook events: %w", err)
	}
	return items, nil
}

const countEvents = `SELECT COUNT(*) FROM webhook_events`

func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, countEvents).Scan(&n); err != nil {
		return 0, fmt.Errorf("count webhook events: %w", err)
	}
	return n, nil
}
