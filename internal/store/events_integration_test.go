package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/socialflow/internal"
	"github.com/DukeRupert/socialflow/internal/store"
)

// openTestDB connects to TEST_DATABASE_URL and applies migrations. Tests are
// skipped when it is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, internal.RunMigrations(db))
	return db
}

func TestQueries_InsertAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	q := store.New(db).WithTx(tx)

	before, err := q.CountEvents(ctx)
	require.NoError(t, err)

	event := store.Event{
		ID:              uuid.New(),
		Provider:        "twitter",
		TweetID:         "100",
		AuthorID:        "7",
		AuthorHandle:    "socialflow",
		Text:            "hello",
		Includes:        pqtype.NullRawMessage{RawMessage: json.RawMessage(`{"users":[]}`), Valid: true},
		MatchingRuleIDs: []string{"r1", "r2"},
		ReceivedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, q.InsertEvent(ctx, event))

	after, err := q.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	events, err := q.ListRecentEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, []string{"r1", "r2"}, got.MatchingRuleIDs)
	assert.True(t, got.Includes.Valid)
	assert.JSONEq(t, `{"users":[]}`, string(got.Includes.RawMessage))
	assert.True(t, event.ReceivedAt.Equal(got.ReceivedAt))
}
