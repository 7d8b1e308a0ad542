package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/storage"
	"github.com/DukeRupert/socialflow/internal/twitter"
)

// maxArchivedSize bounds one archived envelope.
const maxArchivedSize = 1 << 20

// archiveAttempts is how many fresh keys are tried before giving up on a
// collision.
const archiveAttempts = 3

// Archiver writes each envelope as JSON to object storage.
type Archiver struct {
	store storage.Storage
	now   func() time.Time
	newID func() uuid.UUID
}

func NewArchiver(store storage.Storage) *Archiver {
	return &Archiver{store: store, now: time.Now, newID: uuid.New}
}

func (*Archiver) Name() string { return "archiver" }

func (a *Archiver) ProcessTweet(ctx context.Context, env twitter.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	for attempt := 1; ; attempt++ {
		key := storage.ArchiveKey("twitter", a.now(), a.newID())
		err = a.store.Put(ctx, key, bytes.NewReader(body), storage.PutOptions{
			ContentType: "application/json",
			MaxSize:     maxArchivedSize,
		})
		if !storage.IsKeyExists(err) || attempt == archiveAttempts {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("archive tweet %s: %w", env.Data.ID, err)
	}
	metrics.EventsArchivedTotal.Inc()
	return nil
}
