package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/socialflow/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCRC(t *testing.T) {
	out, err := execute(t, "crc", "--secret", "Jefe", "what do ya want for nothing?")
	require.NoError(t, err)
	assert.JSONEq(t, `{"response_token":"sha256=W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM="}`, out)
}

func TestCRC_MissingSecret(t *testing.T) {
	t.Setenv("TWITTER_CONSUMER_SECRET", "")
	_, err := execute(t, "crc", "abc")
	assert.Error(t, err)
}

func TestCRC_RequiresToken(t *testing.T) {
	_, err := execute(t, "crc")
	assert.Error(t, err)
}

func TestTelegram_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	tg, _, err := cmd.Find([]string{"telegram"})
	require.NoError(t, err)

	var names []string
	for _, c := range tg.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"me", "send", "set-webhook", "delete-webhook", "webhook-info"}, names)
}

func localArchive(t *testing.T) storage.Storage {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ARCHIVE_PROVIDER", "local")
	t.Setenv("ARCHIVE_LOCAL_PATH", dir)
	t.Setenv("AUTO_START_SERVICES", "false")

	archive, err := archiveStorage()
	require.NoError(t, err)
	return archive
}

func TestArchive_GetExistsRm(t *testing.T) {
	archive := localArchive(t)
	key := "webhooks/twitter/2026/05/06/abc.json"
	require.NoError(t, archive.Put(context.Background(), key, strings.NewReader(`{"data":{"id":"1"}}`), storage.PutOptions{}))

	out, err := execute(t, "archive", "exists", key)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "archive", "get", key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":"1"}}`, out)

	_, err = execute(t, "archive", "rm", key)
	require.NoError(t, err)

	out, err = execute(t, "archive", "exists", key)
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestArchive_GetMissing(t *testing.T) {
	localArchive(t)
	_, err := execute(t, "archive", "get", "webhooks/twitter/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no archived payload at webhooks/twitter/missing.json")
}

func TestArchive_Disabled(t *testing.T) {
	t.Setenv("ARCHIVE_PROVIDER", "none")
	t.Setenv("AUTO_START_SERVICES", "false")
	_, err := execute(t, "archive", "exists", "a.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARCHIVE_PROVIDER")
}

func TestEvents_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTO_START_SERVICES", "false")
	_, err := execute(t, "events", "count")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}
