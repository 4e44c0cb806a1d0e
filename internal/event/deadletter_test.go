package event

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

func TestDeadLetter_WriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dl.jsonl")
	w, err := NewDeadLetterWriter(path)
	require.NoError(t, err)
	fixed := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	evt := NewChestOpenedEvent("ann", &domain.OpenChestResult{ChestID: 3, Requested: 2, Opened: 1, CoinsSpent: 10})
	require.NoError(t, w.Write(evt, 4, errors.New("handler down")))
	require.NoError(t, w.Write(Event{Type: LevelUp}, 1, nil))
	require.NoError(t, w.Close())

	entries, err := ReadDeadLetters(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, ChestOpened, first.Event.Type)
	assert.Equal(t, 4, first.Attempts)
	assert.Equal(t, "handler down", first.LastError)
	assert.True(t, fixed.Equal(first.Timestamp))

	payload, err := DecodePayload[domain.ChestOpenedPayload](first.Event.Payload)
	require.NoError(t, err)
	assert.Equal(t, "ann", payload.UserID)
	assert.Equal(t, 3, payload.ChestID)

	assert.Empty(t, entries[1].LastError)
}

func TestReadDeadLetters_Errors(t *testing.T) {
	_, err := ReadDeadLetters(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"attempts":1}`+"\n\n{broken\n"), 0o600))
	entries, err := ReadDeadLetters(path)
	assert.ErrorContains(t, err, "line 3")
	assert.Len(t, entries, 1)
}
