package executor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistory_GetUnknownAccount(t *testing.T) {
	h := openTestHistory(t)

	rec, err := h.Get(context.Background(), "unknown-account")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Attempts)
	assert.False(t, rec.DeadLettered)
	assert.True(t, rec.NextEligible.IsZero())
}

func TestHistory_RecordFailure(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()
	eligible := time.Now().Add(8 * time.Second).UTC()

	attempts, err := h.RecordFailure(ctx, "acct-1", 42, "rpc timeout", "run-a", eligible)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	attempts, err = h.RecordFailure(ctx, "acct-1", 42, "rpc timeout again", "run-a", eligible)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	rec, err := h.Get(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Attempts)
	assert.Equal(t, "rpc timeout again", rec.LastError)
	assert.WithinDuration(t, eligible, rec.NextEligible, time.Second)
}

func TestHistory_DeadLetter(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	_, err := h.RecordFailure(ctx, "acct-2", 7, "bad ciphertext", "run-a", time.Now())
	require.NoError(t, err)
	require.NoError(t, h.DeadLetter(ctx, "acct-2", "attempts exhausted"))

	rec, err := h.Get(ctx, "acct-2")
	require.NoError(t, err)
	assert.True(t, rec.DeadLettered)
	assert.Equal(t, "attempts exhausted", rec.LastError)
}

func TestHistory_CompletionClearsAttempts(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	_, err := h.RecordFailure(ctx, "acct-3", 9, "transient", "run-a", time.Now())
	require.NoError(t, err)

	require.NoError(t, h.RecordCompletion(ctx, "acct-3", 9, "sig111", "abcd", "run-a"))

	rec, err := h.Get(ctx, "acct-3")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Attempts, "completion must clear attempt state")
}

func TestHistory_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	ctx := context.Background()

	h, err := OpenHistory(path)
	require.NoError(t, err)
	_, err = h.RecordFailure(ctx, "acct-4", 1, "boom", "run-a", time.Now())
	require.NoError(t, err)
	require.NoError(t, h.Close())

	h2, err := OpenHistory(path)
	require.NoError(t, err)
	defer h2.Close()

	rec, err := h2.Get(ctx, "acct-4")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Attempts)
}
