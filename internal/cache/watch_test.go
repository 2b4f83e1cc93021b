package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InitialScan(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Store([]byte("one"))
	require.NoError(t, err)
	_, err = c.Store([]byte("two"))
	require.NoError(t, err)

	w, err := NewWatcher(c)
	require.NoError(t, err)
	defer w.Close()

	stats := w.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(6), stats.TotalBytes)
}

func TestWatcher_TracksNewEntries(t *testing.T) {
	c := newTestCache(t)

	w, err := NewWatcher(c)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, 0, w.Stats().Entries)

	_, err = c.Store([]byte("fresh entry"))
	require.NoError(t, err)

	// fsnotify delivery is asynchronous.
	deadline := time.After(3 * time.Second)
	for w.Stats().Entries != 1 {
		select {
		case <-deadline:
			t.Fatalf("watcher never observed the new entry, stats=%+v", w.Stats())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
