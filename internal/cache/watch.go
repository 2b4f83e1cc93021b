package cache

import (
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Stats is a point-in-time view of the store.
type Stats struct {
	Entries    int
	TotalBytes int64
}

// Watcher keeps live entry statistics by watching the cache directory, so
// per-cycle reporting never rescans the store.
type Watcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	stats Stats

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching the cache directory. The initial stats come
// from one full scan; fsnotify events keep them current afterwards.
func NewWatcher(c *Cache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(c.dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{cache: c, watcher: fsw, done: make(chan struct{})}
	w.rescan()

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Stats returns the current view.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".bin") {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.rescan()
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// rescan recounts the directory. Entry counts are small (one file per
// distinct ciphertext), so a full recount per event is acceptable.
func (w *Watcher) rescan() {
	uris, err := w.cache.List()
	if err != nil {
		return
	}
	size, err := w.cache.SizeBytes()
	if err != nil {
		return
	}
	w.mu.Lock()
	w.stats = Stats{Entries: len(uris), TotalBytes: size}
	w.mu.Unlock()
}
