package testsupport

import (
	"context"
	"testing"

	"reelbot/internal/config"
	"reelbot/internal/queue"
)

// MustOpenStore opens the queue described by cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	ctx := context.Background()
	persister, err := queue.OpenPersister(ctx, cfg.Queue.Backend, cfg.Queue.Path)
	if err != nil {
		t.Fatalf("queue.OpenPersister: %v", err)
	}
	store, err := queue.Open(ctx, persister, queue.WithFlushAttempts(cfg.Queue.FlushAttempts))
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustAdd appends movies to store.
func MustAdd(t testing.TB, store *queue.Store, movies ...queue.Movie) {
	t.Helper()

	for _, movie := range movies {
		if err := store.Add(context.Background(), movie); err != nil {
			t.Fatalf("store.Add(%q): %v", movie.Title, err)
		}
	}
}
