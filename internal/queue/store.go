package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"reelbot/internal/logging"
	"reelbot/internal/services"
)

const (
	defaultFlushAttempts  = 3
	defaultInitialBackoff = 10 * time.Millisecond
	defaultMaxBackoff     = 200 * time.Millisecond
)

// Store is the in-memory queue backed by a Persister.
type Store struct {
	mu        sync.Mutex
	persister Persister
	movies    []Movie
	logger    *slog.Logger
	closed    bool

	flushAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for flush diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, "queue")
		}
	}
}

// WithFlushAttempts sets how many times a flush is tried before giving up.
func WithFlushAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.flushAttempts = n
		}
	}
}

// WithBackoff overrides the delay between flush attempts. The delay doubles
// after each failure up to maxDelay.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(s *Store) {
		if initial >= 0 {
			s.initialBackoff = initial
		}
		if maxDelay >= initial {
			s.maxBackoff = maxDelay
		}
	}
}

// NewStore returns an empty store writing through persister. Call Load to
// read the existing snapshot.
func NewStore(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister:      persister,
		movies:         []Movie{},
		logger:         logging.NewNop(),
		flushAttempts:  defaultFlushAttempts,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open constructs a store and loads its snapshot.
func Open(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	s := NewStore(persister, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenPersister builds the persister for the named backend ("json" or
// "sqlite").
func OpenPersister(ctx context.Context, backend, path string) (Persister, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "json":
		return NewFilePersister(path), nil
	case "sqlite":
		return OpenSQLitePersister(ctx, path)
	default:
		return nil, fmt.Errorf("unknown queue backend %q", backend)
	}
}

// Load replaces the in-memory queue with the durable snapshot.
func (s *Store) Load(ctx context.Context) error {
	movies, err := s.persister.Load(ctx)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "queue", "load", "", err)
	}
	s.mu.Lock()
	s.movies = movies
	s.mu.Unlock()
	s.logger.Debug("queue loaded", logging.Int("movies", len(movies)))
	return nil
}

// List returns a copy of the queue, oldest request first.
func (s *Store) List() []Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMovies(s.movies)
}

// Len returns the number of queued movies.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movies)
}

// Add appends movie and flushes. The queue is unchanged if the flush fails.
func (s *Store) Add(ctx context.Context, movie Movie) error {
	if err := movie.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	previous := s.movies
	next := make([]Movie, len(previous), len(previous)+1)
	copy(next, previous)
	next = append(next, movie.clone())
	s.movies = next

	if err := s.flushLocked(ctx); err != nil {
		s.movies = previous
		return err
	}
	s.logger.Info("movie queued",
		logging.String("title", movie.Title),
		logging.String(logging.FieldUser, movie.Requestor),
		logging.Int("queue_length", len(next)),
	)
	return nil
}

// Remove deletes the first movie whose title contains query, ignoring case,
// and flushes. It returns ErrNotFound when nothing matches or query is blank.
func (s *Store) Remove(ctx context.Context, query string) (Movie, error) {
	needle := strings.TrimSpace(query)
	if needle == "" {
		return Movie{}, ErrNotFound
	}
	folder := cases.Fold()
	needle = folder.String(needle)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Movie{}, ErrClosed
	}

	index := -1
	for i, movie := range s.movies {
		if strings.Contains(folder.String(movie.Title), needle) {
			index = i
			break
		}
	}
	if index < 0 {
		return Movie{}, ErrNotFound
	}

	previous := s.movies
	removed := previous[index].clone()
	next := make([]Movie, 0, len(previous)-1)
	next = append(next, previous[:index]...)
	next = append(next, previous[index+1:]...)
	s.movies = next

	if err := s.flushLocked(ctx); err != nil {
		s.movies = previous
		return Movie{}, err
	}
	s.logger.Info("movie removed",
		logging.String("title", removed.Title),
		logging.Int("queue_length", len(next)),
	)
	return removed, nil
}

// Flush writes the current queue.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.flushLocked(ctx)
}

// Close waits for any in-flight mutation to finish its flush, then releases
// the persister. Later mutations fail with ErrClosed; List and Len keep
// serving the last state.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if closer, ok := s.persister.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Store) flushLocked(ctx context.Context) error {
	snapshot := cloneMovies(s.movies)
	delay := s.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= s.flushAttempts; attempt++ {
		lastErr = s.persister.Save(ctx, snapshot)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			break
		}
		if attempt == s.flushAttempts {
			break
		}
		s.logger.Warn("queue flush failed; retrying",
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(lastErr),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			lastErr = ctx.Err()
			return services.Wrap(services.ErrPersistence, "queue", "flush", "", lastErr)
		}
		if next := delay * 2; next <= s.maxBackoff {
			delay = next
		}
	}
	return services.Wrap(services.ErrPersistence, "queue", "flush",
		fmt.Sprintf("gave up after %d attempts", s.flushAttempts), lastErr)
}
