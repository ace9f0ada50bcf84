package catalog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"reelbot/internal/catalog"
	"reelbot/internal/services"
	"reelbot/internal/tmdb"
)

type stubSearcher struct {
	calls   atomic.Int32
	results []tmdb.Result
	err     error
	gate    chan struct{}
}

func (s *stubSearcher) SearchMovie(ctx context.Context, query string) (*tmdb.Response, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &tmdb.Response{Page: 1, Results: s.results}, nil
}

func TestResolvePicksMostVoted(t *testing.T) {
	searcher := &stubSearcher{results: []tmdb.Result{
		{Title: "Inception: The Cobol Job", ReleaseDate: "2010-12-07", VoteCount: 300},
		{Title: "Inception", ReleaseDate: "2010-07-15", Overview: "Dreams.", VoteCount: 35000},
		{Title: "Inception (fan edit)", ReleaseDate: "", VoteCount: 35000},
	}}
	resolver := catalog.NewResolver(searcher)

	got, err := resolver.Resolve(context.Background(), "Inception")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := catalog.Candidate{Title: "Inception", ReleaseDate: "2010-07-15", Year: "2010", Overview: "Dreams.", VoteCount: 35000}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidate mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveNotFound(t *testing.T) {
	resolver := catalog.NewResolver(&stubSearcher{})
	if _, err := resolver.Resolve(context.Background(), "xyzzy"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveBlankQueryIsNotFound(t *testing.T) {
	searcher := &stubSearcher{}
	resolver := catalog.NewResolver(searcher)
	if _, err := resolver.Resolve(context.Background(), "   "); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if searcher.calls.Load() != 0 {
		t.Fatal("blank query must not reach the catalog")
	}
}

func TestResolveWrapsFailures(t *testing.T) {
	searcher := &stubSearcher{err: &tmdb.StatusError{StatusCode: 500}}
	resolver := catalog.NewResolver(searcher)
	_, err := resolver.Resolve(context.Background(), "Heat")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
	if errors.Is(err, catalog.ErrNotFound) {
		t.Fatal("failure must be distinguishable from NotFound")
	}
	var statusErr *tmdb.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected wrapped StatusError, got %v", err)
	}
}

func TestResolveTimesOut(t *testing.T) {
	searcher := &stubSearcher{gate: make(chan struct{})}
	resolver := catalog.NewResolver(searcher, catalog.WithTimeout(10*time.Millisecond))
	_, err := resolver.Resolve(context.Background(), "Heat")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
}

func TestResolveCachesAnswersButNotErrors(t *testing.T) {
	searcher := &stubSearcher{results: []tmdb.Result{{Title: "Heat", ReleaseDate: "1995-12-15", VoteCount: 7000}}}
	resolver := catalog.NewResolver(searcher, catalog.WithCache(8, time.Minute))

	for _, query := range []string{"Heat", "HEAT", " heat "} {
		if _, err := resolver.Resolve(context.Background(), query); err != nil {
			t.Fatalf("Resolve(%q): %v", query, err)
		}
	}
	if got := searcher.calls.Load(); got != 1 {
		t.Fatalf("expected one catalog call, got %d", got)
	}

	failing := &stubSearcher{err: errors.New("boom")}
	resolver = catalog.NewResolver(failing, catalog.WithCache(8, time.Minute))
	for range 2 {
		_, _ = resolver.Resolve(context.Background(), "Heat")
	}
	if got := failing.calls.Load(); got != 2 {
		t.Fatalf("errors must not be cached, got %d calls", got)
	}
}

func TestResolveCollapsesConcurrentLookups(t *testing.T) {
	searcher := &stubSearcher{
		results: []tmdb.Result{{Title: "Alien", ReleaseDate: "1979-05-25", VoteCount: 14000}},
		gate:    make(chan struct{}),
	}
	resolver := catalog.NewResolver(searcher)

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			if _, err := resolver.Resolve(context.Background(), "Alien"); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(searcher.gate)
	wg.Wait()

	if got := searcher.calls.Load(); got >= callers {
		t.Fatalf("lookups were not collapsed: %d calls for %d callers", got, callers)
	}
}

func TestReleaseYear(t *testing.T) {
	cases := map[string]string{
		"2010-07-15": "2010",
		"1995":       "1995",
		"":           "",
	}
	for input, want := range cases {
		if got := catalog.ReleaseYear(input); got != want {
			t.Errorf("ReleaseYear(%q) = %q, want %q", input, got, want)
		}
	}
}

type watchedSearcher struct {
	calls     atomic.Int32
	started   chan struct{}
	release   chan struct{}
	cancelled atomic.Bool
}

func (s *watchedSearcher) SearchMovie(ctx context.Context, query string) (*tmdb.Response, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	select {
	case <-s.release:
	case <-ctx.Done():
		s.cancelled.Store(true)
		return nil, ctx.Err()
	}
	return &tmdb.Response{Page: 1, Results: []tmdb.Result{{Title: "Heat", ReleaseDate: "1995-12-15", VoteCount: 7000}}}, nil
}

func TestResolveSharedLookupSurvivesFirstCallerCancel(t *testing.T) {
	searcher := &watchedSearcher{started: make(chan struct{}), release: make(chan struct{})}
	resolver := catalog.NewResolver(searcher, catalog.WithCache(8, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := resolver.Resolve(ctx, "Heat")
		firstErr <- err
	}()
	<-searcher.started
	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}

	second := make(chan error, 1)
	go func() {
		got, err := resolver.Resolve(context.Background(), "heat")
		if err == nil && got.Title != "Heat" {
			err = errors.New("unexpected title " + got.Title)
		}
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(searcher.release)
	if err := <-second; err != nil {
		t.Fatalf("second caller: %v", err)
	}

	if searcher.cancelled.Load() {
		t.Fatal("shared search was cancelled by the first caller")
	}
	if got := searcher.calls.Load(); got != 1 {
		t.Fatalf("expected one catalog call, got %d", got)
	}
}
