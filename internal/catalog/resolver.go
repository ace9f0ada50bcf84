package catalog

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"reelbot/internal/logging"
	"reelbot/internal/services"
	"reelbot/internal/tmdb"
)

// ErrNotFound reports that the catalog returned no matches.
var ErrNotFound = errors.New("no matching movie")

const defaultTimeout = 10 * time.Second

// Candidate is the best match for a query.
type Candidate struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Year        string `json:"year"`
	Overview    string `json:"overview"`
	VoteCount   int64  `json:"vote_count"`
}

type cached struct {
	candidate Candidate
	found     bool
}

// Resolver looks movies up through a tmdb.Searcher.
type Resolver struct {
	searcher tmdb.Searcher
	logger   *slog.Logger
	timeout  time.Duration
	cache    *expirable.LRU[string, cached]
	group    singleflight.Group
}

// Option configures a Resolver.
type Option func(*resolverOptions)

type resolverOptions struct {
	logger    *slog.Logger
	timeout   time.Duration
	cacheSize int
	cacheTTL  time.Duration
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolverOptions) { o.logger = logger }
}

// WithTimeout bounds each catalog request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *resolverOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithCache enables result caching. A size of zero disables it.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *resolverOptions) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// NewResolver builds a Resolver. Caching is off unless WithCache is given.
func NewResolver(searcher tmdb.Searcher, opts ...Option) *Resolver {
	options := resolverOptions{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&options)
	}
	logger := options.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Resolver{
		searcher: searcher,
		logger:   logging.NewComponentLogger(logger, "catalog"),
		timeout:  options.timeout,
	}
	if options.cacheSize > 0 {
		r.cache = expirable.NewLRU[string, cached](options.cacheSize, nil, options.cacheTTL)
	}
	return r
}

// Resolve returns the most-voted match for query. It returns ErrNotFound when
// the catalog has no results; transport and API failures carry the
// services.ErrExternalService or services.ErrTimeout marker.
func (r *Resolver) Resolve(ctx context.Context, query string) (Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Candidate{}, ErrNotFound
	}
	key := cases.Fold().String(query)

	if r.cache != nil {
		if hit, ok := r.cache.Get(key); ok {
			r.logger.Debug("catalog cache hit", logging.String("query", query), logging.Bool("found", hit.found))
			return hit.result()
		}
	}

	// The shared lookup outlives any single caller; each caller waits on its
	// own ctx and the search keeps its own timeout.
	searchCtx := context.WithoutCancel(ctx)
	results := r.group.DoChan(key, func() (any, error) {
		entry, err := r.search(searchCtx, query)
		if err == nil && r.cache != nil {
			r.cache.Add(key, entry)
		}
		return entry, err
	})

	var res singleflight.Result
	select {
	case res = <-results:
	case <-ctx.Done():
		return Candidate{}, ctx.Err()
	}
	if res.Err != nil {
		return Candidate{}, res.Err
	}
	entry := res.Val.(cached)
	if res.Shared {
		r.logger.Debug("catalog lookup shared", logging.String("query", query))
	}
	return entry.result()
}

func (r *Resolver) search(ctx context.Context, query string) (cached, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.searcher.SearchMovie(ctx, query)
	if err != nil {
		marker := services.ErrExternalService
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		r.logger.Warn("catalog lookup failed",
			logging.String(logging.FieldEventType, "catalog_lookup_failed"),
			logging.String("query", query),
			logging.Duration("latency", time.Since(start)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tmdb.api_token and network access"),
		)
		return cached{}, services.Wrap(marker, "catalog", "search", query, err)
	}

	best, ok := rank(resp.Results)
	r.logger.Debug("catalog lookup complete",
		logging.String("query", query),
		logging.Int("results", len(resp.Results)),
		logging.Bool("found", ok),
		logging.Duration("latency", time.Since(start)),
	)
	if !ok {
		return cached{}, nil
	}
	return cached{candidate: best, found: true}, nil
}

func (c cached) result() (Candidate, error) {
	if !c.found {
		return Candidate{}, ErrNotFound
	}
	return c.candidate, nil
}

// rank picks the result with the highest vote count; ties keep catalog order.
func rank(results []tmdb.Result) (Candidate, bool) {
	if len(results) == 0 {
		return Candidate{}, false
	}
	ordered := slices.Clone(results)
	slices.SortStableFunc(ordered, func(a, b tmdb.Result) int {
		switch {
		case a.VoteCount > b.VoteCount:
			return -1
		case a.VoteCount < b.VoteCount:
			return 1
		default:
			return 0
		}
	})
	best := ordered[0]
	return Candidate{
		Title:       strings.TrimSpace(best.Title),
		ReleaseDate: best.ReleaseDate,
		Year:        ReleaseYear(best.ReleaseDate),
		Overview:    best.Overview,
		VoteCount:   best.VoteCount,
	}, true
}

// ReleaseYear returns the text before the first '-' of a release date.
func ReleaseYear(releaseDate string) string {
	year, _, _ := strings.Cut(strings.TrimSpace(releaseDate), "-")
	return year
}
