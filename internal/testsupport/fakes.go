package testsupport

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"reelbot/internal/catalog"
	"reelbot/internal/slack"
)

// FakeMessenger records chat traffic.
type FakeMessenger struct {
	mu      sync.Mutex
	Posts   []slack.Message
	Updates []slack.Update
	// PostErr, when set, fails every PostMessage call.
	PostErr error
	next    int
}

// PostMessage records msg and returns a synthetic timestamp.
func (m *FakeMessenger) PostMessage(_ context.Context, msg slack.Message) (slack.Posted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PostErr != nil {
		return slack.Posted{}, m.PostErr
	}
	m.Posts = append(m.Posts, msg)
	m.next++
	return slack.Posted{Channel: msg.Channel, TS: "2000000000." + strconv.Itoa(m.next)}, nil
}

// UpdateMessage records update.
func (m *FakeMessenger) UpdateMessage(_ context.Context, update slack.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, update)
	return nil
}

// Texts returns the text of every posted message in order.
func (m *FakeMessenger) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, 0, len(m.Posts))
	for _, post := range m.Posts {
		texts = append(texts, post.Text)
	}
	return texts
}

// FakeResolver answers from a fixed table keyed by case-folded query.
type FakeResolver struct {
	mu      sync.Mutex
	movies  map[string]catalog.Candidate
	Err     error
	Queries []string
}

// NewFakeResolver returns a resolver that knows the given candidates by title.
func NewFakeResolver(candidates ...catalog.Candidate) *FakeResolver {
	r := &FakeResolver{movies: make(map[string]catalog.Candidate, len(candidates))}
	for _, c := range candidates {
		r.movies[cases.Fold().String(c.Title)] = c
	}
	return r
}

// Resolve returns the known candidate, Err, or catalog.ErrNotFound.
func (r *FakeResolver) Resolve(_ context.Context, query string) (catalog.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Queries = append(r.Queries, query)
	if r.Err != nil {
		return catalog.Candidate{}, r.Err
	}
	if c, ok := r.movies[cases.Fold().String(strings.TrimSpace(query))]; ok {
		return c, nil
	}
	return catalog.Candidate{}, catalog.ErrNotFound
}

// Calls returns how many lookups were made.
func (r *FakeResolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Queries)
}

// FakeNotifier records notifications.
type FakeNotifier struct {
	mu      sync.Mutex
	Added   []string
	Removed []string
	Errors  []string
}

func (n *FakeNotifier) NotifyMovieAdded(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Added = append(n.Added, title)
	return nil
}

func (n *FakeNotifier) NotifyMovieRemoved(_ context.Context, title string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Removed = append(n.Removed, title)
	return nil
}

func (n *FakeNotifier) NotifyError(_ context.Context, err error, label string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, label+": "+err.Error())
	return nil
}

func (n *FakeNotifier) TestNotification(context.Context) error { return nil }
