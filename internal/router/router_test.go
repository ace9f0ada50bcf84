package router_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"reelbot/internal/catalog"
	"reelbot/internal/queue"
	"reelbot/internal/replies"
	"reelbot/internal/router"
	"reelbot/internal/services"
	"reelbot/internal/slack"
	"reelbot/internal/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var inception = catalog.Candidate{
	Title:       "Inception",
	ReleaseDate: "2010-07-15",
	Year:        "2010",
	Overview:    "A thief who steals corporate secrets through dream-sharing.",
	VoteCount:   35000,
}

type harness struct {
	router    *router.Router
	messenger *testsupport.FakeMessenger
	resolver  *testsupport.FakeResolver
	notifier  *testsupport.FakeNotifier
	store     *queue.Store
	path      string
}

func newHarness(t *testing.T, q router.Queue, candidates ...catalog.Candidate) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	h := &harness{
		messenger: &testsupport.FakeMessenger{},
		resolver:  testsupport.NewFakeResolver(candidates...),
		notifier:  &testsupport.FakeNotifier{},
		path:      cfg.Queue.Path,
	}
	if q == nil {
		h.store = testsupport.MustOpenStore(t, cfg)
		q = h.store
	}
	h.router = router.New("UBOT", h.messenger, h.resolver, q,
		router.WithComposer(replies.NewComposer(replies.WithPicker(replies.Fixed(0)))),
		router.WithNotifier(h.notifier),
		router.WithIDGenerator(func() string { return "corr-1" }),
	)
	return h
}

func (h *harness) send(t *testing.T, text string) {
	t.Helper()
	err := h.router.Handle(context.Background(), router.Message{
		Text:      text,
		UserID:    "U1",
		Channel:   "C1",
		Timestamp: "1700000000.000100",
	})
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
}

func TestAddThenRemoveScenario(t *testing.T) {
	h := newHarness(t, nil, inception)

	h.send(t, `<@UBOT> add "Inception"`)
	want := []string{
		"One of my favorites–surely you mean the 2010 classic _Inception_! To fill you in: ```A thief who steals corporate secrets through dream-sharing.```",
		"...added it to the queue!",
	}
	if diff := cmp.Diff(want, h.messenger.Texts()); diff != "" {
		t.Fatalf("add replies (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]queue.Movie{{Title: "Inception", Requestor: "U1"}}, h.store.List()); diff != "" {
		t.Fatalf("queue after add (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(testsupport.ReadFile(t, h.path)), `"title": "Inception"`) {
		t.Fatal("queue file not flushed after add")
	}

	h.send(t, `<@UBOT> remove "Inception"`)
	texts := h.messenger.Texts()
	if got := texts[len(texts)-1]; got != "I really wish you all would take the time to see it, but I removed _Inception_ from the movie queue." {
		t.Fatalf("remove reply = %q", got)
	}
	if h.store.Len() != 0 {
		t.Fatalf("queue should be empty, got %v", h.store.List())
	}
	if diff := cmp.Diff([]string{"Inception"}, h.notifier.Added); diff != "" {
		t.Fatalf("added notifications (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Inception"}, h.notifier.Removed); diff != "" {
		t.Fatalf("removed notifications (-want +got):\n%s", diff)
	}
}

func TestRepliesAreThreaded(t *testing.T) {
	h := newHarness(t, nil, inception)
	h.send(t, "<@UBOT> what is Inception")

	err := h.router.Handle(context.Background(), router.Message{
		Text: "<@UBOT> movie queue", UserID: "U1", Channel: "C1",
		Timestamp: "1700000000.000300", ThreadTS: "1700000000.000200",
	})
	if err != nil {
		t.Fatal(err)
	}

	posts := h.messenger.Posts
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ThreadTS != "1700000000.000100" || posts[0].Channel != "C1" {
		t.Fatalf("lookup reply not threaded under message: %+v", posts[0])
	}
	if posts[1].ThreadTS != "1700000000.000200" {
		t.Fatalf("reply inside a thread should use the parent ts: %+v", posts[1])
	}
}

func TestEmptyQueueListing(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, "<@UBOT> movie queue")

	if diff := cmp.Diff([]string{"The queue is currently empty, but feel free to add to it!"}, h.messenger.Texts()); diff != "" {
		t.Fatalf("replies (-want +got):\n%s", diff)
	}
	if len(h.messenger.Updates) != 0 {
		t.Fatalf("empty queue must not render blocks, got %+v", h.messenger.Updates)
	}
}

func TestQueueListing(t *testing.T) {
	h := newHarness(t, nil)
	night := time.Date(2024, 5, 1, 19, 0, 0, 0, time.UTC)
	testsupport.MustAdd(t, h.store,
		queue.Movie{Title: "Heat", Requestor: "U2"},
		queue.Movie{Title: "Alien", Requestor: "U3", PlannedMovieNight: &queue.MovieNight{Host: "U4", Date: night}},
	)

	h.send(t, "<@UBOT> film list")

	texts := h.messenger.Texts()
	if len(texts) != 2 || texts[0] != "Sure thing! There are currently 2 movies in the queue:" {
		t.Fatalf("replies = %q", texts)
	}
	if len(h.messenger.Updates) != 1 {
		t.Fatalf("expected one update, got %d", len(h.messenger.Updates))
	}
	update := h.messenger.Updates[0]
	if update.TS != "2000000000.2" || update.Channel != "C1" {
		t.Fatalf("update should target the placeholder, got %+v", update)
	}
	want := slack.Update{
		Channel: "C1",
		TS:      "2000000000.2",
		Text:    "Heat, Alien",
		Blocks: []slack.Block{
			slack.SectionFields("_Heat_ requested by <@U2>"),
			slack.SectionFields(
				"_Alien_ requested by <@U3>",
				"Planned for <!date^1714590000^{date_short_pretty} at {time}|Wed May 1, 2024 19:00 UTC> hosted by <@U4>",
			),
		},
	}
	if diff := cmp.Diff(want, update); diff != "" {
		t.Fatalf("listing update (-want +got):\n%s", diff)
	}
}

func TestSingleMovieListing(t *testing.T) {
	h := newHarness(t, nil)
	testsupport.MustAdd(t, h.store, queue.Movie{Title: "Heat", Requestor: "U2"})
	h.send(t, "<@UBOT> movie queue")
	if got := h.messenger.Texts()[0]; got != "Sure thing! There is currently 1 movie in the queue:" {
		t.Fatalf("summary = %q", got)
	}
}

func TestForceAddSkipsResolver(t *testing.T) {
	h := newHarness(t, nil, inception)
	h.send(t, `<@UBOT> force add "My Cousin's Film"`)

	if h.resolver.Calls() != 0 {
		t.Fatalf("force add must not call the resolver, got %v", h.resolver.Queries)
	}
	if diff := cmp.Diff([]string{"Not sure if I've heard of it, but added 'My Cousin's Film' to the queue!"}, h.messenger.Texts()); diff != "" {
		t.Fatalf("replies (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]queue.Movie{{Title: "My Cousin's Film", Requestor: "U1"}}, h.store.List()); diff != "" {
		t.Fatalf("queue (-want +got):\n%s", diff)
	}
}

func TestNotFoundRepliesDiffer(t *testing.T) {
	h := newHarness(t, nil)
	h.send(t, `<@UBOT> search "xyzzy"`)
	h.send(t, `<@UBOT> add "xyzzy"`)
	h.send(t, `<@UBOT> remove "xyzzy"`)

	texts := h.messenger.Texts()
	if len(texts) != 3 {
		t.Fatalf("expected 3 replies, got %q", texts)
	}
	if texts[0] == texts[1] {
		t.Fatalf("lookup and add NotFound replies must differ: %q", texts[0])
	}
	if !strings.Contains(texts[1], "force add") || strings.Contains(texts[0], "force add") {
		t.Fatalf("only the add reply should suggest force add: %q", texts)
	}
	if texts[2] != "There isn't a movie called 'xyzzy' in the queue. Did you spell it right?" {
		t.Fatalf("remove reply = %q", texts[2])
	}
	if h.store.Len() != 0 {
		t.Fatal("NotFound paths must not change the queue")
	}
}

func TestLookupFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.Err = services.Wrap(services.ErrTimeout, "catalog", "search", "Heat", context.DeadlineExceeded)

	h.send(t, "<@UBOT> find Heat")
	h.send(t, "<@UBOT> add Heat")

	texts := h.messenger.Texts()
	failed := replies.NewComposer().Render(replies.LookupFailed)
	if diff := cmp.Diff([]string{failed, failed}, texts); diff != "" {
		t.Fatalf("replies (-want +got):\n%s", diff)
	}
	if h.store.Len() != 0 {
		t.Fatal("lookup failure must not change the queue")
	}
}

func TestIgnoresMessagesWithoutMentionOrCommand(t *testing.T) {
	h := newHarness(t, nil, inception)
	h.send(t, `add "Inception"`)
	h.send(t, `<@UOTHER> add "Inception"`)
	h.send(t, "<@UBOT> good morning")

	if len(h.messenger.Posts) != 0 {
		t.Fatalf("expected no replies, got %q", h.messenger.Texts())
	}
	if h.resolver.Calls() != 0 || h.store.Len() != 0 {
		t.Fatal("ignored messages must have no effect")
	}
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) ([]queue.Movie, error) { return []queue.Movie{}, nil }

func (failingPersister) Save(context.Context, []queue.Movie) error {
	return errors.New("read-only file system")
}

func TestSaveFailureIsReported(t *testing.T) {
	store := queue.NewStore(failingPersister{}, queue.WithFlushAttempts(1))
	h := newHarness(t, store, inception)

	h.send(t, `<@UBOT> add "Inception"`)

	texts := h.messenger.Texts()
	if len(texts) != 2 {
		t.Fatalf("expected found + save_failed replies, got %q", texts)
	}
	if want := replies.NewComposer().Render(replies.SaveFailed); texts[1] != want {
		t.Fatalf("second reply = %q, want %q", texts[1], want)
	}
	if store.Len() != 0 {
		t.Fatal("failed add must be rolled back")
	}
	if len(h.notifier.Errors) != 1 || len(h.notifier.Added) != 0 {
		t.Fatalf("notifications: errors=%v added=%v", h.notifier.Errors, h.notifier.Added)
	}
}

func TestReplyFailureIsReturned(t *testing.T) {
	h := newHarness(t, nil)
	h.messenger.PostErr = errors.New("not_in_channel")
	err := h.router.Handle(context.Background(), router.Message{Text: "<@UBOT> movie queue", UserID: "U1", Channel: "C1", Timestamp: "1.1"})
	if err == nil {
		t.Fatal("expected reply error")
	}
}

func TestLongListingSplitsIntoPages(t *testing.T) {
	h := newHarness(t, nil)
	movies := make([]queue.Movie, router.MaxBlocksPerMessage+1)
	for i := range movies {
		movies[i] = queue.Movie{Title: fmt.Sprintf("Feature %02d", i+1), Requestor: "U2"}
	}
	testsupport.MustAdd(t, h.store, movies...)

	h.send(t, "<@UBOT> movie queue")

	posts := h.messenger.Posts
	if len(posts) != 3 {
		t.Fatalf("expected summary plus two placeholders, got %d posts", len(posts))
	}
	for i, post := range posts {
		if post.ThreadTS != "1700000000.000100" {
			t.Fatalf("post %d not threaded: %+v", i, post)
		}
	}
	updates := h.messenger.Updates
	if len(updates) != 2 {
		t.Fatalf("expected two updates, got %d", len(updates))
	}
	if got := []int{len(updates[0].Blocks), len(updates[1].Blocks)}; !cmp.Equal(got, []int{50, 1}) {
		t.Fatalf("blocks per update = %v", got)
	}
	if updates[0].TS != "2000000000.2" || updates[1].TS != "2000000000.3" {
		t.Fatalf("updates should target their own placeholders: %q, %q", updates[0].TS, updates[1].TS)
	}
	if updates[1].Text != "Feature 51" {
		t.Fatalf("second page fallback = %q", updates[1].Text)
	}
	if !strings.HasPrefix(updates[0].Text, "Feature 01, Feature 02") || strings.Contains(updates[0].Text, "Feature 51") {
		t.Fatalf("first page fallback = %q", updates[0].Text)
	}
}

func TestListingInsideThreadStaysInThread(t *testing.T) {
	h := newHarness(t, nil)
	testsupport.MustAdd(t, h.store, queue.Movie{Title: "Heat", Requestor: "U2"})

	err := h.router.Handle(context.Background(), router.Message{
		Text: "<@UBOT> movie queue", UserID: "U1", Channel: "C1",
		Timestamp: "1700000000.000500", ThreadTS: "1700000000.000400",
	})
	if err != nil {
		t.Fatal(err)
	}

	posts := h.messenger.Posts
	if len(posts) != 2 {
		t.Fatalf("expected summary and placeholder, got %d posts", len(posts))
	}
	for i, post := range posts {
		if post.ThreadTS != "1700000000.000400" {
			t.Fatalf("post %d should use the parent ts: %+v", i, post)
		}
	}
	if len(h.messenger.Updates) != 1 {
		t.Fatalf("expected one update, got %d", len(h.messenger.Updates))
	}
	if update := h.messenger.Updates[0]; update.TS != "2000000000.2" || update.Channel != "C1" {
		t.Fatalf("update should target the threaded placeholder, got %+v", update)
	}
}
