package router

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"reelbot/internal/catalog"
	"reelbot/internal/intent"
	"reelbot/internal/logging"
	"reelbot/internal/notifications"
	"reelbot/internal/queue"
	"reelbot/internal/replies"
	"reelbot/internal/services"
	"reelbot/internal/slack"
)

// Message is an inbound chat message.
type Message struct {
	Text      string
	UserID    string
	Channel   string
	Timestamp string
	// ThreadTS is set when the message was itself posted in a thread.
	ThreadTS string
}

// thread returns the timestamp replies should be threaded under.
func (m Message) thread() string {
	if m.ThreadTS != "" {
		return m.ThreadTS
	}
	return m.Timestamp
}

// Messenger posts and edits chat messages.
type Messenger interface {
	PostMessage(ctx context.Context, msg slack.Message) (slack.Posted, error)
	UpdateMessage(ctx context.Context, update slack.Update) error
}

// Resolver finds catalog metadata for a query.
type Resolver interface {
	Resolve(ctx context.Context, query string) (catalog.Candidate, error)
}

// Queue is the movie queue the router mutates.
type Queue interface {
	List() []queue.Movie
	Add(ctx context.Context, movie queue.Movie) error
	Remove(ctx context.Context, query string) (queue.Movie, error)
}

// Router handles chat messages addressed to the bot.
type Router struct {
	botUserID  string
	classifier *intent.Classifier
	composer   *replies.Composer
	messenger  Messenger
	resolver   Resolver
	queue      Queue
	notifier   notifications.Service
	logger     *slog.Logger
	newID      func() string
}

// Option configures a Router.
type Option func(*Router)

// WithComposer overrides the reply composer.
func WithComposer(c *replies.Composer) Option {
	return func(r *Router) {
		if c != nil {
			r.composer = c
		}
	}
}

// WithNotifier sets the push notification service.
func WithNotifier(n notifications.Service) Option {
	return func(r *Router) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logging.NewComponentLogger(logger, "router")
		}
	}
}

// WithIDGenerator overrides correlation ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Router) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New builds a Router for the bot identified by botUserID.
func New(botUserID string, messenger Messenger, resolver Resolver, q Queue, opts ...Option) *Router {
	r := &Router{
		botUserID:  strings.TrimSpace(botUserID),
		classifier: intent.NewClassifier(),
		composer:   replies.NewComposer(),
		messenger:  messenger,
		resolver:   resolver,
		queue:      q,
		notifier:   notifications.NewNoop(),
		logger:     logging.NewComponentLogger(nil, "router"),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mentions reports whether text addresses the bot.
func (r *Router) Mentions(text string) bool {
	return r.botUserID != "" && strings.Contains(text, "<@"+r.botUserID+">")
}

// Handle processes one message. It returns an error only when a reply could
// not be delivered; command failures are reported to the user instead.
func (r *Router) Handle(ctx context.Context, msg Message) error {
	if !r.Mentions(msg.Text) {
		return nil
	}
	in, ok := r.classifier.Classify(msg.Text)
	if !ok {
		r.logger.Debug("ignoring message without a command", logging.String(logging.FieldChannel, msg.Channel))
		return nil
	}

	ctx = services.WithRequestID(ctx, r.newID())
	ctx = services.WithIntent(ctx, in.Kind.String())
	ctx = services.WithChannel(ctx, msg.Channel)
	ctx = services.WithUser(ctx, msg.UserID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("handling command", logging.String("query", in.Query), logging.Bool("force", in.Force))

	req := &request{router: r, msg: msg, logger: logger}
	switch in.Kind {
	case intent.ListQueue:
		return req.listQueue(ctx)
	case intent.LookupMovie:
		return req.lookupMovie(ctx, in.Query)
	case intent.AddMovie:
		return req.addMovie(ctx, in.Query, in.Force)
	case intent.RemoveMovie:
		return req.removeMovie(ctx, in.Query)
	default:
		return nil
	}
}

// request carries per-message state through a handler.
type request struct {
	router *Router
	msg    Message
	logger *slog.Logger
}

func (q *request) reply(ctx context.Context, key string, args ...string) error {
	text := q.router.composer.Render(key, args...)
	_, err := q.router.messenger.PostMessage(context.WithoutCancel(ctx), slack.Message{
		Channel:  q.msg.Channel,
		Text:     text,
		ThreadTS: q.msg.thread(),
	})
	if err != nil {
		logging.ErrorWithContext(q.logger, "reply failed", "reply_failed",
			logging.String("reply", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check slack.bot_token scopes and channel membership"),
		)
		return err
	}
	return nil
}

func (q *request) listQueue(ctx context.Context) error {
	movies := q.router.queue.List()
	var err error
	switch len(movies) {
	case 0:
		return q.reply(ctx, replies.QueueEmpty)
	case 1:
		err = q.reply(ctx, replies.QueueSummaryOne)
	default:
		err = q.reply(ctx, replies.QueueSummaryMany, strconv.Itoa(len(movies)))
	}
	if err != nil {
		return err
	}

	sendCtx := context.WithoutCancel(ctx)
	for start := 0; start < len(movies); start += MaxBlocksPerMessage {
		page := movies[start:min(start+MaxBlocksPerMessage, len(movies))]
		if err := q.postListing(sendCtx, page); err != nil {
			return err
		}
	}
	return nil
}

// postListing posts a placeholder in the thread and fills it with one block
// per movie.
func (q *request) postListing(ctx context.Context, movies []queue.Movie) error {
	placeholder, err := q.router.messenger.PostMessage(ctx, slack.Message{
		Channel:  q.msg.Channel,
		Text:     "\u2002",
		ThreadTS: q.msg.thread(),
	})
	if err != nil {
		return err
	}
	channel := placeholder.Channel
	if channel == "" {
		channel = q.msg.Channel
	}
	return q.router.messenger.UpdateMessage(ctx, slack.Update{
		Channel: channel,
		TS:      placeholder.TS,
		Text:    FallbackText(movies),
		Blocks:  QueueBlocks(movies),
	})
}

func (q *request) lookupMovie(ctx context.Context, query string) error {
	candidate, err := q.router.resolver.Resolve(ctx, query)
	switch {
	case err == nil:
		return q.replyFound(ctx, candidate)
	case errors.Is(err, catalog.ErrNotFound):
		return q.reply(ctx, replies.LookupNotFound, query)
	default:
		q.logLookupFailure(err)
		return q.reply(ctx, replies.LookupFailed)
	}
}

func (q *request) addMovie(ctx context.Context, query string, force bool) error {
	if force {
		err := q.store(ctx, queue.Movie{Title: query, Requestor: q.msg.UserID})
		if errors.Is(err, queue.ErrEmptyTitle) {
			return q.reply(ctx, replies.AddNotFound, query)
		}
		if err != nil {
			return q.saveFailed(ctx, err)
		}
		return q.reply(ctx, replies.ForceAdded, query)
	}

	candidate, err := q.router.resolver.Resolve(ctx, query)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrNotFound):
		return q.reply(ctx, replies.AddNotFound, query)
	default:
		q.logLookupFailure(err)
		return q.reply(ctx, replies.LookupFailed)
	}

	if err := q.replyFound(ctx, candidate); err != nil {
		return err
	}
	if err := q.store(ctx, queue.Movie{Title: candidate.Title, Requestor: q.msg.UserID}); err != nil {
		return q.saveFailed(ctx, err)
	}
	return q.reply(ctx, replies.AddedToQueue)
}

func (q *request) removeMovie(ctx context.Context, query string) error {
	removed, err := q.router.queue.Remove(context.WithoutCancel(ctx), query)
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrNotFound):
		return q.reply(ctx, replies.RemoveNotFound, query)
	default:
		return q.saveFailed(ctx, err)
	}
	q.logger.Info("movie removed from queue", logging.String("title", removed.Title))
	if err := q.router.notifier.NotifyMovieRemoved(context.WithoutCancel(ctx), removed.Title); err != nil {
		q.logger.Warn("notification failed", logging.Error(err))
	}
	return q.reply(ctx, replies.Removed, removed.Title)
}

// store appends movie to the queue and notifies on success.
func (q *request) store(ctx context.Context, movie queue.Movie) error {
	if err := q.router.queue.Add(context.WithoutCancel(ctx), movie); err != nil {
		return err
	}
	q.logger.Info("movie added to queue", logging.String("title", movie.Title))
	if err := q.router.notifier.NotifyMovieAdded(context.WithoutCancel(ctx), movie.Title, movie.Requestor); err != nil {
		q.logger.Warn("notification failed", logging.Error(err))
	}
	return nil
}

func (q *request) replyFound(ctx context.Context, c catalog.Candidate) error {
	return q.reply(ctx, replies.FoundMovie, c.Year, "_"+c.Title+"_", "```"+c.Overview+"```")
}

func (q *request) saveFailed(ctx context.Context, err error) error {
	logging.ErrorWithContext(q.logger, "queue change not saved", "queue_flush_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check free space and permissions on queue.path"),
		logging.String(logging.FieldImpact, "queue left unchanged"),
	)
	if notifyErr := q.router.notifier.NotifyError(context.WithoutCancel(ctx), err, "queue save"); notifyErr != nil {
		q.logger.Warn("notification failed", logging.Error(notifyErr))
	}
	return q.reply(ctx, replies.SaveFailed)
}

func (q *request) logLookupFailure(err error) {
	hint := "check tmdb.api_token and network access"
	if errors.Is(err, services.ErrTimeout) {
		hint = "TMDB did not answer within tmdb.timeout_seconds"
	}
	logging.WarnWithContext(q.logger, "movie lookup failed", "catalog_lookup_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "user told to retry"),
	)
}
