package replies

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// Keys for the supported replies.
const (
	FoundMovie       = "found_movie"
	AddedToQueue     = "added_to_queue"
	ForceAdded       = "force_added"
	AddNotFound      = "add_not_found"
	LookupNotFound   = "lookup_not_found"
	LookupFailed     = "lookup_failed"
	Removed          = "removed"
	RemoveNotFound   = "remove_not_found"
	QueueSummaryOne  = "queue_summary_one"
	QueueSummaryMany = "queue_summary_many"
	QueueEmpty       = "queue_empty"
	SaveFailed       = "save_failed"
)

var defaultPhrasings = map[string][]string{
	FoundMovie: {
		"One of my favorites–surely you mean the {0} classic {1}! To fill you in: {2}",
		"The best {0} had to offer, I'd say! If you meant {1}, that is! Here's the overview: {2}",
		"Of course, {1}! This {0} movie's about: {2}",
	},
	AddedToQueue:     {"...added it to the queue!"},
	ForceAdded:       {"Not sure if I've heard of it, but added '{0}' to the queue!"},
	AddNotFound:      {`Try as I might, I couldn't find a movie called '{0}.' Are you sure you spelled it right? If that is the name of the movie, say "force add" to force add the query text instead.`},
	LookupNotFound:   {"Try as I might, I couldn't find '{0}.' Are you sure you spelled it right?"},
	LookupFailed:     {"I couldn't reach the movie database just now. Give it another try in a minute."},
	Removed:          {"I really wish you all would take the time to see it, but I removed _{0}_ from the movie queue."},
	RemoveNotFound:   {"There isn't a movie called '{0}' in the queue. Did you spell it right?"},
	QueueSummaryOne:  {"Sure thing! There is currently 1 movie in the queue:"},
	QueueSummaryMany: {"Sure thing! There are currently {0} movies in the queue:"},
	QueueEmpty:       {"The queue is currently empty, but feel free to add to it!"},
	SaveFailed:       {"Something went wrong saving the movie queue, so nothing changed. Please try again."},
}

// Picker chooses an index in [0, n).
type Picker interface {
	Pick(n int) int
}

type randomPicker struct{}

func (randomPicker) Pick(n int) int { return rand.IntN(n) }

// Fixed returns a Picker that always picks i (clamped to the last phrasing).
func Fixed(i int) Picker { return fixedPicker(i) }

type fixedPicker int

func (f fixedPicker) Pick(n int) int {
	switch {
	case int(f) < 0:
		return 0
	case int(f) >= n:
		return n - 1
	default:
		return int(f)
	}
}

// Composer renders keyed replies.
type Composer struct {
	phrasings map[string][]string
	picker    Picker
}

// Option configures a Composer.
type Option func(*Composer)

// WithPicker replaces the random phrasing choice.
func WithPicker(p Picker) Option {
	return func(c *Composer) {
		if p != nil {
			c.picker = p
		}
	}
}

// NewComposer returns a composer with the built-in phrasings.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{phrasings: defaultPhrasings, picker: randomPicker{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phrasings returns how many variants key has.
func (c *Composer) Phrasings(key string) int {
	return len(c.phrasings[key])
}

// Render picks a phrasing for key and substitutes args for {0}, {1}, ...
// Unknown keys render empty; placeholders without an argument are left as is.
func (c *Composer) Render(key string, args ...string) string {
	set := c.phrasings[key]
	if len(set) == 0 {
		return ""
	}
	template := set[0]
	if len(set) > 1 {
		template = set[c.picker.Pick(len(set))]
	}
	return fill(template, args)
}

func fill(template string, args []string) string {
	if len(args) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(args))
	for i, arg := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", arg)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
