package intent

import (
	"regexp"
	"strings"
)

// Kind identifies a recognized command.
type Kind int

const (
	// None is the zero Kind; Classify never returns it with ok=true.
	None Kind = iota
	ListQueue
	LookupMovie
	AddMovie
	RemoveMovie
)

// String returns the log-friendly kind name.
func (k Kind) String() string {
	switch k {
	case ListQueue:
		return "list_queue"
	case LookupMovie:
		return "lookup_movie"
	case AddMovie:
		return "add_movie"
	case RemoveMovie:
		return "remove_movie"
	default:
		return "none"
	}
}

// Intent is a classified message.
type Intent struct {
	Kind  Kind
	Query string
	// Force is set for AddMovie when the message asks to skip the catalog.
	Force bool
}

var quoteReplacer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	"„", `"`,
)

// Normalize rewrites typographic quotes to their ASCII forms.
func Normalize(text string) string {
	return quoteReplacer.Replace(text)
}

type recognizer struct {
	kind     Kind
	pattern  *regexp.Regexp
	hasQuery bool
}

var (
	forcePattern = regexp.MustCompile(`(?i)\bforce\b`)

	defaultRecognizers = []recognizer{
		{kind: ListQueue, pattern: regexp.MustCompile(`(?i)(?:mo+vie|film|(?:motion|moving) picture) (?:list|queue)`)},
		{kind: LookupMovie, pattern: regexp.MustCompile(`(?i)(?:search|look.*up|what's|what is|find)(?: (?:"(.*)"|_(.*)_)| (.*))`), hasQuery: true},
		{kind: AddMovie, pattern: regexp.MustCompile(`(?i)(?:add|push) (?:(?:"(.*)"|_(.*)_)|(.*))`), hasQuery: true},
		{kind: RemoveMovie, pattern: regexp.MustCompile(`(?i)remove (?:(?:"(.*)"|_(.*)_)|(.*))`), hasQuery: true},
	}
)

// Classifier recognizes commands in message text. The zero value is not
// usable; call NewClassifier.
type Classifier struct {
	recognizers []recognizer
}

// NewClassifier returns a classifier with the standard recognizers.
func NewClassifier() *Classifier {
	return &Classifier{recognizers: defaultRecognizers}
}

// Classify normalizes text and returns the first matching intent. ok is false
// when the text is not a command.
func (c *Classifier) Classify(text string) (Intent, bool) {
	text = Normalize(text)
	for _, r := range c.recognizers {
		loc := r.pattern.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		result := Intent{Kind: r.kind}
		if r.hasQuery {
			result.Query = extractQuery(text, loc)
		}
		if r.kind == AddMovie {
			result.Force = forcePattern.MatchString(text)
		}
		return result, true
	}
	return Intent{}, false
}

// extractQuery returns the first participating capture group. A group that
// matched the empty string wins over later groups.
func extractQuery(text string, loc []int) string {
	for group := 1; 2*group+1 < len(loc); group++ {
		start, end := loc[2*group], loc[2*group+1]
		if start < 0 {
			continue
		}
		return cleanQuery(text[start:end])
	}
	return ""
}

func cleanQuery(query string) string {
	query = strings.TrimSpace(query)
	query = strings.TrimRight(query, "?")
	return strings.TrimSpace(query)
}
