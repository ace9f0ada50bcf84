package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk timestamp format (JavaScript's toISOString).
const DateLayout = "2006-01-02T15:04:05.000Z"

// MovieNight records a planned screening for a queued movie.
type MovieNight struct {
	Host string
	Date time.Time
}

// Movie is one queued request.
type Movie struct {
	Title             string
	Requestor         string
	PlannedMovieNight *MovieNight
}

type movieNightRecord struct {
	Host string `json:"host"`
	Date string `json:"date"`
}

type movieRecord struct {
	Title             string            `json:"title"`
	Requestor         string            `json:"requestor"`
	PlannedMovieNight *movieNightRecord `json:"plannedMovieNight,omitempty"`
}

// FormatDate renders t in the durable representation.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate accepts any RFC 3339 timestamp, with or without fractional seconds.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// MarshalJSON writes the movie in the durable queue format.
func (m Movie) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.record())
}

// UnmarshalJSON reads a movie from the durable queue format.
func (m *Movie) UnmarshalJSON(data []byte) error {
	var rec movieRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	movie, err := rec.movie()
	if err != nil {
		return err
	}
	*m = movie
	return nil
}

func (m Movie) record() movieRecord {
	rec := movieRecord{Title: m.Title, Requestor: m.Requestor}
	if m.PlannedMovieNight != nil {
		rec.PlannedMovieNight = &movieNightRecord{
			Host: m.PlannedMovieNight.Host,
			Date: FormatDate(m.PlannedMovieNight.Date),
		}
	}
	return rec
}

func (r movieRecord) movie() (Movie, error) {
	movie := Movie{Title: r.Title, Requestor: r.Requestor}
	if r.PlannedMovieNight != nil {
		date, err := ParseDate(r.PlannedMovieNight.Date)
		if err != nil {
			return Movie{}, fmt.Errorf("movie %q: planned movie night date: %w", r.Title, err)
		}
		movie.PlannedMovieNight = &MovieNight{Host: r.PlannedMovieNight.Host, Date: date}
	}
	return movie, nil
}

// Validate reports whether the movie can be stored.
func (m Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (m Movie) clone() Movie {
	if m.PlannedMovieNight != nil {
		night := *m.PlannedMovieNight
		m.PlannedMovieNight = &night
	}
	return m
}

func cloneMovies(movies []Movie) []Movie {
	out := make([]Movie, len(movies))
	for i, movie := range movies {
		out[i] = movie.clone()
	}
	return out
}
