package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"reelbot/internal/fileutil"
)

// Persister reads and replaces the durable queue snapshot. Save must be all or
// nothing: after a failed Save, Load returns the previous snapshot.
type Persister interface {
	Load(ctx context.Context) ([]Movie, error)
	Save(ctx context.Context, movies []Movie) error
}

// FilePersister stores the queue as a JSON array.
type FilePersister struct {
	path string
}

// NewFilePersister returns a persister backed by the JSON file at path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the file location.
func (p *FilePersister) Path() string {
	return p.path
}

// Load parses the queue file. A missing or empty file is an empty queue; a
// null element or undecodable content is an error.
func (p *FilePersister) Load(ctx context.Context) ([]Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Movie{}, nil
		}
		return nil, fmt.Errorf("read queue file: %w", err)
	}
	return decodeMovies(data)
}

// Save replaces the queue file atomically.
func (p *FilePersister) Save(ctx context.Context, movies []Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeMovies(movies)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(p.path, data, 0o644)
}

func decodeMovies(data []byte) ([]Movie, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Movie{}, nil
	}
	if trimmed[0] != '[' {
		return nil, errors.New("parse queue file: top-level value must be an array")
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse queue file: %w", err)
	}
	movies := make([]Movie, 0, len(raw))
	for i, item := range raw {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			return nil, fmt.Errorf("parse queue file: entry %d is null", i)
		}
		var movie Movie
		if err := json.Unmarshal(item, &movie); err != nil {
			return nil, fmt.Errorf("parse queue file: entry %d: %w", i, err)
		}
		movies = append(movies, movie)
	}
	return movies, nil
}

func encodeMovies(movies []Movie) ([]byte, error) {
	if movies == nil {
		movies = []Movie{}
	}
	data, err := json.MarshalIndent(movies, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal queue: %w", err)
	}
	return append(data, '\n'), nil
}
