package queue

import "errors"

var (
	// ErrNotFound reports that no queued movie matched a removal query.
	ErrNotFound = errors.New("movie not found in queue")
	// ErrEmptyTitle rejects movies without a title.
	ErrEmptyTitle = errors.New("movie title must not be empty")
	// ErrLocked reports that another process holds the queue lock.
	ErrLocked = errors.New("queue is locked by another process")
	// ErrClosed rejects mutations after Close.
	ErrClosed = errors.New("queue store is closed")
)
