package api

import "reelbot/internal/queue"

// FromMovies converts queue entries, numbering them from 1 in queue order.
func FromMovies(movies []queue.Movie) []QueueMovie {
	out := make([]QueueMovie, 0, len(movies))
	for i, movie := range movies {
		out = append(out, FromMovie(i+1, movie))
	}
	return out
}

// FromMovie converts one queue entry.
func FromMovie(position int, movie queue.Movie) QueueMovie {
	view := QueueMovie{
		Position:  position,
		Title:     movie.Title,
		Requestor: movie.Requestor,
	}
	if night := movie.PlannedMovieNight; night != nil {
		view.PlannedMovieNight = &MovieNight{Host: night.Host, Date: queue.FormatDate(night.Date)}
	}
	return view
}

// NewQueueListResponse builds the queue listing payload.
func NewQueueListResponse(movies []queue.Movie) QueueListResponse {
	return QueueListResponse{Count: len(movies), Movies: FromMovies(movies)}
}
