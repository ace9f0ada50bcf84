package api

// QueueMovie describes a queued movie in a transport-friendly format.
type QueueMovie struct {
	Position          int         `json:"position"`
	Title             string      `json:"title"`
	Requestor         string      `json:"requestor"`
	PlannedMovieNight *MovieNight `json:"plannedMovieNight,omitempty"`
}

// MovieNight is a planned screening.
type MovieNight struct {
	Host string `json:"host"`
	Date string `json:"date"`
}

// QueueListResponse is the GET /api/queue payload.
type QueueListResponse struct {
	Count  int          `json:"count"`
	Movies []QueueMovie `json:"movies"`
}

// HealthResponse is the GET /healthz payload.
type HealthResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionId,omitempty"`
	Queued    int    `json:"queued"`
	StartedAt string `json:"startedAt,omitempty"`
}
