package recorder

import "time"

// Fetch outcomes.
const (
	StatusOK     = "OK"
	StatusEmpty  = "EMPTY"
	StatusFailed = "FAILED"
)

// FetchEvent is one audit row describing a fetch attempt. Only the outcome is
// kept; bars and indicator values are never stored.
type FetchEvent struct {
	ID       string
	At       time.Time
	Symbol   string
	Interval string
	Period   string
	Source   string
	Bars     int
	Status   string // StatusOK, StatusEmpty or StatusFailed
	Error    string
	Duration time.Duration
}

// Recorder persists the fetch audit log.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	RecentFetches(limit int) ([]FetchEvent, error)
	Close() error
}
