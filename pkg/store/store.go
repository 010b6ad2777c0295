package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a source
var ErrNotFound = errors.New("not found")

// maxEvents is how many events are kept
const maxEvents = 500

// Snapshot is the last payload published for a source
type Snapshot struct {
	Slug       string                 `json:"slug"`
	Name       string                 `json:"name"`
	EntityID   string                 `json:"entity_id"`
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
	Degraded   bool                   `json:"degraded"`  // error or no data state
	Published  bool                   `json:"published"` // accepted by Home Assistant
	UpdatedAt  time.Time              `json:"updated_at"`
}

type Storage interface {
	AddEvent(event string) error  // add event
	GetEvents() ([]string, error) // get events from oldest to newest

	SetSnapshot(snapshot Snapshot) error       // set snapshot of a source
	GetSnapshot(slug string) (Snapshot, error) // get snapshot of a source or ErrNotFound
	GetSnapshots() ([]Snapshot, error)         // get all snapshots ordered by slug
}
