// Package syncstatus records when the last price sync cycle completed.
//
// The marker is written only after a cycle fully succeeds, so a reader can
// trust that every stored price and derived figure is at least as new as it.
package syncstatus

import (
	"context"
	"strings"
	"time"
)

const (
	textPrefix = "Database was last updated at "
	textLayout = "2006-01-02 15:04:05 MST"
)

// Status is the completion time of the last successful sync cycle.
type Status struct {
	LastCompletedAt time.Time `json:"last_completed_at"`
}

// Text renders the marker line, e.g.
// "Database was last updated at 2024-05-01 13:00:00 EST". The time is
// rendered in its own location, so callers pass it through In first.
func (s Status) Text() string {
	return textPrefix + s.LastCompletedAt.Format(textLayout)
}

// ParseText reads a marker line produced by Text. loc resolves the zone label.
func ParseText(line string, loc *time.Location) (Status, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(line), textPrefix)
	t, err := time.ParseInLocation(textLayout, raw, loc)
	if err != nil {
		return Status{}, err
	}
	return Status{LastCompletedAt: t}, nil
}

// Store persists the sync-status marker.
type Store interface {
	// Write replaces the marker.
	Write(ctx context.Context, status Status) error
	// Read returns the marker, or ErrSyncStatusNotFound before the first write.
	Read(ctx context.Context) (*Status, error)
}
