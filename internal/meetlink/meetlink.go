// Package meetlink creates joinable video-meeting links.
//
// The booking services only need one capability: "create a meeting for this
// time range and give me a URL". Provider hides whichever calendar or video
// service actually does it.
package meetlink

import (
	"context"
	"time"
)

// DefaultDuration is used when a Request carries no duration.
const DefaultDuration = 30 * time.Minute

// Request describes the event to create.
type Request struct {
	Summary     string
	Description string
	Start       time.Time
	Duration    time.Duration
	Attendees   []string // email addresses
	RequestID   string   // idempotency key; generated when empty
}

// End returns Start plus the duration (DefaultDuration when unset).
func (r Request) End() time.Time {
	d := r.Duration
	if d <= 0 {
		d = DefaultDuration
	}
	return r.Start.Add(d)
}

// Provider creates a meeting and returns its joinable link.
// Implementations return an *apperror.AppError of kind ErrExternal on failure
// and never return an empty link with a nil error.
type Provider interface {
	CreateMeeting(ctx context.Context, req Request) (string, error)
}
