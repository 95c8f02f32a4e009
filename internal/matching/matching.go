// Package matching picks creators for a support request.
//
// It is pure: callers load candidates from a repository and pass them in.
// The steps are a capability filter, a weekly-window filter, and a ranking
// by rating (desc) then support count (asc). There is no constraint solving.
package matching

import (
	"sort"
	"time"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
)

const (
	MsgNoCreators   = "no creators available"
	MsgNoTimeSlot   = "no creators available for this time slot"
	HintAnotherTime = "try a different time or check back later"
)

// Request is what a user asks for: an emotion at a point in time.
// At must already be in the location whose wall clock availability windows use.
type Request struct {
	Emotion model.Emotion
	At      time.Time
}

// Capable reports whether the creator can take a support request for the emotion right now.
func Capable(c *model.Creator, emotion model.Emotion) bool {
	return c.AvailableForSupport &&
		c.CurrentStatus == model.StatusOnline &&
		c.Supports(emotion)
}

// Covers reports whether the window includes t. Both ends are inclusive and
// the comparison is on minutes since midnight. A malformed window never matches.
func Covers(w model.AvailabilityWindow, t time.Time) bool {
	if w.Day != model.WeekdayOf(t) {
		return false
	}
	start, end, err := w.Bounds()
	if err != nil {
		return false
	}
	at := model.ClockOf(t).Minutes()
	return at >= start.Minutes() && at <= end.Minutes()
}

// Available reports whether any of the creator's windows covers t.
func Available(c *model.Creator, t time.Time) bool {
	for _, w := range c.Availability {
		if Covers(w, t) {
			return true
		}
	}
	return false
}

// Rank sorts creators in place: higher rating first, then fewer sessions.
// Ties keep input order.
func Rank(creators []model.Creator) {
	sort.SliceStable(creators, func(i, j int) bool {
		if creators[i].Rating != creators[j].Rating {
			return creators[i].Rating > creators[j].Rating
		}
		return creators[i].SupportCount < creators[j].SupportCount
	})
}

// Match filters and ranks candidates for the request. The first element of
// the result is the selected creator. The input slice is not modified.
//
// It fails with a NotFound error whose message tells apart "nobody can help
// with this emotion" from "nobody is free at this time".
func Match(candidates []model.Creator, req Request) ([]model.Creator, error) {
	capable := make([]model.Creator, 0, len(candidates))
	for i := range candidates {
		if Capable(&candidates[i], req.Emotion) {
			capable = append(capable, candidates[i])
		}
	}
	if len(capable) == 0 {
		return nil, apperror.New(apperror.ErrNotFound, MsgNoCreators)
	}

	free := capable[:0]
	for i := range capable {
		if Available(&capable[i], req.At) {
			free = append(free, capable[i])
		}
	}
	if len(free) == 0 {
		return nil, NoTimeSlot()
	}

	Rank(free)
	return free, nil
}

// NoTimeSlot is the error returned when capable creators exist but none is free.
func NoTimeSlot() *apperror.AppError {
	return apperror.New(apperror.ErrNotFound, MsgNoTimeSlot).WithHint(HintAnotherTime)
}

// Overlaps reports whether two meeting start times are within window of each other.
// A zero window disables the check.
func Overlaps(a, b time.Time, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}
