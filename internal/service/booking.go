package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/matching"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// MsgPastTime is the validation message for a booking in the past.
const MsgPastTime = "meeting time must be in the future"

// BookingOptions configures how meetings are matched and booked.
type BookingOptions struct {
	// Location is where availability windows are read as wall-clock times.
	Location *time.Location
	// MeetingDuration is the length of created calendar events.
	MeetingDuration time.Duration
	// RequireFuture rejects preferred times before now.
	RequireFuture bool
	// OverlapWindow excludes creators with a blocking meeting this close to
	// the preferred time. Zero disables the check.
	OverlapWindow time.Duration
}

// BookingRequest is a user's ask for a meeting.
type BookingRequest struct {
	Principal     model.Principal
	UserID        string // defaults to the principal
	Emotion       string
	PreferredTime time.Time
}

// plan is a validated request with its matched creators.
type plan struct {
	user    *model.User
	emotion model.Emotion
	at      time.Time // UTC
	ranked  []model.Creator
}

// booker holds the matching steps shared by support meetings and meeting requests.
type booker struct {
	users    repository.UserRepository
	creators repository.CreatorRepository
	meetings repository.MeetingRepository
	opts     BookingOptions
	now      Clock
	logger   *slog.Logger
}

func newBooker(store repository.Store, opts BookingOptions, logger *slog.Logger) booker {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return booker{
		users:    store,
		creators: store,
		meetings: store,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

func (b *booker) plan(ctx context.Context, req BookingRequest) (*plan, error) {
	emotion, err := model.ParseEmotion(req.Emotion)
	if err != nil {
		return nil, apperror.ValidationFailed("emotion", "invalid emotion, must be one of sad, anxious, angry, lonely, stressed")
	}
	if req.PreferredTime.IsZero() {
		return nil, apperror.ValidationFailed("preferredTime", "preferred time is required")
	}
	if b.opts.RequireFuture && req.PreferredTime.Before(b.now()) {
		return nil, apperror.ValidationFailed("preferredTime", MsgPastTime)
	}

	userID := req.UserID
	if userID == "" {
		userID = req.Principal.ID
	}
	if err := ownerOrAdmin(req.Principal, model.RoleUser, userID); err != nil {
		return nil, err
	}
	user, err := b.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := b.creators.ListCreators(ctx, repository.CreatorFilter{
		SupportOnly: true,
		Emotion:     emotion,
		Status:      model.StatusOnline,
	})
	if err != nil {
		return nil, err
	}

	ranked, err := matching.Match(candidates, matching.Request{
		Emotion: emotion,
		At:      req.PreferredTime.In(b.opts.Location),
	})
	if err != nil {
		return nil, err
	}

	at := req.PreferredTime.UTC()
	ranked, err = b.withoutOverlaps(ctx, ranked, at)
	if err != nil {
		return nil, err
	}
	return &plan{user: user, emotion: emotion, at: at, ranked: ranked}, nil
}

// withoutOverlaps drops creators that already hold a blocking meeting within
// the overlap window of at.
func (b *booker) withoutOverlaps(ctx context.Context, ranked []model.Creator, at time.Time) ([]model.Creator, error) {
	window := b.opts.OverlapWindow
	if window <= 0 {
		return ranked, nil
	}

	nearby, err := b.meetings.ListMeetings(ctx, repository.MeetingFilter{
		From: at.Add(-window),
		To:   at.Add(window),
	})
	if err != nil {
		return nil, err
	}
	busy := make(map[string]bool)
	for _, m := range nearby {
		if m.Status.Blocking() && matching.Overlaps(m.ScheduledAt, at, window) {
			busy[m.CreatorID] = true
		}
	}

	free := make([]model.Creator, 0, len(ranked))
	for _, c := range ranked {
		if !busy[c.ID] {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		return nil, matching.NoTimeSlot()
	}
	return free, nil
}
