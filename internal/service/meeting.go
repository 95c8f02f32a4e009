package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/meetlink"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// MeetingRequest is the result of RequestMeeting.
type MeetingRequest struct {
	MeetingID     string              `json:"meetingId"`
	CreatorID     string              `json:"creatorId"`
	CreatorName   string              `json:"creatorName"`
	ScheduledTime time.Time           `json:"scheduledTime"`
	Status        model.MeetingStatus `json:"status"`
}

// MeetingService handles meeting requests that wait for the creator's answer
// and every status change after booking.
type MeetingService struct {
	booker
	links meetlink.Provider
}

func NewMeetingService(store repository.Store, links meetlink.Provider, opts BookingOptions, logger *slog.Logger) *MeetingService {
	return &MeetingService{booker: newBooker(store, opts, logger), links: links}
}

// RequestMeeting matches like a support request but stores a pending meeting
// without a link and without reserving the creator.
func (s *MeetingService) RequestMeeting(ctx context.Context, req BookingRequest) (*MeetingRequest, error) {
	p, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	creator := p.ranked[0]

	m := &model.Meeting{
		UserID:      p.user.ID,
		CreatorID:   creator.ID,
		Emotion:     p.emotion,
		ScheduledAt: p.at,
		Status:      model.MeetingPending,
		Kind:        model.KindRequest,
	}
	if err := s.meetings.Book(ctx, repository.Booking{Meeting: m, OverlapWindow: s.opts.OverlapWindow}); err != nil {
		return nil, err
	}

	s.logger.Info("meeting requested",
		slog.String("meetingID", m.ID),
		slog.String("userID", m.UserID),
		slog.String("creatorID", m.CreatorID),
	)
	return &MeetingRequest{
		MeetingID:     m.ID,
		CreatorID:     creator.ID,
		CreatorName:   creator.Name,
		ScheduledTime: m.ScheduledAt,
		Status:        m.Status,
	}, nil
}

// Respond is the creator's answer to a request: accepted or rejected.
func (s *MeetingService) Respond(ctx context.Context, p model.Principal, meetingID, action string) (*model.Meeting, error) {
	to, err := model.ParseMeetingStatus(action)
	if err != nil {
		return nil, apperror.ValidationFailed("action", "invalid action, must be accepted or rejected")
	}
	if to != model.MeetingAccepted && to != model.MeetingRejected {
		return nil, apperror.ValidationFailed("action", "invalid action, must be accepted or rejected")
	}
	return s.transition(ctx, p, meetingID, to)
}

// UpdateStatus moves a meeting to any status the state machine allows.
func (s *MeetingService) UpdateStatus(ctx context.Context, p model.Principal, meetingID, status string) (*model.Meeting, error) {
	to, err := model.ParseMeetingStatus(status)
	if err != nil {
		return nil, apperror.ValidationFailed("status", "invalid status value")
	}
	return s.transition(ctx, p, meetingID, to)
}

func (s *MeetingService) transition(ctx context.Context, p model.Principal, meetingID string, to model.MeetingStatus) (*model.Meeting, error) {
	m, err := s.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IsAdmin(), p.Is(model.RoleCreator, m.CreatorID):
	case p.Is(model.RoleUser, m.UserID) && to == model.MeetingCancelled:
	case p.Is(model.RoleUser, m.UserID):
		return nil, apperror.Forbidden("users can only cancel their meetings")
	default:
		return nil, apperror.Forbidden("you are not a participant of this meeting")
	}

	if !model.CanTransition(m.Status, to) {
		return nil, apperror.New(apperror.ErrConflict,
			fmt.Sprintf("cannot change meeting from %s to %s", m.Status, to))
	}

	change := repository.StatusChange{MeetingID: m.ID, From: m.Status, To: to}
	switch to {
	case model.MeetingAccepted:
		if m.MeetLink == "" {
			user := userContact(ctx, s.users, m.UserID)
			creator := creatorContact(ctx, s.creators, m.CreatorID)
			link, err := createLink(ctx, s.links, meetlink.Request{
				Summary:     "Meeting with " + creator.Name,
				Description: fmt.Sprintf("Emotional support session (%s) for %s", m.Emotion, user.Name),
				Start:       m.ScheduledAt,
				Duration:    s.opts.MeetingDuration,
				Attendees:   emails(user, creator),
				RequestID:   m.ID,
			})
			if err != nil {
				s.logger.Error("creating meeting link failed",
					slog.String("meetingID", m.ID),
					slog.String("error", err.Error()),
				)
				return nil, err
			}
			change.MeetLink = link
		}
	case model.MeetingCompleted:
		change.CreatorStatus = model.StatusOnline
	case model.MeetingCancelled:
		if m.Kind == model.KindSupport {
			change.CreatorStatus = model.StatusOnline
			change.CreatorStatusFrom = model.StatusInMeeting
		}
	}

	updated, err := s.meetings.Transition(ctx, change)
	if err != nil {
		return nil, err
	}

	s.logger.Info("meeting status changed",
		slog.String("meetingID", updated.ID),
		slog.String("from", string(change.From)),
		slog.String("to", string(updated.Status)),
		slog.String("by", p.ID),
	)
	return updated, nil
}

// GetMeeting returns a meeting with both participants' contacts.
func (s *MeetingService) GetMeeting(ctx context.Context, p model.Principal, meetingID string) (*model.MeetingView, error) {
	m, err := s.meetings.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Is(model.RoleUser, m.UserID) && !p.Is(model.RoleCreator, m.CreatorID) {
		return nil, apperror.Forbidden("you are not a participant of this meeting")
	}
	return &model.MeetingView{
		Meeting: *m,
		User:    userContact(ctx, s.users, m.UserID),
		Creator: creatorContact(ctx, s.creators, m.CreatorID),
	}, nil
}

func emails(contacts ...*model.Contact) []string {
	var out []string
	for _, c := range contacts {
		if c.Email != "" {
			out = append(out, c.Email)
		}
	}
	return out
}
