package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/meetlink"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// SupportBooking is the result of an instant support request.
type SupportBooking struct {
	MeetingID     string    `json:"meetingId"`
	MeetLink      string    `json:"meetLink"`
	CreatorID     string    `json:"creatorId"`
	CreatorName   string    `json:"creatorName"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

// SupportService books instant support sessions: match a creator, create the
// video link, then reserve the creator and store the meeting in one unit.
type SupportService struct {
	booker
	links meetlink.Provider
}

func NewSupportService(store repository.Store, links meetlink.Provider, opts BookingOptions, logger *slog.Logger) *SupportService {
	return &SupportService{booker: newBooker(store, opts, logger), links: links}
}

func (s *SupportService) RequestSupportMeeting(ctx context.Context, req BookingRequest) (*SupportBooking, error) {
	p, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	creator := p.ranked[0]

	link, err := createLink(ctx, s.links, meetlink.Request{
		Summary:     "Support session with " + creator.Name,
		Description: fmt.Sprintf("Emotional support session (%s) for %s", p.emotion, p.user.Name),
		Start:       p.at,
		Duration:    s.opts.MeetingDuration,
		Attendees:   []string{p.user.Email, creator.Email},
	})
	if err != nil {
		s.logger.Error("creating meeting link failed",
			slog.String("creatorID", creator.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	m := &model.Meeting{
		UserID:      p.user.ID,
		CreatorID:   creator.ID,
		Emotion:     p.emotion,
		ScheduledAt: p.at,
		Status:      model.MeetingAccepted,
		MeetLink:    link,
		Kind:        model.KindSupport,
	}
	err = s.meetings.Book(ctx, repository.Booking{
		Meeting:        m,
		ReserveCreator: true,
		OverlapWindow:  s.opts.OverlapWindow,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Warn("booking lost race, meeting link orphaned",
				slog.String("creatorID", creator.ID),
				slog.String("meetLink", link),
			)
		}
		return nil, err
	}

	s.logger.Info("support meeting booked",
		slog.String("meetingID", m.ID),
		slog.String("userID", m.UserID),
		slog.String("creatorID", m.CreatorID),
		slog.Time("scheduledAt", m.ScheduledAt),
	)
	return &SupportBooking{
		MeetingID:     m.ID,
		MeetLink:      m.MeetLink,
		CreatorID:     creator.ID,
		CreatorName:   creator.Name,
		ScheduledTime: m.ScheduledAt,
	}, nil
}

// createLink asks the provider for a link and guarantees an External error
// kind on any failure.
func createLink(ctx context.Context, links meetlink.Provider, req meetlink.Request) (string, error) {
	link, err := links.CreateMeeting(ctx, req)
	if err != nil {
		if errors.Is(err, apperror.ErrExternal) {
			return "", err
		}
		return "", apperror.External("video", err)
	}
	if link == "" {
		return "", apperror.External("video", errors.New("provider returned no link"))
	}
	return link, nil
}
