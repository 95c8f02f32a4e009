package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// MaxPostTypeLen bounds the free-text type of a visual post.
const MaxPostTypeLen = 50

// SupportSettingsInput is a settings update. Nil slices keep stored values.
type SupportSettingsInput struct {
	AvailableForSupport bool
	SupportEmotions     []string
	Availability        []model.AvailabilityWindow
}

type VisualPostInput struct {
	Type     string
	Content  string
	MediaURL string
}

// CreatorService covers creator profiles, support settings, presence,
// visual posts and the per-account meeting views.
type CreatorService struct {
	users    repository.UserRepository
	creators repository.CreatorRepository
	meetings repository.MeetingRepository
	logger   *slog.Logger
}

func NewCreatorService(store repository.Store, logger *slog.Logger) *CreatorService {
	return &CreatorService{users: store, creators: store, meetings: store, logger: logger}
}

func (s *CreatorService) Profile(ctx context.Context, id string) (*model.CreatorProfile, error) {
	c, err := s.creators.GetCreatorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := c.Profile()
	return &profile, nil
}

// List returns public profiles, optionally narrowed to one category.
func (s *CreatorService) List(ctx context.Context, category string) ([]model.CreatorProfile, error) {
	var filter repository.CreatorFilter
	if category != "" {
		c, err := model.ParseCategory(category)
		if err != nil {
			return nil, apperror.ValidationFailed("category", err.Error())
		}
		filter.Category = c
	}

	creators, err := s.creators.ListCreators(ctx, filter)
	if err != nil {
		return nil, err
	}
	profiles := make([]model.CreatorProfile, 0, len(creators))
	for i := range creators {
		profiles = append(profiles, creators[i].Profile())
	}
	return profiles, nil
}

// UpdateSupportSettings stores the settings and toggles the creator online
// or offline with AvailableForSupport. A creator in a meeting stays in-meeting.
func (s *CreatorService) UpdateSupportSettings(ctx context.Context, p model.Principal, id string, in SupportSettingsInput) (*model.CreatorProfile, error) {
	if err := ownerOrAdmin(p, model.RoleCreator, id); err != nil {
		return nil, err
	}

	settings := model.SupportSettings{AvailableForSupport: in.AvailableForSupport}
	if in.SupportEmotions != nil {
		settings.SupportEmotions = make([]model.Emotion, 0, len(in.SupportEmotions))
		seen := make(map[model.Emotion]bool)
		for _, raw := range in.SupportEmotions {
			e, err := model.ParseEmotion(raw)
			if err != nil {
				return nil, apperror.ValidationFailed("supportEmotions", err.Error())
			}
			if !seen[e] {
				seen[e] = true
				settings.SupportEmotions = append(settings.SupportEmotions, e)
			}
		}
	}
	if in.Availability != nil {
		settings.Availability = make([]model.AvailabilityWindow, 0, len(in.Availability))
		for i, w := range in.Availability {
			if err := w.Validate(); err != nil {
				return nil, apperror.ValidationFailed("availability", fmt.Sprintf("availability[%d]: %v", i, err))
			}
			day, _ := model.ParseWeekday(string(w.Day))
			start, end, _ := w.Bounds()
			settings.Availability = append(settings.Availability, model.AvailabilityWindow{
				Day: day, StartTime: start.String(), EndTime: end.String(),
			})
		}
	}

	current, err := s.creators.GetCreatorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status := model.StatusOffline
	switch {
	case current.CurrentStatus == model.StatusInMeeting:
		status = model.StatusInMeeting
	case in.AvailableForSupport:
		status = model.StatusOnline
	}
	if status == model.StatusOnline {
		if err := s.ensureNoActiveSupportMeeting(ctx, id); err != nil {
			return nil, err
		}
	}

	updated, err := s.creators.UpdateSupportSettings(ctx, id, settings, current.CurrentStatus, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("support settings updated",
		slog.String("creatorID", id),
		slog.Bool("availableForSupport", updated.AvailableForSupport),
		slog.String("status", string(updated.CurrentStatus)),
	)
	profile := updated.Profile()
	return &profile, nil
}

// SetPresence switches a creator online or offline. Going online is only
// allowed while no accepted or in-progress support meeting holds the creator,
// whatever status the creator is leaving.
func (s *CreatorService) SetPresence(ctx context.Context, p model.Principal, id, status string) (*model.CreatorProfile, error) {
	if err := ownerOrAdmin(p, model.RoleCreator, id); err != nil {
		return nil, err
	}
	want, err := model.ParseCreatorStatus(status)
	if err != nil || want == model.StatusInMeeting {
		return nil, apperror.ValidationFailed("status", "status must be online or offline")
	}

	c, err := s.creators.GetCreatorByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if want == model.StatusOnline {
		if err := s.ensureNoActiveSupportMeeting(ctx, id); err != nil {
			return nil, err
		}
	}

	// Guarded by the status read above so a booking landing in between wins.
	if err := s.creators.SetCreatorStatus(ctx, id, c.CurrentStatus, want); err != nil {
		return nil, err
	}
	c.CurrentStatus = want
	profile := c.Profile()
	return &profile, nil
}

func (s *CreatorService) ensureNoActiveSupportMeeting(ctx context.Context, creatorID string) error {
	active, err := s.meetings.ListMeetings(ctx, repository.MeetingFilter{
		CreatorID: creatorID,
		Statuses:  []model.MeetingStatus{model.MeetingAccepted, model.MeetingInProgress},
	})
	if err != nil {
		return err
	}
	for _, m := range active {
		if m.Kind == model.KindSupport {
			return apperror.New(apperror.ErrConflict, "creator still has an active meeting").
				WithHint("complete or cancel the meeting first")
		}
	}
	return nil
}

func (s *CreatorService) AddVisualPost(ctx context.Context, p model.Principal, id string, in VisualPostInput) (*model.VisualPost, error) {
	if !p.Is(model.RoleCreator, id) {
		return nil, apperror.Forbidden("you can only post to your own profile")
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return nil, apperror.ValidationFailed("type", "post type is required")
	}
	if len(typ) > MaxPostTypeLen {
		return nil, apperror.ValidationFailed("type", fmt.Sprintf("post type must be at most %d characters", MaxPostTypeLen))
	}

	post := &model.VisualPost{Type: typ, Content: in.Content, MediaURL: in.MediaURL}
	if err := s.creators.AddVisualPost(ctx, id, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *CreatorService) Visuals(ctx context.Context, id string) ([]model.VisualPost, error) {
	return s.creators.ListVisualPosts(ctx, id)
}

// Meetings is the creator's meeting list with each user's contact.
func (s *CreatorService) Meetings(ctx context.Context, p model.Principal, creatorID string) ([]model.MeetingView, error) {
	if err := ownerOrAdmin(p, model.RoleCreator, creatorID); err != nil {
		return nil, err
	}
	if _, err := s.creators.GetCreatorByID(ctx, creatorID); err != nil {
		return nil, err
	}
	meetings, err := s.meetings.ListMeetings(ctx, repository.MeetingFilter{CreatorID: creatorID})
	if err != nil {
		return nil, err
	}
	views := make([]model.MeetingView, 0, len(meetings))
	for _, m := range meetings {
		views = append(views, model.MeetingView{Meeting: m, User: userContact(ctx, s.users, m.UserID)})
	}
	return views, nil
}

// UserMeetings is the user's meeting list with each creator's contact.
func (s *CreatorService) UserMeetings(ctx context.Context, p model.Principal, userID string) ([]model.MeetingView, error) {
	if err := ownerOrAdmin(p, model.RoleUser, userID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	meetings, err := s.meetings.ListMeetings(ctx, repository.MeetingFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	views := make([]model.MeetingView, 0, len(meetings))
	for _, m := range meetings {
		views = append(views, model.MeetingView{Meeting: m, Creator: creatorContact(ctx, s.creators, m.CreatorID)})
	}
	return views, nil
}
