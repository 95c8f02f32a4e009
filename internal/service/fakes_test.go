package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/matching"
	"github.com/sakif/heartline/internal/meetlink"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

// fakeStore is an in-memory repository.Store with the same guarded
// Book/Transition semantics as the real backends.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int
	users    map[string]*model.User
	admins   map[string]*model.Admin
	creators map[string]*model.Creator
	order    []string // creator registration order
	meetings map[string]*model.Meeting
	videos   []*model.Video

	// set to simulate failures
	bookErr error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*model.User),
		admins:   make(map[string]*model.Admin),
		creators: make(map[string]*model.Creator),
		meetings: make(map[string]*model.Meeting),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.EmailTaken()
		}
	}
	u.ID = f.id("user")
	u.Role = model.RoleUser
	u.CreatedAt = time.Now()
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.New(apperror.ErrNotFound, "user not found")
}

func (f *fakeStore) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateAdmin(_ context.Context, a *model.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.admins {
		if existing.Email == a.Email {
			return repository.EmailTaken()
		}
	}
	a.ID = f.id("admin")
	a.Role = model.RoleAdmin
	copied := *a
	f.admins[a.ID] = &copied
	return nil
}

func (f *fakeStore) GetAdminByID(_ context.Context, id string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.admins[id]
	if !ok {
		return nil, apperror.NotFound("admin", id)
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) GetAdminByEmail(_ context.Context, email string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperror.New(apperror.ErrNotFound, "admin not found")
}

func (f *fakeStore) CreateCreator(_ context.Context, c *model.Creator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.creators {
		if existing.Email == c.Email {
			return repository.EmailTaken()
		}
	}
	c.ID = f.id("creator")
	if c.Category == "" {
		c.Category = model.CategoryVisuals
	}
	if c.CurrentStatus == "" {
		c.CurrentStatus = model.StatusOffline
	}
	copied := *c
	f.creators[c.ID] = &copied
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeStore) GetCreatorByID(_ context.Context, id string) (*model.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creators[id]
	if !ok {
		return nil, apperror.NotFound("creator", id)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) GetCreatorByEmail(_ context.Context, email string) (*model.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.creators {
		if c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperror.New(apperror.ErrNotFound, "creator not found")
}

func (f *fakeStore) ListCreators(_ context.Context, filter repository.CreatorFilter) ([]model.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Creator{}
	for _, id := range f.order {
		c := f.creators[id]
		switch {
		case filter.Category != "" && c.Category != filter.Category:
		case filter.SupportOnly && !c.AvailableForSupport:
		case filter.Emotion != "" && !c.Supports(filter.Emotion):
		case filter.Status != "" && c.CurrentStatus != filter.Status:
		default:
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSupportSettings(_ context.Context, id string, s model.SupportSettings, from, to model.CreatorStatus) (*model.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creators[id]
	if !ok {
		return nil, apperror.NotFound("creator", id)
	}
	if from != repository.AnyStatus && c.CurrentStatus != from {
		return nil, repository.CreatorStatusChanged(id)
	}
	c.AvailableForSupport = s.AvailableForSupport
	if s.SupportEmotions != nil {
		c.SupportEmotions = s.SupportEmotions
	}
	if s.Availability != nil {
		c.Availability = s.Availability
	}
	c.CurrentStatus = to
	copied := *c
	return &copied, nil
}

func (f *fakeStore) SetCreatorStatus(_ context.Context, id string, from, to model.CreatorStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creators[id]
	if !ok {
		return apperror.NotFound("creator", id)
	}
	if from != repository.AnyStatus && c.CurrentStatus != from {
		return repository.CreatorStatusChanged(id)
	}
	c.CurrentStatus = to
	return nil
}

func (f *fakeStore) AddVisualPost(_ context.Context, creatorID string, p *model.VisualPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creators[creatorID]
	if !ok {
		return apperror.NotFound("creator", creatorID)
	}
	p.ID = f.id("post")
	c.VisualPosts = append(c.VisualPosts, *p)
	return nil
}

func (f *fakeStore) ListVisualPosts(_ context.Context, creatorID string) ([]model.VisualPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creators[creatorID]
	if !ok {
		return nil, apperror.NotFound("creator", creatorID)
	}
	return append([]model.VisualPost{}, c.VisualPosts...), nil
}

func (f *fakeStore) GetMeetingByID(_ context.Context, id string) (*model.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[id]
	if !ok {
		return nil, apperror.NotFound("meeting", id)
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) ListMeetings(_ context.Context, filter repository.MeetingFilter) ([]model.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Meeting{}
	for _, m := range f.meetings {
		switch {
		case filter.UserID != "" && m.UserID != filter.UserID:
		case filter.CreatorID != "" && m.CreatorID != filter.CreatorID:
		case !filter.From.IsZero() && m.ScheduledAt.Before(filter.From):
		case !filter.To.IsZero() && m.ScheduledAt.After(filter.To):
		case len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, m.Status):
		default:
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func containsStatus(list []model.MeetingStatus, s model.MeetingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakeStore) Book(_ context.Context, b repository.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookErr != nil {
		return f.bookErr
	}
	m := b.Meeting
	c, ok := f.creators[m.CreatorID]
	if !ok {
		return apperror.NotFound("creator", m.CreatorID)
	}
	if b.ReserveCreator && (c.CurrentStatus != model.StatusOnline || !c.AvailableForSupport) {
		return repository.SlotTaken()
	}
	for _, other := range f.meetings {
		if other.CreatorID == m.CreatorID && other.Status.Blocking() && matching.Overlaps(other.ScheduledAt, m.ScheduledAt, b.OverlapWindow) {
			return repository.SlotTaken()
		}
	}
	if b.ReserveCreator {
		c.CurrentStatus = model.StatusInMeeting
		c.SupportCount++
	}
	m.ID = f.id("meeting")
	copied := *m
	f.meetings[m.ID] = &copied
	return nil
}

func (f *fakeStore) Transition(_ context.Context, ch repository.StatusChange) (*model.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[ch.MeetingID]
	if !ok {
		return nil, apperror.NotFound("meeting", ch.MeetingID)
	}
	if m.Status != ch.From {
		return nil, repository.StatusChanged(ch.MeetingID)
	}
	m.Status = ch.To
	if ch.MeetLink != "" {
		m.MeetLink = ch.MeetLink
	}
	if ch.CreatorStatus != "" {
		if c, ok := f.creators[m.CreatorID]; ok && (ch.CreatorStatusFrom == "" || c.CurrentStatus == ch.CreatorStatusFrom) {
			c.CurrentStatus = ch.CreatorStatus
		}
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) CreateVideo(_ context.Context, v *model.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = f.id("video")
	copied := *v
	f.videos = append(f.videos, &copied)
	return nil
}

func (f *fakeStore) ListVideos(_ context.Context) ([]model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Video{}
	for i := len(f.videos) - 1; i >= 0; i-- {
		out = append(out, *f.videos[i])
	}
	return out, nil
}

func (f *fakeStore) ViewVideo(_ context.Context, id string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.videos {
		if v.ID == id {
			v.Views++
			copied := *v
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("video", id)
}

// fakeLinks is a meetlink.Provider that records requests.
type fakeLinks struct {
	mu       sync.Mutex
	link     string
	err      error
	requests []meetlink.Request
}

func (f *fakeLinks) CreateMeeting(_ context.Context, req meetlink.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if f.link == "" {
		return fmt.Sprintf("https://meet.example.com/%d", len(f.requests)), nil
	}
	return f.link, nil
}

func (f *fakeLinks) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// monday10 is Monday 2026-10-12 10:00 UTC.
var monday10 = time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func seedUser(f *fakeStore, name string) *model.User {
	u := &model.User{Name: name, Email: name + "@example.com", PasswordHash: "hash"}
	if err := f.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func seedCreator(f *fakeStore, name string, mutate ...func(*model.Creator)) *model.Creator {
	c := &model.Creator{
		Name:                name,
		Email:               name + "@example.com",
		AvailableForSupport: true,
		SupportEmotions:     []model.Emotion{model.EmotionSad, model.EmotionAnxious},
		Availability:        []model.AvailabilityWindow{{Day: model.Monday, StartTime: "09:00", EndTime: "12:00"}},
		CurrentStatus:       model.StatusOnline,
		Rating:              4.5,
	}
	for _, m := range mutate {
		m(c)
	}
	if err := f.CreateCreator(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func defaultOptions() BookingOptions {
	return BookingOptions{
		Location:        time.UTC,
		MeetingDuration: 30 * time.Minute,
		RequireFuture:   true,
		OverlapWindow:   30 * time.Minute,
	}
}
