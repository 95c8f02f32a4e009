// Package repository declares the storage contracts the services depend on.
//
// Two backends implement them: repository/sqlite (default, embedded) and
// repository/mongo. Every method returns *apperror.AppError kinds for the
// outcomes callers branch on (NotFound, Conflict) and wrapped errors otherwise.
package repository

import (
	"context"
	"io"
	"time"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
)

// MsgSlotTaken is the message of the Conflict returned when a booking loses a race.
const MsgSlotTaken = "creator is no longer available, please retry"

// SlotTaken returns the Conflict error for a booking that lost its race.
func SlotTaken() *apperror.AppError {
	return apperror.New(apperror.ErrConflict, MsgSlotTaken)
}

// EmailTaken returns the Conflict error for a duplicate email within one account kind.
func EmailTaken() *apperror.AppError {
	return apperror.New(apperror.ErrConflict, "email already exists")
}

// AnyStatus disables the current-status guard of creator status writes.
const AnyStatus model.CreatorStatus = ""

// CreatorStatusChanged returns the Conflict error for a creator status write
// whose expected current status no longer holds.
func CreatorStatusChanged(id string) *apperror.AppError {
	return apperror.New(apperror.ErrConflict, "creator "+id+" changed status meanwhile, reload and retry")
}

// StatusChanged returns the Conflict error for a transition whose from-status no longer holds.
func StatusChanged(id string) *apperror.AppError {
	return apperror.New(apperror.ErrConflict, "meeting "+id+" was updated by someone else, reload and retry")
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type AdminRepository interface {
	CreateAdmin(ctx context.Context, a *model.Admin) error
	GetAdminByID(ctx context.Context, id string) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
}

// CreatorFilter narrows ListCreators. Zero fields match everything.
type CreatorFilter struct {
	Category    model.Category
	SupportOnly bool
	Emotion     model.Emotion
	Status      model.CreatorStatus
}

type CreatorRepository interface {
	CreateCreator(ctx context.Context, c *model.Creator) error
	GetCreatorByID(ctx context.Context, id string) (*model.Creator, error)
	GetCreatorByEmail(ctx context.Context, email string) (*model.Creator, error)
	// ListCreators returns creators with their emotions and availability loaded
	// (visual posts are not), in registration order.
	ListCreators(ctx context.Context, f CreatorFilter) ([]model.Creator, error)
	// UpdateSupportSettings writes the settings and status in one unit.
	// Nil slices in s leave the stored values untouched. Unless from is
	// AnyStatus the write only applies while the creator is still in from;
	// otherwise it returns CreatorStatusChanged.
	UpdateSupportSettings(ctx context.Context, id string, s model.SupportSettings, from, to model.CreatorStatus) (*model.Creator, error)
	// SetCreatorStatus is guarded by from like UpdateSupportSettings.
	SetCreatorStatus(ctx context.Context, id string, from, to model.CreatorStatus) error
	AddVisualPost(ctx context.Context, creatorID string, p *model.VisualPost) error
	// ListVisualPosts returns posts in insertion order.
	ListVisualPosts(ctx context.Context, creatorID string) ([]model.VisualPost, error)
}

// MeetingFilter narrows ListMeetings. Zero fields match everything; From and
// To bound ScheduledAt inclusively.
type MeetingFilter struct {
	UserID    string
	CreatorID string
	From      time.Time
	To        time.Time
	Statuses  []model.MeetingStatus
}

// Booking is a new meeting plus the checks that must hold when it is stored.
type Booking struct {
	Meeting *model.Meeting
	// ReserveCreator flips the creator from online to in-meeting and
	// increments their support count. Fails with SlotTaken if the creator is
	// no longer online.
	ReserveCreator bool
	// OverlapWindow rejects the booking with SlotTaken when the creator
	// already has a blocking meeting within this distance. Zero disables it.
	OverlapWindow time.Duration
}

// StatusChange is a guarded meeting status update.
type StatusChange struct {
	MeetingID string
	From      model.MeetingStatus // current status must still be this
	To        model.MeetingStatus
	MeetLink  string // stored when non-empty
	// CreatorStatus, when set, is written to the meeting's creator in the same unit.
	CreatorStatus model.CreatorStatus
	// CreatorStatusFrom, when set, limits that write to creators currently in this status.
	CreatorStatusFrom model.CreatorStatus
}

type MeetingRepository interface {
	GetMeetingByID(ctx context.Context, id string) (*model.Meeting, error)
	// ListMeetings returns matches ordered by ScheduledAt ascending.
	ListMeetings(ctx context.Context, f MeetingFilter) ([]model.Meeting, error)
	// Book stores b.Meeting (assigning ID and timestamps) atomically with its checks.
	Book(ctx context.Context, b Booking) error
	// Transition applies c atomically and returns the updated meeting.
	// NotFound if the meeting does not exist, StatusChanged if From no longer holds.
	Transition(ctx context.Context, c StatusChange) (*model.Meeting, error)
}

type VideoRepository interface {
	CreateVideo(ctx context.Context, v *model.Video) error
	// ListVideos returns newest first with UploaderName filled in.
	ListVideos(ctx context.Context) ([]model.Video, error)
	// ViewVideo increments the view count and returns the updated video.
	ViewVideo(ctx context.Context, id string) (*model.Video, error)
}

// Store is everything a backend provides.
type Store interface {
	UserRepository
	AdminRepository
	CreatorRepository
	MeetingRepository
	VideoRepository
	io.Closer
}
