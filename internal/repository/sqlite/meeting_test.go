package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
	"github.com/sakif/heartline/internal/repository"
)

var slot = time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)

func supportMeeting(userID, creatorID string, at time.Time) *model.Meeting {
	return &model.Meeting{
		UserID:      userID,
		CreatorID:   creatorID,
		Emotion:     model.EmotionSad,
		ScheduledAt: at,
		Status:      model.MeetingAccepted,
		MeetLink:    "https://meet.example.com/x",
		Kind:        model.KindSupport,
	}
}

func TestBook_ReservesCreator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	c := createTestCreator(t, db, "ana")

	m := supportMeeting(u.ID, c.ID, slot)
	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: m, ReserveCreator: true, OverlapWindow: 30 * time.Minute}))
	assert.NotEmpty(t, m.ID)

	creator, err := db.GetCreatorByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInMeeting, creator.CurrentStatus)
	assert.Equal(t, 1, creator.SupportCount)

	stored, err := db.GetMeetingByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.ScheduledAt.Equal(slot))
	assert.Equal(t, model.MeetingAccepted, stored.Status)
	assert.Equal(t, model.KindSupport, stored.Kind)
	assert.Equal(t, "https://meet.example.com/x", stored.MeetLink)
}

func TestBook_SecondReservationLoses(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	c := createTestCreator(t, db, "ana")

	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: supportMeeting(u.ID, c.ID, slot), ReserveCreator: true}))

	err := db.Book(ctx, repository.Booking{Meeting: supportMeeting(u.ID, c.ID, slot.Add(2*time.Hour)), ReserveCreator: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
	assert.Contains(t, err.Error(), repository.MsgSlotTaken)

	all, _ := db.ListMeetings(ctx, repository.MeetingFilter{CreatorID: c.ID})
	assert.Len(t, all, 1, "the losing booking must not leave a meeting behind")

	creator, _ := db.GetCreatorByID(ctx, c.ID)
	assert.Equal(t, 1, creator.SupportCount, "the losing booking must not bump the counter")
}

func TestBook_ConcurrentBookingsOnlyOneWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	c := createTestCreator(t, db, "ana")

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := db.Book(ctx, repository.Booking{
				Meeting:        supportMeeting(u.ID, c.ID, slot.Add(time.Duration(i)*time.Hour)),
				ReserveCreator: true,
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, apperror.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestBook_OverlapWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	c := createTestCreator(t, db, "ana")

	pending := func(at time.Time) *model.Meeting {
		m := supportMeeting(u.ID, c.ID, at)
		m.Status = model.MeetingPending
		m.Kind = model.KindRequest
		m.MeetLink = ""
		return m
	}

	first := pending(slot)
	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: first, OverlapWindow: 30 * time.Minute}))

	err := db.Book(ctx, repository.Booking{Meeting: pending(slot.Add(30 * time.Minute)), OverlapWindow: 30 * time.Minute})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "30 minutes apart is inside the window")

	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: pending(slot.Add(31 * time.Minute)), OverlapWindow: 30 * time.Minute}))
	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: pending(slot)}), "zero window disables the check")

	// Rejected and cancelled meetings no longer block the slot.
	other := createTestCreator(t, db, "bo")
	forOther := func(at time.Time) *model.Meeting {
		m := pending(at)
		m.CreatorID = other.ID
		return m
	}
	rejected := forOther(slot)
	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: rejected, OverlapWindow: 30 * time.Minute}))
	_, err = db.Transition(ctx, repository.StatusChange{MeetingID: rejected.ID, From: model.MeetingPending, To: model.MeetingRejected})
	require.NoError(t, err)

	cancelled := forOther(slot.Add(10 * time.Minute))
	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: cancelled, OverlapWindow: 30 * time.Minute}))
	_, err = db.Transition(ctx, repository.StatusChange{MeetingID: cancelled.ID, From: model.MeetingPending, To: model.MeetingCancelled})
	require.NoError(t, err)

	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: forOther(slot.Add(5 * time.Minute)), OverlapWindow: 30 * time.Minute}))
}

func TestListMeetings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ana := createTestCreator(t, db, "ana")

	later := supportMeeting(alice.ID, ana.ID, slot.Add(48*time.Hour))
	sooner := supportMeeting(alice.ID, ana.ID, slot)
	bobs := supportMeeting(bob.ID, ana.ID, slot.Add(time.Hour))
	bobs.Status = model.MeetingCancelled
	for _, m := range []*model.Meeting{later, sooner, bobs} {
		require.NoError(t, db.Book(ctx, repository.Booking{Meeting: m}))
	}

	mine, err := db.ListMeetings(ctx, repository.MeetingFilter{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, sooner.ID, mine[0].ID, "ordered by scheduled time")
	assert.Equal(t, later.ID, mine[1].ID)

	creatorView, err := db.ListMeetings(ctx, repository.MeetingFilter{CreatorID: ana.ID})
	require.NoError(t, err)
	assert.Len(t, creatorView, 3)

	active, err := db.ListMeetings(ctx, repository.MeetingFilter{
		CreatorID: ana.ID,
		Statuses:  []model.MeetingStatus{model.MeetingAccepted, model.MeetingInProgress},
	})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	window, err := db.ListMeetings(ctx, repository.MeetingFilter{From: slot, To: slot.Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, window, 2)
}

func TestTransition(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice")
	c := createTestCreator(t, db, "ana")

	m := supportMeeting(u.ID, c.ID, slot)
	m.Status = model.MeetingPending
	m.MeetLink = ""
	require.NoError(t, db.Book(ctx, repository.Booking{Meeting: m}))

	t.Run("accept stores the link", func(t *testing.T) {
		got, err := db.Transition(ctx, repository.StatusChange{
			MeetingID: m.ID, From: model.MeetingPending, To: model.MeetingAccepted, MeetLink: "https://meet.example.com/abc",
		})
		require.NoError(t, err)
		assert.Equal(t, model.MeetingAccepted, got.Status)
		assert.Equal(t, "https://meet.example.com/abc", got.MeetLink)
	})

	t.Run("stale from-status is a conflict", func(t *testing.T) {
		_, err := db.Transition(ctx, repository.StatusChange{
			MeetingID: m.ID, From: model.MeetingPending, To: model.MeetingRejected,
		})
		assert.True(t, errors.Is(err, apperror.ErrConflict))

		stored, _ := db.GetMeetingByID(ctx, m.ID)
		assert.Equal(t, model.MeetingAccepted, stored.Status)
	})

	t.Run("complete resets the creator and keeps the link", func(t *testing.T) {
		require.NoError(t, db.SetCreatorStatus(ctx, c.ID, repository.AnyStatus, model.StatusInMeeting))

		got, err := db.Transition(ctx, repository.StatusChange{
			MeetingID: m.ID, From: model.MeetingAccepted, To: model.MeetingCompleted,
			CreatorStatus: model.StatusOnline,
		})
		require.NoError(t, err)
		assert.Equal(t, model.MeetingCompleted, got.Status)
		assert.Equal(t, "https://meet.example.com/abc", got.MeetLink)

		creator, _ := db.GetCreatorByID(ctx, c.ID)
		assert.Equal(t, model.StatusOnline, creator.CurrentStatus)
	})

	t.Run("guarded creator update only applies from the given status", func(t *testing.T) {
		other := supportMeeting(u.ID, c.ID, slot.Add(24*time.Hour))
		require.NoError(t, db.Book(ctx, repository.Booking{Meeting: other}))
		require.NoError(t, db.SetCreatorStatus(ctx, c.ID, repository.AnyStatus, model.StatusOffline))

		_, err := db.Transition(ctx, repository.StatusChange{
			MeetingID: other.ID, From: model.MeetingAccepted, To: model.MeetingCancelled,
			CreatorStatus: model.StatusOnline, CreatorStatusFrom: model.StatusInMeeting,
		})
		require.NoError(t, err)

		creator, _ := db.GetCreatorByID(ctx, c.ID)
		assert.Equal(t, model.StatusOffline, creator.CurrentStatus)
	})

	t.Run("unknown meeting", func(t *testing.T) {
		_, err := db.Transition(ctx, repository.StatusChange{MeetingID: "missing", From: model.MeetingPending, To: model.MeetingAccepted})
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})
}
