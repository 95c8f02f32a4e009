package matching

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/model"
)

// 2026-10-12 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, 10, 12, hour, minute, 0, 0, time.UTC)
}

func supportCreator(id string, rating float64, supportCount int) model.Creator {
	return model.Creator{
		ID:                  id,
		Name:                "creator " + id,
		AvailableForSupport: true,
		SupportEmotions:     []model.Emotion{model.EmotionSad},
		Availability: []model.AvailabilityWindow{
			{Day: model.Monday, StartTime: "09:00", EndTime: "12:00"},
		},
		CurrentStatus: model.StatusOnline,
		Rating:        rating,
		SupportCount:  supportCount,
	}
}

func TestCovers_MondayMorningWindow(t *testing.T) {
	w := model.AvailabilityWindow{Day: model.Monday, StartTime: "09:00", EndTime: "12:00"}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"start is inclusive", monday(9, 0), true},
		{"end is inclusive", monday(12, 0), true},
		{"middle", monday(10, 30), true},
		{"one minute early", monday(8, 59), false},
		{"one minute late", monday(12, 1), false},
		{"tuesday same time", monday(10, 30).AddDate(0, 0, 1), false},
		{"sunday same time", monday(10, 30).AddDate(0, 0, -1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Covers(w, tt.at))
		})
	}
}

func TestCovers_EveryOtherWeekdayNeverMatches(t *testing.T) {
	w := model.AvailabilityWindow{Day: model.Monday, StartTime: "00:00", EndTime: "23:59"}

	for d := 1; d < 7; d++ {
		for h := 0; h < 24; h++ {
			at := monday(h, 0).AddDate(0, 0, d)
			assert.False(t, Covers(w, at), "day offset %d hour %d", d, h)
		}
	}
}

func TestCovers_NumericNotLexical(t *testing.T) {
	// As strings "10:00" < "9:00"; a lexical compare would reject 09:30 here.
	w := model.AvailabilityWindow{Day: model.Monday, StartTime: "9:00", EndTime: "10:00"}

	assert.True(t, Covers(w, monday(9, 30)))
	assert.False(t, Covers(w, monday(10, 1)))
}

func TestCovers_MalformedWindowNeverMatches(t *testing.T) {
	w := model.AvailabilityWindow{Day: model.Monday, StartTime: "nine", EndTime: "12:00"}
	assert.False(t, Covers(w, monday(10, 0)))
}

func TestCapable(t *testing.T) {
	base := supportCreator("a", 4, 0)

	offline := base
	offline.CurrentStatus = model.StatusOffline

	busy := base
	busy.CurrentStatus = model.StatusInMeeting

	notSupporting := base
	notSupporting.AvailableForSupport = false

	assert.True(t, Capable(&base, model.EmotionSad))
	assert.False(t, Capable(&base, model.EmotionAngry))
	assert.False(t, Capable(&offline, model.EmotionSad))
	assert.False(t, Capable(&busy, model.EmotionSad))
	assert.False(t, Capable(&notSupporting, model.EmotionSad))
}

func TestRank_RatingDescThenSupportCountAsc(t *testing.T) {
	creators := []model.Creator{
		supportCreator("low", 3.0, 0),
		supportCreator("high-busy", 4.8, 10),
		supportCreator("high-fresh", 4.8, 2),
		supportCreator("mid", 4.5, 0),
	}

	Rank(creators)

	var ids []string
	for _, c := range creators {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"high-fresh", "high-busy", "mid", "low"}, ids)
}

func TestRank_StableForTies(t *testing.T) {
	var creators []model.Creator
	for i := 0; i < 20; i++ {
		creators = append(creators, supportCreator(fmt.Sprintf("c%02d", i), 4.0, 1))
	}

	Rank(creators)

	for i, c := range creators {
		assert.Equal(t, fmt.Sprintf("c%02d", i), c.ID, "ties must keep input order")
	}
}

func TestMatch_PicksHigherRatedCreator(t *testing.T) {
	a := supportCreator("A", 4.5, 0)
	b := supportCreator("B", 4.8, 0)

	ranked, err := Match([]model.Creator{a, b}, Request{Emotion: model.EmotionSad, At: monday(10, 0)})
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "B", ranked[0].ID)
}

func TestMatch_DoesNotReorderInput(t *testing.T) {
	input := []model.Creator{supportCreator("A", 1, 0), supportCreator("B", 5, 0)}

	_, err := Match(input, Request{Emotion: model.EmotionSad, At: monday(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, "A", input[0].ID)
}

func TestMatch_UnsupportedEmotionIsNotFound(t *testing.T) {
	_, err := Match(
		[]model.Creator{supportCreator("A", 4.5, 0)},
		Request{Emotion: model.EmotionLonely, At: monday(10, 0)},
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, MsgNoCreators, appErr.Message)
}

func TestMatch_NoSlotHasDistinctMessageAndHint(t *testing.T) {
	_, err := Match(
		[]model.Creator{supportCreator("A", 4.5, 0)},
		Request{Emotion: model.EmotionSad, At: monday(13, 0)},
	)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, MsgNoTimeSlot, appErr.Message)
	assert.Equal(t, HintAnotherTime, appErr.Hint)
}

func TestMatch_EmptyCandidates(t *testing.T) {
	_, err := Match(nil, Request{Emotion: model.EmotionSad, At: monday(10, 0)})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestOverlaps(t *testing.T) {
	at := monday(10, 0)

	assert.True(t, Overlaps(at, at.Add(30*time.Minute), 30*time.Minute))
	assert.True(t, Overlaps(at, at.Add(-30*time.Minute), 30*time.Minute))
	assert.False(t, Overlaps(at, at.Add(31*time.Minute), 30*time.Minute))
	assert.False(t, Overlaps(at, at, 0), "zero window disables the policy")
}
