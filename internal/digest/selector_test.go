package digest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"notisub/internal/model"
)

func dailySub(at model.TimeOfDay, lastSent *time.Time) *model.Subscription {
	return &model.Subscription{
		ID:               1,
		UserID:           10,
		Type:             "comment.created",
		Channel:          "mail",
		DigestInterval:   model.IntervalDaily,
		DigestAtTime:     &at,
		LastDigestSentAt: lastSent,
	}
}

func weeklySub(at model.TimeOfDay, day string, lastSent *time.Time) *model.Subscription {
	return &model.Subscription{
		ID:               2,
		UserID:           10,
		Type:             "weekly.summary",
		Channel:          "mail",
		DigestInterval:   model.IntervalWeekly,
		DigestAtTime:     &at,
		DigestAtDay:      &day,
		LastDigestSentAt: lastSent,
	}
}

func ts(t time.Time) *time.Time { return &t }

func TestDueDaily(t *testing.T) {
	nineAM := model.TimeOfDay{Hour: 9}
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	t.Run("just past the cutoff is due", func(t *testing.T) {
		now := day.Add(9*time.Hour + time.Second) // 09:00:01
		assert.True(t, Due(dailySub(nineAM, nil), now))
	})

	t.Run("just before the cutoff is not due", func(t *testing.T) {
		now := day.Add(8*time.Hour + 59*time.Minute + 59*time.Second) // 08:59:59
		assert.False(t, Due(dailySub(nineAM, nil), now))
	})

	t.Run("exactly at the cutoff is due", func(t *testing.T) {
		now := day.Add(9 * time.Hour)
		assert.True(t, Due(dailySub(nineAM, nil), now))
	})

	t.Run("sent yesterday is due again", func(t *testing.T) {
		now := day.Add(10 * time.Hour)
		last := day.AddDate(0, 0, -1).Add(9 * time.Hour)
		assert.True(t, Due(dailySub(nineAM, ts(last)), now))
	})

	t.Run("already sent today is not due", func(t *testing.T) {
		now := day.Add(15 * time.Hour)
		last := day.Add(9*time.Hour + time.Minute)
		assert.False(t, Due(dailySub(nineAM, ts(last)), now))
	})

	t.Run("sent today before the cutoff is due", func(t *testing.T) {
		// the configured time moved later after a send earlier in the day
		now := day.Add(10 * time.Hour)
		last := day.Add(7 * time.Hour)
		assert.True(t, Due(dailySub(nineAM, ts(last)), now))
	})

	t.Run("missing time is never due", func(t *testing.T) {
		sub := dailySub(nineAM, nil)
		sub.DigestAtTime = nil
		assert.False(t, Due(sub, day.Add(12*time.Hour)))
	})
}

func TestDueWeekly(t *testing.T) {
	nineAM := model.TimeOfDay{Hour: 9}
	// 2026-08-24 is a Monday
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	t.Run("matching day past the time is due", func(t *testing.T) {
		now := monday.Add(9*time.Hour + time.Minute)
		assert.True(t, Due(weeklySub(nineAM, "monday", nil), now))
	})

	t.Run("wrong day is not due", func(t *testing.T) {
		now := monday.Add(9*time.Hour + time.Minute)
		assert.False(t, Due(weeklySub(nineAM, "friday", nil), now))
	})

	t.Run("matching day before the time is not due", func(t *testing.T) {
		now := monday.Add(8 * time.Hour)
		assert.False(t, Due(weeklySub(nineAM, "monday", nil), now))
	})

	t.Run("sent a full week ago is due", func(t *testing.T) {
		now := monday.Add(9 * time.Hour)
		last := now.AddDate(0, 0, -7)
		assert.True(t, Due(weeklySub(nineAM, "monday", ts(last)), now))
	})

	t.Run("sent six days ago is not due", func(t *testing.T) {
		now := monday.Add(9 * time.Hour)
		last := now.AddDate(0, 0, -6)
		assert.False(t, Due(weeklySub(nineAM, "monday", ts(last)), now))
	})

	t.Run("sent just over six days ago is due", func(t *testing.T) {
		now := monday.Add(9 * time.Hour)
		last := now.AddDate(0, 0, -6).Add(-time.Second)
		assert.True(t, Due(weeklySub(nineAM, "monday", ts(last)), now))
	})

	t.Run("missing day is never due", func(t *testing.T) {
		sub := weeklySub(nineAM, "monday", nil)
		sub.DigestAtDay = nil
		assert.False(t, Due(sub, monday.Add(10*time.Hour)))
	})
}

func TestDueImmediateNever(t *testing.T) {
	sub := &model.Subscription{DigestInterval: model.IntervalImmediate}
	assert.False(t, Due(sub, time.Now()))
}

func TestSelectDue(t *testing.T) {
	nineAM := model.TimeOfDay{Hour: 9}
	monday := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	due := dailySub(nineAM, nil)
	notDue := dailySub(model.TimeOfDay{Hour: 18}, nil)

	selected := SelectDue([]*model.Subscription{due, notDue}, monday)
	assert.Len(t, selected, 1)
	assert.Same(t, due, selected[0])
}
