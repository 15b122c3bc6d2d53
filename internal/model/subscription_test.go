package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00:00", want: TimeOfDay{Hour: 9}},
		{in: "09:00", want: TimeOfDay{Hour: 9}},
		{in: "23:59:59", want: TimeOfDay{Hour: 23, Minute: 59, Second: 59}},
		{in: "00:00", want: TimeOfDay{}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "garbage", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05:00", TimeOfDay{Hour: 9, Minute: 5}.String())
	assert.Equal(t, "00:00:00", TimeOfDay{}.String())
}

func TestTimeOfDaySeconds(t *testing.T) {
	assert.Equal(t, 0, TimeOfDay{}.Seconds())
	assert.Equal(t, 9*3600+1, TimeOfDay{Hour: 9, Second: 1}.Seconds())
}

func TestWeekdayName(t *testing.T) {
	// 2026-08-24 is a Monday
	monday := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "monday", WeekdayName(monday))
	assert.Equal(t, "sunday", WeekdayName(monday.AddDate(0, 0, 6)))
}

func TestValidWeekday(t *testing.T) {
	assert.True(t, ValidWeekday("monday"))
	assert.True(t, ValidWeekday("Friday"))
	assert.False(t, ValidWeekday("someday"))
	assert.False(t, ValidWeekday(""))
}

func TestDigestIntervalValid(t *testing.T) {
	assert.True(t, IntervalImmediate.Valid())
	assert.True(t, IntervalDaily.Valid())
	assert.True(t, IntervalWeekly.Valid())
	assert.False(t, DigestInterval("hourly").Valid())
	assert.False(t, DigestInterval("").Valid())
}
