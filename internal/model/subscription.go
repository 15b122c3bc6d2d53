package model

import (
	"fmt"
	"strings"
	"time"
)

// DigestInterval is the delivery cadence of a subscription.
type DigestInterval string

const (
	IntervalImmediate DigestInterval = "immediate"
	IntervalDaily     DigestInterval = "daily"
	IntervalWeekly    DigestInterval = "weekly"
)

// Valid reports whether the interval is one of the known cadences.
func (i DigestInterval) Valid() bool {
	switch i {
	case IntervalImmediate, IntervalDaily, IntervalWeekly:
		return true
	}
	return false
}

// Subscription is a user's standing preference for receiving a notification
// type on a channel. (UserID, Type, Channel) is unique.
//
// Invariant: immediate subscriptions have neither DigestAtTime nor
// DigestAtDay set; daily ones have only DigestAtTime; weekly ones have both.
// DigestAtDay is always stored lowercase.
type Subscription struct {
	ID               int64
	UserID           int64
	Type             string
	Channel          string
	DigestInterval   DigestInterval
	DigestAtTime     *TimeOfDay
	DigestAtDay      *string
	LastDigestSentAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TimeOfDay is a wall-clock time without a date, as "HH:MM:SS".
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses "HH:MM:SS" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	var err error
	switch strings.Count(s, ":") {
	case 1:
		_, err = fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute)
	case 2:
		_, err = fmt.Sscanf(s, "%d:%d:%d", &t.Hour, &t.Minute, &t.Second)
	default:
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	return t, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Seconds returns the offset from midnight in seconds.
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// TimeOfDayFrom extracts the wall-clock time of an instant in its location.
func TimeOfDayFrom(at time.Time) TimeOfDay {
	return TimeOfDay{Hour: at.Hour(), Minute: at.Minute(), Second: at.Second()}
}

// WeekdayName returns the lowercase weekday name of an instant ("monday").
func WeekdayName(at time.Time) string {
	return strings.ToLower(at.Weekday().String())
}

// ValidWeekday reports whether s is a weekday name, case-insensitive.
func ValidWeekday(s string) bool {
	switch strings.ToLower(s) {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return true
	}
	return false
}
