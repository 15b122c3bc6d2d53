package digest

import (
	"time"

	"notisub/internal/model"
)

// Due reports whether a daily or weekly subscription should receive a digest
// at the given instant. Immediate subscriptions are never batched and always
// return false.
func Due(sub *model.Subscription, now time.Time) bool {
	switch sub.DigestInterval {
	case model.IntervalDaily:
		return dueDaily(sub, now)
	case model.IntervalWeekly:
		return dueWeekly(sub, now)
	default:
		return false
	}
}

// SelectDue filters candidates down to the subscriptions that are due now,
// preserving order.
func SelectDue(candidates []*model.Subscription, now time.Time) []*model.Subscription {
	var due []*model.Subscription
	for _, sub := range candidates {
		if Due(sub, now) {
			due = append(due, sub)
		}
	}
	return due
}

// dueDaily: the configured time of day has passed and no digest has been
// sent since today's cutoff.
func dueDaily(sub *model.Subscription, now time.Time) bool {
	if sub.DigestAtTime == nil {
		return false
	}
	cutoff := sub.DigestAtTime.Seconds()
	if model.TimeOfDayFrom(now).Seconds() < cutoff {
		return false
	}

	if sub.LastDigestSentAt == nil {
		return true
	}
	last := sub.LastDigestSentAt.In(now.Location())

	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	if ly != ny || lm != nm || ld != nd {
		return true
	}
	// Sent earlier today, but before today's cutoff (clock or config moved).
	return model.TimeOfDayFrom(last).Seconds() < cutoff
}

// dueWeekly: today is the configured weekday, the configured time has
// passed, and the last digest is more than six days old.
func dueWeekly(sub *model.Subscription, now time.Time) bool {
	if sub.DigestAtTime == nil || sub.DigestAtDay == nil {
		return false
	}
	if *sub.DigestAtDay != model.WeekdayName(now) {
		return false
	}
	if model.TimeOfDayFrom(now).Seconds() < sub.DigestAtTime.Seconds() {
		return false
	}

	if sub.LastDigestSentAt == nil {
		return true
	}
	last := sub.LastDigestSentAt.In(now.Location())
	return last.Before(now.AddDate(0, 0, -6))
}
