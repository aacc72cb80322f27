package domain

import (
	"time"

	"github.com/google/uuid"
)

// DailyActivity is the number of reviews a user completed on one UTC day.
type DailyActivity struct {
	UserID  uuid.UUID
	Day     time.Time
	Reviews int
	Lapses  int
}

// ActivitySummary is a user's recent study history.
type ActivitySummary struct {
	TodayReviews int
	StreakDays   int
	Days         []DailyActivity
}

// DayOf truncates t to midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CurrentStreak counts consecutive days with at least one review, ending
// today. A streak that ended yesterday is still current because today is
// not over yet.
func CurrentStreak(days []DailyActivity, now time.Time) int {
	active := make(map[time.Time]bool, len(days))
	for _, d := range days {
		if d.Reviews > 0 {
			active[DayOf(d.Day)] = true
		}
	}

	cursor := DayOf(now)
	if !active[cursor] {
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for active[cursor] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// Summarize builds an ActivitySummary from daily rows.
func Summarize(days []DailyActivity, now time.Time) ActivitySummary {
	today := DayOf(now)
	summary := ActivitySummary{
		StreakDays: CurrentStreak(days, now),
		Days:       days,
	}
	for _, d := range days {
		if DayOf(d.Day).Equal(today) {
			summary.TodayReviews += d.Reviews
		}
	}
	if summary.Days == nil {
		summary.Days = []DailyActivity{}
	}
	return summary
}
