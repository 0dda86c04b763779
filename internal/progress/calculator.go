// Package progress derives completion state from a workout plan snapshot.
// Every function here is pure and total: malformed-but-present data (empty
// exercise lists, missing timestamps) degrades to zero values, never errors.
// Progress is recomputed from the full snapshot on every request; nothing is
// cached or updated incrementally.
package progress

import (
	"math"
	"sort"
	"time"

	"easyfitness/plan-service/internal/domain"
)

// DefaultWeeksBack is the trailing window used by the weekly aggregation.
const DefaultWeeksBack = 8

// WeekBucket is one week of the trailing weekly aggregation.
type WeekBucket struct {
	WeekLabel     string `json:"week_label"`
	CompletedDays int    `json:"completed_days"`
	TotalDays     int    `json:"total_days"`
}

// ExerciseCompleted reports whether the given exercise on the given day has a
// completion entry marked done. Absent entries are normal (the map is sparse)
// and read as false.
func ExerciseCompleted(plan *domain.WorkoutPlan, dayNumber, exerciseIndex int) bool {
	completion, ok := plan.Completions.Get(dayNumber, exerciseIndex)
	return ok && completion.Completed
}

// DayCompleted reports whether every exercise of the day is completed.
// A day with zero exercises is never complete.
func DayCompleted(plan *domain.WorkoutPlan, day domain.WorkoutDay) bool {
	if len(day.Exercises) == 0 {
		return false
	}
	for i := range day.Exercises {
		if !ExerciseCompleted(plan, day.DayNumber, i) {
			return false
		}
	}
	return true
}

// DayPercent returns the day's completion percentage, rounded to the nearest
// integer. A day with zero exercises is 0, not a division by zero.
func DayPercent(plan *domain.WorkoutPlan, day domain.WorkoutDay) int {
	total := len(day.Exercises)
	if total == 0 {
		return 0
	}
	completed := 0
	for i := range day.Exercises {
		if ExerciseCompleted(plan, day.DayNumber, i) {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// PlanPercent returns the overall plan completion percentage over fully
// completed days. A plan with no days is 0.
func PlanPercent(plan *domain.WorkoutPlan) int {
	total := len(plan.PlanData.Days)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, day := range plan.PlanData.Days {
		if DayCompleted(plan, day) {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// PlanCompleted reports whether every day of the plan is completed. This is an
// exact check, unlike PlanPercent which rounds (a 200-day plan with 199 done
// rounds to 100 but is not completed). A plan with no days is never completed.
func PlanCompleted(plan *domain.WorkoutPlan) bool {
	if len(plan.PlanData.Days) == 0 {
		return false
	}
	for _, day := range plan.PlanData.Days {
		if !DayCompleted(plan, day) {
			return false
		}
	}
	return true
}

// Weekly builds weeksBack trailing week buckets anchored at now, ordered
// oldest to newest. A fully completed day is counted once, in the week
// containing the latest CompletedAt among its completion entries. Days whose
// entries lack timestamps contribute nothing. TotalDays is the plan's day
// count in every bucket, and weeks with no completions still appear.
func Weekly(plan *domain.WorkoutPlan, weeksBack int, weekStart time.Weekday, now time.Time) []WeekBucket {
	if weeksBack <= 0 {
		weeksBack = DefaultWeeksBack
	}

	currentWeekStart := startOfWeek(now, weekStart)
	totalDays := len(plan.PlanData.Days)

	buckets := make([]WeekBucket, weeksBack)
	for i := 0; i < weeksBack; i++ {
		start := currentWeekStart.AddDate(0, 0, -7*(weeksBack-1-i))
		buckets[i] = WeekBucket{
			WeekLabel: start.Format("Jan 2"),
			TotalDays: totalDays,
		}
	}
	windowStart := currentWeekStart.AddDate(0, 0, -7*(weeksBack-1))

	for _, day := range plan.PlanData.Days {
		if !DayCompleted(plan, day) {
			continue
		}
		latest, ok := latestCompletedAt(plan.Completions[day.DayNumber])
		if !ok {
			continue
		}
		if latest.Before(windowStart) {
			continue
		}
		idx := daysBetween(windowStart, latest) / 7
		if idx >= 0 && idx < weeksBack {
			buckets[idx].CompletedDays++
		}
	}

	return buckets
}

// Streak counts consecutive calendar days, ending today or yesterday, with at
// least one exercise marked completed. It walks backward from the most recent
// completion date and stops at the first gap. The audit log is the input, not
// the completions map, so un-toggling an exercise later does not erase the
// day the work was actually done.
func Streak(logs []domain.CompletionLog, now time.Time) int {
	seen := make(map[time.Time]bool)
	for _, entry := range logs {
		if entry.Action != domain.ActionCompleted {
			continue
		}
		seen[startOfDay(entry.LoggedAt)] = true
	}
	if len(seen) == 0 {
		return 0
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	today := startOfDay(now)
	if daysBetween(dates[0], today) > 1 {
		return 0 // last activity was neither today nor yesterday
	}

	streak := 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i], dates[i-1]) != 1 {
			break
		}
		streak++
	}
	return streak
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the most recent weekStart day at or before t.
func startOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// daysBetween returns the number of calendar days from a to b (b after a is
// positive). Dates are normalized to UTC midnight first so DST transitions
// cannot make a calendar day look shorter or longer than 24 hours.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func latestCompletedAt(entries map[int]domain.Completion) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, completion := range entries {
		if !completion.Completed || completion.CompletedAt == nil {
			continue
		}
		if !found || completion.CompletedAt.After(latest) {
			latest = *completion.CompletedAt
			found = true
		}
	}
	return latest, found
}
