// Package taskgroup implements the derived task views: classification of a
// task collection into named groups by due-date windows, and the orderings
// applied on top. Everything here is pure; callers pass "now" explicitly.
package taskgroup

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/models"
)

// Group names one of the derived task views.
type Group string

const (
	GroupToday      Group = "today"
	GroupTomorrow   Group = "tomorrow"
	GroupEarlier    Group = "earlier"
	GroupFuture     Group = "future"
	GroupImportant  Group = "important"
	GroupIncomplete Group = "incomplete"
	GroupCompleted  Group = "completed"
	// GroupAll is the unfiltered view, spelled "default" on the wire.
	GroupAll Group = "default"
)

// ParseGroup validates a group tag coming from a route parameter or command
// argument. The classifier itself treats a valid tag as a precondition, so
// this is the only place unknown tags are rejected.
func ParseGroup(s string) (Group, error) {
	g := Group(s)
	switch g {
	case GroupToday, GroupTomorrow, GroupEarlier, GroupFuture,
		GroupImportant, GroupIncomplete, GroupCompleted, GroupAll:
		return g, nil
	}
	return "", fmt.Errorf("unknown task group %q", s)
}

// Classify returns the tasks belonging to group, evaluated against the
// calendar day containing now (in now's location). Date windows are
// half-open: a task due exactly at midnight belongs to the day that opens.
// Tasks without a due date never match a date-based group.
//
// The result is a fresh slice preserving the input's relative order; the
// input is never mutated.
func Classify(tasks []models.Task, group Group, now time.Time) []models.Task {
	todayStart := midnight(now)
	tomorrowStart := todayStart.AddDate(0, 0, 1)
	dayAfterStart := todayStart.AddDate(0, 0, 2)

	var pred func(models.Task) bool

	switch group {
	case GroupToday:
		pred = dueWithin(todayStart, tomorrowStart)
	case GroupTomorrow:
		pred = dueWithin(tomorrowStart, dayAfterStart)
	case GroupEarlier:
		pred = func(t models.Task) bool {
			return t.DueDate != nil && t.DueDate.Before(todayStart)
		}
	case GroupFuture:
		// strictly after the end of tomorrow's window
		pred = func(t models.Task) bool {
			return t.DueDate != nil && !t.DueDate.Before(dayAfterStart)
		}
	case GroupImportant:
		pred = func(t models.Task) bool { return t.IsStarred }
	case GroupIncomplete:
		pred = func(t models.Task) bool { return t.Status == models.StatusIncomplete }
	case GroupCompleted:
		pred = func(t models.Task) bool { return t.Status == models.StatusCompleted }
	default:
		pred = func(models.Task) bool { return true }
	}

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dueWithin matches due dates in the half-open interval [from, to).
func dueWithin(from, to time.Time) func(models.Task) bool {
	return func(t models.Task) bool {
		if t.DueDate == nil {
			return false
		}
		return !t.DueDate.Before(from) && t.DueDate.Before(to)
	}
}
