package taskgroup

import (
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/models"
)

// Order is an optional secondary sort applied within a view after the
// starred-first pass.
type Order string

const (
	// OrderNone keeps the incoming order.
	OrderNone Order = ""
	// OrderNewestFirst sorts by CreatedAt descending.
	OrderNewestFirst Order = "newest"
	// OrderOldestFirst sorts by CreatedAt ascending.
	OrderOldestFirst Order = "oldest"
	// OrderDueSoonest sorts by DueDate ascending; tasks without a due date
	// sort last.
	OrderDueSoonest Order = "due"
)

// ParseOrder validates an order tag from a query parameter.
func ParseOrder(s string) (Order, error) {
	o := Order(s)
	switch o {
	case OrderNone, OrderNewestFirst, OrderOldestFirst, OrderDueSoonest:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// SortStarredFirst returns a copy of tasks with starred tasks before
// unstarred ones. The sort is stable: within each half the incoming
// relative order is preserved.
func SortStarredFirst(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsStarred && !out[j].IsStarred
	})
	return out
}

// SortBy returns a copy of tasks ordered by the given secondary key.
// Ties keep their incoming relative order.
func SortBy(tasks []models.Task, order Order) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)

	switch order {
	case OrderNewestFirst:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case OrderOldestFirst:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case OrderDueSoonest:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].DueDate, out[j].DueDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	}

	return out
}

// View composes the full read path for a user-facing list: filter by group,
// apply the optional secondary order, then float starred tasks to the top.
func View(tasks []models.Task, group Group, order Order, now time.Time) []models.Task {
	return SortStarredFirst(SortBy(Classify(tasks, group, now), order))
}
