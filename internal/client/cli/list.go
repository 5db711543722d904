package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskvault/internal/models"
)

// List fetches and prints tasks. Optional args: a group name (today,
// tomorrow, earlier, future, important, incomplete, completed, default) and
// an order (newest, oldest, due).
func (a *App) List(ctx context.Context, args []string) error {
	group, order := "", ""
	if len(args) > 0 {
		group = args[0]
	}
	if len(args) > 1 {
		order = args[1]
	}

	tasks, err := a.client.ListTasks(ctx, group, order)
	if err != nil {
		printlnFn("Could not list tasks:", err.Error())
		return err
	}
	if len(tasks) == 0 {
		printlnFn("No tasks.")
		return nil
	}

	for _, line := range formatTasks(tasks) {
		printlnFn(line)
	}
	return nil
}

// formatTasks renders one line per task: star marker, completion box, id,
// title, and a due date when set.
func formatTasks(tasks []models.Task) []string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		var b strings.Builder
		if t.IsStarred {
			b.WriteString("* ")
		} else {
			b.WriteString("  ")
		}
		if t.Status == models.StatusCompleted {
			b.WriteString("[x] ")
		} else {
			b.WriteString("[ ] ")
		}
		b.WriteString(t.ID)
		b.WriteString("  ")
		b.WriteString(t.Title)
		if t.DueDate != nil {
			b.WriteString(fmt.Sprintf("  (due %s)", t.DueDate.Format("2006-01-02 15:04")))
		}
		if len(t.Attachments) > 0 {
			b.WriteString(fmt.Sprintf("  [%d attachments]", len(t.Attachments)))
		}
		lines = append(lines, b.String())
	}
	return lines
}
