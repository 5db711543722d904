package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/models"
)

// dueDateLayouts are the accepted formats of the optional due-date prompt.
var dueDateLayouts = []string{"2006-01-02 15:04", "2006-01-02"}

// Add creates a task. The title comes from the command arguments; the due
// date is prompted for and may be left empty.
func (a *App) Add(ctx context.Context, args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		printlnFn("Usage: add <title>")
		return nil
	}

	dueRaw, err := getSimpleText(a.reader, "Due date (YYYY-MM-DD [HH:MM], empty for none)", os.Stdout)
	if err != nil {
		return err
	}

	task := models.Task{Title: title}
	if dueRaw != "" {
		due, err := parseDueDate(dueRaw)
		if err != nil {
			printlnFn(err.Error())
			return err
		}
		task.DueDate = &due
	}

	created, err := a.client.CreateTask(ctx, task)
	if err != nil {
		printlnFn("Could not create task:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Created task %s.", created.ID))
	return nil
}

func parseDueDate(s string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date, use YYYY-MM-DD or YYYY-MM-DD HH:MM", s)
}
