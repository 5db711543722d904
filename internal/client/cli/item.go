package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskvault/internal/common"
	"github.com/dmitrijs2005/taskvault/internal/models"
)

// Done marks the task completed.
func (a *App) Done(ctx context.Context, args []string) error {
	return a.setStatus(ctx, args, "done", models.StatusCompleted)
}

// Undone marks the task incomplete again.
func (a *App) Undone(ctx context.Context, args []string) error {
	return a.setStatus(ctx, args, "undone", models.StatusIncomplete)
}

func (a *App) setStatus(ctx context.Context, args []string, cmd string, status models.Status) error {
	if len(args) == 0 {
		printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
		return nil
	}
	task, err := a.client.SetStatus(ctx, args[0], status)
	if err != nil {
		reportItemError(args[0], err)
		return err
	}
	printlnFn(fmt.Sprintf("Task %s is now %s.", task.ID, task.Status))
	return nil
}

// Star stars the task.
func (a *App) Star(ctx context.Context, args []string) error {
	return a.setStarred(ctx, args, "star", true)
}

// Unstar removes the star.
func (a *App) Unstar(ctx context.Context, args []string) error {
	return a.setStarred(ctx, args, "unstar", false)
}

func (a *App) setStarred(ctx context.Context, args []string, cmd string, starred bool) error {
	if len(args) == 0 {
		printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
		return nil
	}
	task, err := a.client.SetStarred(ctx, args[0], starred)
	if err != nil {
		reportItemError(args[0], err)
		return err
	}
	if task.IsStarred {
		printlnFn(fmt.Sprintf("Task %s starred.", task.ID))
	} else {
		printlnFn(fmt.Sprintf("Task %s unstarred.", task.ID))
	}
	return nil
}

// Remove deletes the task together with its attachments.
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: rm <id>")
		return nil
	}
	if err := a.client.DeleteTask(ctx, args[0]); err != nil {
		reportItemError(args[0], err)
		return err
	}
	printlnFn(fmt.Sprintf("Task %s deleted.", args[0]))
	return nil
}

func reportItemError(id string, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		printlnFn(fmt.Sprintf("No task with id %s.", id))
		return
	}
	printlnFn("Command failed:", err.Error())
}
