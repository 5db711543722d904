package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/dmitrijs2005/taskvault/internal/taskgroup"
	"github.com/gin-gonic/gin"
)

// listTasks returns the user's tasks filtered by ?group= and ordered by
// ?order=. Both default to the full collection ordered starred-first,
// newest-first.
func (h *Handler) listTasks(c *gin.Context) {
	group, err := taskgroup.ParseGroup(c.DefaultQuery("group", string(taskgroup.GroupAll)))
	if err != nil {
		writeValidationError(c, err)
		return
	}
	order, err := taskgroup.ParseOrder(c.Query("order"))
	if err != nil {
		writeValidationError(c, err)
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskgroup.View(tasks, group, order, time.Now()))
}

type createTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	DueDate     *time.Time       `json:"dueDate"`
	Reminder    *time.Time       `json:"reminder"`
	Priority    models.Priority  `json:"priority"`
	Color       models.Color     `json:"color"`
	Category    string           `json:"category"`
	IsStarred   bool             `json:"isStarred"`
}

func (h *Handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Title == "" {
		writeValidationError(c, fmt.Errorf("title is required"))
		return
	}
	if req.Priority != "" && !models.ValidPriority(req.Priority) {
		writeValidationError(c, fmt.Errorf("unknown priority %q", req.Priority))
		return
	}
	if req.Color != "" && !models.ValidColor(req.Color) {
		writeValidationError(c, fmt.Errorf("unknown color %q", req.Color))
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID(c), models.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Reminder:    req.Reminder,
		Priority:    req.Priority,
		Color:       req.Color,
		Category:    req.Category,
		IsStarred:   req.IsStarred,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) updateTask(c *gin.Context) {
	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		writeValidationError(c, fmt.Errorf("unknown status %q", *patch.Status))
		return
	}
	if patch.Priority != nil && !models.ValidPriority(*patch.Priority) {
		writeValidationError(c, fmt.Errorf("unknown priority %q", *patch.Priority))
		return
	}
	if patch.Color != nil && !models.ValidColor(*patch.Color) {
		writeValidationError(c, fmt.Errorf("unknown color %q", *patch.Color))
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), userID(c), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !models.ValidStatus(req.Status) {
		writeValidationError(c, fmt.Errorf("unknown status %q", req.Status))
		return
	}

	task, err := h.tasks.SetStatus(c.Request.Context(), userID(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type starRequest struct {
	IsStarred bool `json:"isStarred"`
}

func (h *Handler) setStarred(c *gin.Context) {
	var req starRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.tasks.SetStarred(c.Request.Context(), userID(c), c.Param("id"), req.IsStarred)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeValidationError(c, fmt.Errorf("multipart field \"file\" is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	task, err := h.tasks.UploadAttachment(c.Request.Context(), userID(c), c.Param("id"),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) removeAttachment(c *gin.Context) {
	task, err := h.tasks.RemoveAttachment(c.Request.Context(), userID(c), c.Param("id"), c.Param("attachmentID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
