// Package models defines the task-domain data types shared by the server,
// the CLI client, and the grouping core.
package models

import "time"

// Status of a task. Only two states; there is no "in progress".
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusCompleted  Status = "completed"
)

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Color is one of the fixed palette values a task card can carry.
type Color string

const (
	ColorDefault Color = "default"
	ColorRed     Color = "red"
	ColorOrange  Color = "orange"
	ColorYellow  Color = "yellow"
	ColorGreen   Color = "green"
	ColorBlue    Color = "blue"
	ColorPurple  Color = "purple"
	ColorPink    Color = "pink"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool {
	return s == StatusIncomplete || s == StatusCompleted
}

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidColor reports whether c is a known palette value.
func ValidColor(c Color) bool {
	switch c {
	case ColorDefault, ColorRed, ColorOrange, ColorYellow,
		ColorGreen, ColorBlue, ColorPurple, ColorPink:
		return true
	}
	return false
}

// Task is the persisted task document. DueDate and Reminder are optional
// instants; nil means "unset", never the zero time.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Reminder    *time.Time   `json:"reminder,omitempty"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	IsStarred   bool         `json:"isStarred"`
	Color       Color        `json:"color"`
	Category    string       `json:"category"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment describes one uploaded file on a task. URL is the
// backend-issued download locator; the blob itself lives in object storage
// under the owning user and task.
type Attachment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskPatch is a partial update. Nil fields are left unchanged.
// ClearDueDate/ClearReminder distinguish "set to nil" from "don't touch",
// which a nil pointer alone cannot express.
type TaskPatch struct {
	Title         *string      `json:"title,omitempty"`
	Description   *string      `json:"description,omitempty"`
	DueDate       *time.Time   `json:"dueDate,omitempty"`
	ClearDueDate  bool         `json:"clearDueDate,omitempty"`
	Reminder      *time.Time   `json:"reminder,omitempty"`
	ClearReminder bool         `json:"clearReminder,omitempty"`
	Status        *Status      `json:"status,omitempty"`
	Priority      *Priority    `json:"priority,omitempty"`
	IsStarred     *bool        `json:"isStarred,omitempty"`
	Color         *Color       `json:"color,omitempty"`
	Category      *string      `json:"category,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	// SetAttachments makes an empty Attachments slice meaningful
	// (replace with none) instead of "unchanged".
	SetAttachments bool `json:"setAttachments,omitempty"`
}

// Apply copies the patch onto t and returns it. UpdatedAt is the caller's
// concern (the repository stamps it from the server clock).
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.ClearReminder {
		t.Reminder = nil
	} else if p.Reminder != nil {
		rem := *p.Reminder
		t.Reminder = &rem
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.IsStarred != nil {
		t.IsStarred = *p.IsStarred
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.SetAttachments || p.Attachments != nil {
		t.Attachments = p.Attachments
		if t.Attachments == nil {
			t.Attachments = []Attachment{}
		}
	}
	return t
}
