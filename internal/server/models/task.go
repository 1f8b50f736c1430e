package models

import (
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/ident"
)

// Priority of a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Task belongs to exactly one user. StartTime and EndTime are "HH:MM".
type Task struct {
	ID          ident.ID  `bson:"_id,omitempty" json:"id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Priority    Priority  `bson:"priority" json:"priority"`
	Deadline    time.Time `bson:"deadline" json:"deadline"`
	StartTime   string    `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime     string    `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Labels      []string  `bson:"labels" json:"labels"`
	Completed   bool      `bson:"completed" json:"completed"`
	Assignee    string    `bson:"assignee,omitempty" json:"assignee,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// TaskUpdate carries the fields a caller wants to change; nil means keep.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	StartTime   *string    `json:"start_time,omitempty"`
	EndTime     *string    `json:"end_time,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Assignee    *string    `json:"assignee,omitempty"`
}
