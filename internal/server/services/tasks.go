package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

var clockTime = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// NewTask is the input of TaskService.Create.
type NewTask struct {
	Title       string
	Description string
	Priority    models.Priority
	Deadline    time.Time
	StartTime   string
	EndTime     string
	Labels      []string
	Completed   bool
	Assignee    string
}

// TaskService manages the tasks of an authenticated user. Task ids from
// other users behave like unknown ids.
type TaskService struct {
	tasks tasks.Repository
	log   logging.Logger
	now   func() time.Time
}

func NewTaskService(repo tasks.Repository, log logging.Logger) *TaskService {
	return &TaskService{tasks: repo, log: log.With("module", "tasks"), now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, owner *models.User, in NewTask) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorInvalidInput)
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority must be High, Medium or Low", common.ErrorInvalidInput)
	}
	if in.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", common.ErrorInvalidInput)
	}
	if err := validateClock("start_time", in.StartTime); err != nil {
		return nil, err
	}
	if err := validateClock("end_time", in.EndTime); err != nil {
		return nil, err
	}

	labels := in.Labels
	if labels == nil {
		labels = []string{}
	}

	task, err := s.tasks.Create(ctx, &models.Task{
		UserID:      owner.ID.String(),
		Title:       title,
		Description: in.Description,
		Priority:    in.Priority,
		Deadline:    in.Deadline.UTC(),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Labels:      labels,
		Completed:   in.Completed,
		Assignee:    in.Assignee,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "task created", "task_id", task.ID.String(), "user_id", task.UserID)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, owner *models.User) ([]models.Task, error) {
	return s.tasks.ListByOwner(ctx, owner.ID.String())
}

// Update applies the provided fields. It reports false without touching
// storage when upd carries no field.
func (s *TaskService) Update(ctx context.Context, owner *models.User, taskID string, upd models.TaskUpdate) (bool, error) {
	patch, err := taskPatch(upd)
	if err != nil {
		return false, err
	}
	if len(patch) == 0 {
		return false, nil
	}
	if err := s.tasks.Update(ctx, owner.ID.String(), ident.Parse(taskID), patch); err != nil {
		return false, err
	}
	return true, nil
}

func (s *TaskService) Delete(ctx context.Context, owner *models.User, taskID string) error {
	return s.tasks.Delete(ctx, owner.ID.String(), ident.Parse(taskID))
}

// AssignLabels replaces the task's labels.
func (s *TaskService) AssignLabels(ctx context.Context, owner *models.User, taskID string, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	return s.tasks.Update(ctx, owner.ID.String(), ident.Parse(taskID), storage.Patch{"labels": labels})
}

func taskPatch(upd models.TaskUpdate) (storage.Patch, error) {
	patch := storage.Patch{}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", common.ErrorInvalidInput)
		}
		patch["title"] = title
	}
	if upd.Description != nil {
		patch["description"] = *upd.Description
	}
	if upd.Priority != nil {
		if !upd.Priority.Valid() {
			return nil, fmt.Errorf("%w: priority must be High, Medium or Low", common.ErrorInvalidInput)
		}
		patch["priority"] = string(*upd.Priority)
	}
	if upd.Deadline != nil {
		patch["deadline"] = upd.Deadline.UTC()
	}
	if upd.StartTime != nil {
		if err := validateClock("start_time", *upd.StartTime); err != nil {
			return nil, err
		}
		patch["start_time"] = *upd.StartTime
	}
	if upd.EndTime != nil {
		if err := validateClock("end_time", *upd.EndTime); err != nil {
			return nil, err
		}
		patch["end_time"] = *upd.EndTime
	}
	if upd.Labels != nil {
		patch["labels"] = upd.Labels
	}
	if upd.Completed != nil {
		patch["completed"] = *upd.Completed
	}
	if upd.Assignee != nil {
		patch["assignee"] = *upd.Assignee
	}
	return patch, nil
}

func validateClock(field, v string) error {
	if v == "" || clockTime.MatchString(v) {
		return nil
	}
	return fmt.Errorf("%w: %s must be HH:MM", common.ErrorInvalidInput, field)
}

// ParseDeadline accepts RFC 3339, a local ISO timestamp without zone, or a
// bare date, which means midnight UTC.
func ParseDeadline(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: deadline %q is not a date", common.ErrorInvalidInput, s)
}
