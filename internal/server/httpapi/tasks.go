package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	Deadline    string          `json:"deadline"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Labels      []string        `json:"labels"`
	Completed   bool            `json:"completed"`
	Assignee    string          `json:"assignee"`
}

type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	Deadline    *string          `json:"deadline"`
	StartTime   *string          `json:"start_time"`
	EndTime     *string          `json:"end_time"`
	Labels      []string         `json:"labels"`
	Completed   *bool            `json:"completed"`
	Assignee    *string          `json:"assignee"`
}

type createTaskResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type assignLabelsRequest struct {
	Labels []string `json:"labels"`
}

// CreateTask handles POST /api/tasks.
func (a *API) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	var deadline time.Time
	if req.Deadline != "" {
		d, err := services.ParseDeadline(req.Deadline)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		deadline = d
	}

	task, err := a.tasks.Create(r.Context(), UserFrom(r.Context()), services.NewTask{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    deadline,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Labels:      req.Labels,
		Completed:   req.Completed,
		Assignee:    req.Assignee,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createTaskResponse{TaskID: task.ID.String(), Message: "Task created successfully"})
}

// ListTasks handles GET /api/tasks.
func (a *API) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := a.tasks.List(r.Context(), UserFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateTask handles PUT /api/tasks/{taskID}. Only the provided fields change.
func (a *API) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	upd := models.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Labels:      req.Labels,
		Completed:   req.Completed,
		Assignee:    req.Assignee,
	}
	if req.Deadline != nil {
		d, err := services.ParseDeadline(*req.Deadline)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		upd.Deadline = &d
	}

	changed, err := a.tasks.Update(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "taskID"), upd)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusOK, messageResponse{Message: "No updates provided"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task updated"})
}

// DeleteTask handles DELETE /api/tasks/{taskID}.
func (a *API) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := a.tasks.Delete(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "taskID")); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted"})
}

// AssignLabels handles PATCH /api/tasks/{taskID}/labels.
func (a *API) AssignLabels(w http.ResponseWriter, r *http.Request) {
	var req assignLabelsRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.tasks.AssignLabels(r.Context(), UserFrom(r.Context()), chi.URLParam(r, "taskID"), req.Labels); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Labels assigned successfully"})
}
