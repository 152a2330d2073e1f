package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/store"
)

type taskRequest struct {
	ProjectID   int64            `json:"project_id"`
	DeveloperID *int64           `json:"developer_id"`
	Description string           `json:"description"`
	Status      model.TaskStatus `json:"status"`
	HoursWorked float64          `json:"hours_worked"`
}

func (r taskRequest) task(id int64) model.Task {
	return model.Task{
		ID:          id,
		ProjectID:   r.ProjectID,
		DeveloperID: r.DeveloperID,
		Description: r.Description,
		Status:      r.Status,
		HoursWorked: r.HoursWorked,
	}
}

// handleListTasks returns tasks filtered by project_id, developer_id,
// status and open=true.
func (s *Server) handleListTasks(c *gin.Context) {
	var filter store.TaskFilter
	var err error
	if filter.ProjectID, err = queryInt64(c, "project_id"); err != nil {
		s.respondError(c, err)
		return
	}
	if filter.DeveloperID, err = queryInt64(c, "developer_id"); err != nil {
		s.respondError(c, err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := model.TaskStatus(raw)
		if !status.Valid() {
			s.respondError(c, apperr.Validationf("status", "invalid task status %q", raw))
			return
		}
		filter.Status = &status
	}
	filter.OnlyOpen = c.Query("open") == "true"

	tasks, err := s.store.GetTasks(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	t := req.task(0)
	if err := s.store.CreateTask(c.Request.Context(), &t); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": t})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": t})
}

// handleUpdateTask overwrites a task; its updated_at advances.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	t := req.task(id)
	if err := s.store.UpdateTask(c.Request.Context(), &t); err != nil {
		s.respondError(c, err)
		return
	}
	updated, err := s.store.GetTask(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": updated})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
