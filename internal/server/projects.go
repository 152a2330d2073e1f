package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/projectpulse/internal/model"
)

type projectRequest struct {
	Name     string  `json:"name"`
	Client   string  `json:"client"`
	Deadline *string `json:"deadline"`
	Budget   float64 `json:"budget"`
	Status   string  `json:"status"`
}

func (r projectRequest) project(id int64) model.Project {
	return model.Project{
		ID:       id,
		Name:     r.Name,
		Client:   r.Client,
		Deadline: r.Deadline,
		Budget:   r.Budget,
		Status:   r.Status,
	}
}

// handleListProjects returns all projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.GetProjects(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a new project entity.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := req.project(0)
	if err := s.store.CreateProject(c.Request.Context(), &p); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": p})
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	p, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": p})
}

// handleUpdateProject overwrites the editable fields of a project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	p := req.project(id)
	if err := s.store.UpdateProject(c.Request.Context(), &p); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": p})
}

// handleDeleteProject removes a project and all related tasks.
func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) handleProjectProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	progress, err := s.stats.ProjectProgress(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"progress": progress})
}

func (s *Server) handleProjectCost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cost, err := s.stats.ProjectCost(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cost": cost})
}
