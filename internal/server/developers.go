package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/projectpulse/internal/model"
)

type developerRequest struct {
	FullName   string  `json:"full_name"`
	Position   string  `json:"position"`
	HourlyRate float64 `json:"hourly_rate"`
}

func (s *Server) handleListDevelopers(c *gin.Context) {
	devs, err := s.store.GetDevelopers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"developers": devs})
}

// handleUpsertDeveloper creates a developer or updates the one with the
// same full name.
func (s *Server) handleUpsertDeveloper(c *gin.Context) {
	var req developerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	d := model.Developer{FullName: req.FullName, Position: req.Position, HourlyRate: req.HourlyRate}
	if err := s.store.UpsertDeveloper(c.Request.Context(), &d); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"developer": d})
}

func (s *Server) handleGetDeveloper(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := s.store.GetDeveloper(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"developer": d})
}

func (s *Server) handleDeleteDeveloper(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteDeveloper(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleDeveloperSalary computes pay for an optional start/end range.
func (s *Server) handleDeveloperSalary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	start, err := queryDate(c, "start")
	if err != nil {
		s.respondError(c, err)
		return
	}
	end, err := queryDate(c, "end")
	if err != nil {
		s.respondError(c, err)
		return
	}

	salary, err := s.stats.DeveloperSalary(c.Request.Context(), id, start, end)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"salary": salary})
}
