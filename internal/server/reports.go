package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleProjectStatusReport(c *gin.Context) {
	report, err := s.stats.ProjectStatusReport(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"report": report})
}

// handleWorkloadReport accepts optional start and end dates.
func (s *Server) handleWorkloadReport(c *gin.Context) {
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

	report, err := s.stats.DeveloperWorkload(c.Request.Context(), start, end)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"report": report})
}

func (s *Server) handleOverdueTasksReport(c *gin.Context) {
	report, err := s.stats.OverdueTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"report": report})
}

// handleRevenueReport accepts optional year and month.
func (s *Server) handleRevenueReport(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		s.respondError(c, err)
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		s.respondError(c, err)
		return
	}

	report, err := s.stats.MonthlyRevenue(c.Request.Context(), year, time.Month(month))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"report": report})
}
