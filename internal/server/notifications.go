package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/projectpulse/internal/notify"
)

// handleListNotifications returns notifications newest first.
// Query: limit, offset, unread=true, user_id.
func (s *Server) handleListNotifications(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		s.respondError(c, err)
		return
	}
	userID, err := queryInt64(c, "user_id")
	if err != nil {
		s.respondError(c, err)
		return
	}

	list, err := s.notify.List(c.Request.Context(), notify.Filter{
		Limit:      limit,
		Offset:     offset,
		OnlyUnread: c.Query("unread") == "true",
		UserID:     userID,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"notifications": list})
}

// handleCreateNotification stores a manually created notification.
func (s *Server) handleCreateNotification(c *gin.Context) {
	var req notify.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	n, err := s.notify.Create(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"notification": n})
}

func (s *Server) handleGetNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := s.notify.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"notification": n})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.notify.MarkRead(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "read"})
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	n, err := s.notify.MarkAllRead(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"updated": n})
}

func (s *Server) handleDeleteNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.notify.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleDeleteRead purges every read notification.
func (s *Server) handleDeleteRead(c *gin.Context) {
	n, err := s.notify.DeleteAllRead(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": n})
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	userID, err := queryInt64(c, "user_id")
	if err != nil {
		s.respondError(c, err)
		return
	}
	n, err := s.notify.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"unread": n})
}

// handleRunChecks runs every notification rule once. Per-rule failures
// are reported in the result, not as an HTTP error.
func (s *Server) handleRunChecks(c *gin.Context) {
	res := s.rules.RunAll(c.Request.Context())
	respondSuccess(c, http.StatusOK, gin.H{"result": res})
}

func (s *Server) handleCheckHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if limit <= 0 {
		limit = 20
	}
	runs, err := s.store.GetCheckRuns(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"runs": runs})
}
