// Package notify validates notifications and manages their read/delete
// lifecycle on top of the store.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/store"
)

// Repository is the notification part of the store.
type Repository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id int64) (*model.Notification, error)
	GetNotifications(ctx context.Context, filter store.NotificationFilter) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id int64) error
	DeleteReadNotifications(ctx context.Context) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID *int64) (int, error)
}

// Request describes a notification to create.
type Request struct {
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Type    model.NotificationType `json:"type"`
	Related *model.Ref             `json:"related,omitempty"`
	UserID  *int64                 `json:"user_id,omitempty"`
}

// Filter selects notifications for List.
type Filter struct {
	Limit      int
	Offset     int
	OnlyUnread bool
	UserID     *int64
	AfterID    int64
}

// Service is the notification store used by rules and presentation code.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService returns a Service over repo. A nil logger discards output.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Validate checks a notification before it is stored. An empty type
// defaults to info.
func Validate(n *model.Notification) error {
	n.Title = strings.TrimSpace(n.Title)
	n.Message = strings.TrimSpace(n.Message)
	if n.Type == "" {
		n.Type = model.NotificationInfo
	}

	if n.Title == "" {
		return apperr.Validationf("title", "notification title must not be empty")
	}
	if n.Message == "" {
		return apperr.Validationf("message", "notification message must not be empty")
	}
	if !n.Type.Valid() {
		return apperr.Validationf("type", "invalid notification type %q", n.Type)
	}
	if n.Related != nil {
		if _, ok := n.Related.Kind.Entity(); !ok {
			return apperr.Validationf("related_type", "unknown related type %q", n.Related.Kind)
		}
		if n.Related.ID <= 0 {
			return apperr.Validationf("related_id", "related id must be positive")
		}
	}
	if n.UserID != nil && *n.UserID <= 0 {
		return apperr.Validationf("user_id", "user id must be positive")
	}
	return nil
}

// Create validates and stores a new unread notification. Rule categories
// are reserved for the rules engine, which deduplicates on them.
func (s *Service) Create(ctx context.Context, req Request) (*model.Notification, error) {
	if req.Related != nil && req.Related.Kind.IsRule() {
		return nil, apperr.Validationf("related_type",
			"related type %q is reserved for rule notifications", req.Related.Kind)
	}
	n := &model.Notification{
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Related: req.Related,
		UserID:  req.UserID,
	}
	if err := s.CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateNotification validates n and stores it, setting its ID.
func (s *Service) CreateNotification(ctx context.Context, n *model.Notification) error {
	if err := Validate(n); err != nil {
		return err
	}
	n.IsRead = false
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return err
	}
	s.logger.Debug("notification created", "id", n.ID, "type", n.Type, "title", n.Title)
	return nil
}

// Get returns one notification.
func (s *Service) Get(ctx context.Context, id int64) (*model.Notification, error) {
	return s.repo.GetNotification(ctx, id)
}

// List returns notifications newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]model.Notification, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, apperr.Validationf("limit", "limit and offset must not be negative")
	}
	return s.repo.GetNotifications(ctx, store.NotificationFilter{
		OnlyUnread: f.OnlyUnread,
		UserID:     f.UserID,
		AfterID:    f.AfterID,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
}

// MarkRead flags one notification as read. It fails with a not-found error
// for unknown ids.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkNotificationRead(ctx, id)
}

// MarkAllRead flags every notification as read and returns how many
// changed.
func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkAllNotificationsRead(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("notifications marked read", "count", n)
	return n, nil
}

// Delete removes one notification.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteNotification(ctx, id)
}

// DeleteAllRead removes every read notification and returns how many went.
func (s *Service) DeleteAllRead(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteReadNotifications(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("read notifications deleted", "count", n)
	return n, nil
}

// UnreadCount counts unread notifications visible to userID; nil counts all.
func (s *Service) UnreadCount(ctx context.Context, userID *int64) (int, error) {
	return s.repo.CountUnreadNotifications(ctx, userID)
}
