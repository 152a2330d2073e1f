package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
)

const notificationColumns = `id, title, message, type, related_id, related_type,
	is_read, user_id, created_at`

// notificationRow is the flat database shape of a model.Notification.
type notificationRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	Message     string         `db:"message"`
	Type        string         `db:"type"`
	RelatedID   sql.NullInt64  `db:"related_id"`
	RelatedType sql.NullString `db:"related_type"`
	IsRead      bool           `db:"is_read"`
	UserID      sql.NullInt64  `db:"user_id"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r notificationRow) toModel() model.Notification {
	n := model.Notification{
		ID:        r.ID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      model.NotificationType(r.Type),
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
	if r.RelatedID.Valid && r.RelatedType.Valid {
		n.Related = &model.Ref{ID: r.RelatedID.Int64, Kind: model.RelatedKind(r.RelatedType.String)}
	}
	if r.UserID.Valid {
		uid := r.UserID.Int64
		n.UserID = &uid
	}
	return n
}

// CreateNotification inserts a notification, filling in its ID and
// creation time. Callers validate the content first.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	var relatedID sql.NullInt64
	var relatedType sql.NullString
	if n.Related != nil {
		relatedID = sql.NullInt64{Int64: n.Related.ID, Valid: true}
		relatedType = sql.NullString{String: string(n.Related.Kind), Valid: true}
	}
	n.CreatedAt = s.Now()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (title, message, type, related_id, related_type,
			is_read, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.Title, n.Message, string(n.Type), relatedID, relatedType,
		boolToInt(n.IsRead), n.UserID, n.CreatedAt,
	)
	if err != nil {
		return apperr.Wrap(err, "creating notification")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return apperr.Wrap(err, "reading notification id")
	}
	n.ID = id
	return nil
}

// GetNotification retrieves a single notification by ID.
func (s *SQLiteStore) GetNotification(ctx context.Context, id int64) (*model.Notification, error) {
	var row notificationRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id)
	if err != nil {
		return nil, getOne(err, "notification", id)
	}
	n := row.toModel()
	return &n, nil
}

// GetNotifications returns notifications newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error) {
	var conditions []string
	var args []interface{}

	if filter.OnlyUnread {
		conditions = append(conditions, "is_read = 0")
	}
	if filter.UserID != nil {
		conditions = append(conditions, "(user_id = ? OR user_id IS NULL)")
		args = append(args, *filter.UserID)
	}
	if filter.AfterID > 0 {
		conditions = append(conditions, "id > ?")
		args = append(args, filter.AfterID)
	}

	query := "SELECT " + notificationColumns + " FROM notifications"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query = paginate(query+" ORDER BY created_at DESC, id DESC", filter.Limit, filter.Offset)

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperr.Wrap(err, "querying notifications")
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		notifications = append(notifications, r.toModel())
	}
	return notifications, nil
}

// GetNotifiedTargets returns the ids already notified under kind, read or
// not. Rules use it to avoid repeating themselves.
func (s *SQLiteStore) GetNotifiedTargets(ctx context.Context, kind model.RelatedKind) (map[int64]bool, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT related_id FROM notifications
		WHERE related_type = ? AND related_id IS NOT NULL`, string(kind))
	if err != nil {
		return nil, apperr.Wrap(err, "querying notified %s targets", kind)
	}

	targets := make(map[int64]bool, len(ids))
	for _, id := range ids {
		targets[id] = true
	}
	return targets, nil
}

// MarkNotificationRead flags a notification as read. Marking an already
// read notification is a no-op.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(err, "marking notification %d read", id)
	}
	return checkAffected(result, "notification", id)
}

// MarkAllNotificationsRead flags every unread notification as read and
// returns how many changed.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE is_read = 0")
	if err != nil {
		return 0, apperr.Wrap(err, "marking notifications read")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperr.Wrap(err, "reading affected rows")
	}
	return n, nil
}

// DeleteNotification removes a notification by ID.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return apperr.Wrap(err, "deleting notification %d", id)
	}
	return checkAffected(result, "notification", id)
}

// DeleteReadNotifications removes every read notification and returns how
// many were deleted.
func (s *SQLiteStore) DeleteReadNotifications(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE is_read = 1")
	if err != nil {
		return 0, apperr.Wrap(err, "deleting read notifications")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperr.Wrap(err, "reading affected rows")
	}
	return n, nil
}

// CountUnreadNotifications counts unread notifications visible to userID,
// or all of them when userID is nil.
func (s *SQLiteStore) CountUnreadNotifications(ctx context.Context, userID *int64) (int, error) {
	query := "SELECT COUNT(*) FROM notifications WHERE is_read = 0"
	var args []interface{}
	if userID != nil {
		query += " AND (user_id = ? OR user_id IS NULL)"
		args = append(args, *userID)
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, apperr.Wrap(err, "counting unread notifications")
	}
	return count, nil
}
