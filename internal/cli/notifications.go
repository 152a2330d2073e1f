package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/notify"
	"github.com/nhle/projectpulse/internal/theme"
)

func runNotifications(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list", "ls":
		return listNotifications(ctx, e, rest)
	case "add":
		return addNotification(ctx, e, rest)
	case "read":
		id, err := parseID(rest, "notification")
		if err != nil {
			return err
		}
		if err := e.notify.MarkRead(ctx, id); err != nil {
			return err
		}
		success(e.out, "notification %d marked read", id)
		return nil
	case "read-all":
		n, err := e.notify.MarkAllRead(ctx)
		if err != nil {
			return err
		}
		success(e.out, "%d notifications marked read", n)
		return nil
	case "delete", "rm":
		id, err := parseID(rest, "notification")
		if err != nil {
			return err
		}
		if err := e.notify.Delete(ctx, id); err != nil {
			return err
		}
		success(e.out, "notification %d deleted", id)
		return nil
	case "purge-read":
		return purgeRead(ctx, e, rest)
	default:
		return fmt.Errorf("unknown notifications command %q (list, add, read, read-all, delete, purge-read)", sub)
	}
}

func listNotifications(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("notifications list")
	unread := fs.Bool("unread", false, "only unread notifications")
	limit := fs.Int("limit", 50, "maximum number of notifications")
	offset := fs.Int("offset", 0, "number of notifications to skip")
	user := fs.Int64("user", 0, "only notifications for this user and broadcasts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := e.notify.List(ctx, notify.Filter{
		Limit:      *limit,
		Offset:     *offset,
		OnlyUnread: *unread,
		UserID:     optionalID(*user),
	})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(e.out, theme.DimmedStyle.Render("no notifications"))
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, n := range list {
		state := "unread"
		if n.IsRead {
			state = "read"
		}
		about := "-"
		if n.Related != nil {
			about = fmt.Sprintf("%s #%d", n.Related.Kind, n.Related.ID)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", n.ID),
			theme.NotificationStyle(string(n.Type)).Render(string(n.Type)),
			state,
			n.CreatedAt.Local().Format(time.DateTime),
			about,
			n.Title,
		})
	}
	renderTable(e.out, []string{"ID", "Type", "State", "Created", "About", "Title"}, rows)
	return nil
}

func addNotification(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("notifications add")
	title := fs.String("title", "", "notification title")
	message := fs.String("message", "", "notification message")
	typ := fs.String("type", string(model.NotificationInfo), "info, warning or error")
	kind := fs.String("related-kind", "", "kind of the related entity: project, task, developer")
	related := fs.Int64("related-id", 0, "id of the related entity")
	user := fs.Int64("user", 0, "recipient user id; omit to broadcast")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := notify.Request{
		Title:   *title,
		Message: *message,
		Type:    model.NotificationType(*typ),
		UserID:  optionalID(*user),
	}
	switch {
	case *kind != "":
		req.Related = &model.Ref{ID: *related, Kind: model.RelatedKind(*kind)}
	case *related != 0:
		return apperr.Validationf("related_type", "--related-id needs --related-kind")
	}

	n, err := e.notify.Create(ctx, req)
	if err != nil {
		return err
	}
	success(e.out, "notification %d created", n.ID)
	return nil
}

func purgeRead(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("notifications purge-read")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes {
		ok, err := e.confirm("Delete all read notifications?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(e.out, "nothing deleted")
			return nil
		}
	}

	n, err := e.notify.DeleteAllRead(ctx)
	if err != nil {
		return err
	}
	success(e.out, "%d read notifications deleted", n)
	return nil
}
