package digest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/projectpulse/internal/apperr"
	"github.com/nhle/projectpulse/internal/model"
	"github.com/nhle/projectpulse/internal/notify"
)

// Sender delivers a rendered message.
type Sender interface {
	Deliver(ctx context.Context, raw []byte) error
}

// Lister returns notifications to summarize.
type Lister interface {
	List(ctx context.Context, f notify.Filter) ([]model.Notification, error)
}

// maxItems caps how many notifications one digest carries.
const maxItems = 200

// Service builds digests of unread notifications and sends them.
type Service struct {
	list   Lister
	send   Sender
	from   string
	to     string
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex
	// lastID is the newest notification already delivered.
	lastID int64
}

// NewService returns a digest Service. A nil logger discards output.
func NewService(list Lister, send Sender, cfg model.DigestConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		list:   list,
		send:   send,
		from:   cfg.From,
		to:     cfg.To,
		now:    time.Now,
		logger: logger,
	}
}

// Send delivers a digest of the unread notifications this Service has not
// delivered before and returns how many it carried. Nothing is sent when
// there is nothing new.
func (s *Service) Send(ctx context.Context) (int, error) {
	if s.from == "" || s.to == "" {
		return 0, apperr.Validationf("digest", "digest.from and digest.to must be configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.list.List(ctx, notify.Filter{OnlyUnread: true, AfterID: s.lastID, Limit: maxItems})
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		s.logger.Debug("digest skipped, nothing new")
		return 0, nil
	}

	raw, err := Render(Digest{
		From:          s.from,
		To:            s.to,
		GeneratedAt:   s.now(),
		Notifications: items,
	})
	if err != nil {
		return 0, err
	}
	if err := s.send.Deliver(ctx, raw); err != nil {
		return 0, err
	}

	for _, n := range items {
		s.lastID = max(s.lastID, n.ID)
	}
	s.logger.Info("digest delivered", "notifications", len(items), "to", s.to)
	return len(items), nil
}
