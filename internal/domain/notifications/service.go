package notifications

import (
	"context"
	"log/slog"
	"time"
)

const TypeTimesheet = "timesheet"

type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Mailer is the outbound email transport. Enabled reports whether the
// transport is actually configured; a disabled mailer skips email and
// leaves delivery to the in-app channel.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
	Enabled() bool
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@example.com"}
}

// Deliver fans a message out to the recipients: an in-app notification
// for every recipient that maps to a user, plus a best-effort email.
// It reports whether at least one recipient got the message on either
// channel, so reminder bookkeeping only advances when someone can
// actually see the notice. Storage and lookup failures are logged,
// never returned.
func (s *Service) Deliver(ctx context.Context, recipients []string, subject, body string) bool {
	delivered := false
	for _, to := range recipients {
		if to == "" {
			continue
		}
		if userID, err := s.store.UserIDByEmail(ctx, to); err == nil {
			if err := s.store.CreateNotification(ctx, userID, TypeTimesheet, subject, body); err != nil {
				slog.Warn("in-app notification write failed", "userId", userID, "err", err)
			} else {
				delivered = true
			}
		}
		if s.Mailer == nil || !s.Mailer.Enabled() {
			continue
		}
		if err := s.Mailer.Send(ctx, s.DefaultFrom, to, subject, body); err != nil {
			slog.Warn("notification email send failed", "to", to, "err", err)
			continue
		}
		delivered = true
	}
	return delivered
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID int64) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
