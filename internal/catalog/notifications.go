package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/bookshop-client/internal/domain"
	"github.com/example/bookshop-client/internal/persist"
)

// Notifications returns a copy of the log, newest first.
func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// AddNotification prepends an unread entry and mirrors the log.
func (s *Store) AddNotification(title, message string, typ domain.NotificationType) {
	n := domain.Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Type:      typ,
		Read:      false,
		Timestamp: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]domain.Notification{n}, s.notifications...)
	persist.SaveJSON(s.save, persist.KeyNotifications, s.notifications)
}

// MarkNotificationAsRead flips a single entry's read flag.
func (s *Store) MarkNotificationAsRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			break
		}
	}
	persist.SaveJSON(s.save, persist.KeyNotifications, s.notifications)
}

// ClearNotifications empties the log.
func (s *Store) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
	persist.SaveJSON(s.save, persist.KeyNotifications, s.notifications)
}
