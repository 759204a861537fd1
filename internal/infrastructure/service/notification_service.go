// Package service wires domain results to their delivery channels.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/external/telegram"
	"github.com/rollcall-hub/attendance-monitor/pkg/metrics"
)

// Messenger is the delivery channel the service pushes rendered messages
// into. Implemented by the Telegram client.
type Messenger interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) error
}

// NotificationService renders attendance notifications into chat messages
// and dispatches them one by one, in the order they were produced.
type NotificationService struct {
	messenger Messenger
	chatID    int64
	logger    *slog.Logger
	metrics   *metrics.Manager
}

// NewNotificationService creates a new NotificationService. metrics may be
// nil when metrics are disabled.
func NewNotificationService(messenger Messenger, chatID int64, logger *slog.Logger, m *metrics.Manager) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		messenger: messenger,
		chatID:    chatID,
		logger:    logger,
		metrics:   m,
	}
}

// Dispatch delivers one message per notification and returns how many were
// sent. A failed send is logged and counted, never propagated: one broken
// delivery must not silence the remaining courses.
func (s *NotificationService) Dispatch(ctx context.Context, notifications []attendance.Notification) int {
	sent := 0
	for _, notif := range notifications {
		messageID := uuid.New().String()
		text := RenderNotification(notif)

		err := s.messenger.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:    s.chatID,
			Text:      text,
			ParseMode: "HTML",
		})
		if err != nil {
			s.logger.Error("failed to deliver notification",
				"message_id", messageID,
				"course_id", notif.Course.ID,
				"status", notif.Status.String(),
				"error", err,
			)
			if s.metrics != nil {
				s.metrics.RecordDispatchError()
			}
			continue
		}

		s.logger.Info("notification delivered",
			"message_id", messageID,
			"course_id", notif.Course.ID,
			"status", notif.Status.String(),
			"severity", notif.Alert.Severity.String(),
		)
		if s.metrics != nil {
			s.metrics.RecordAlert(notif.Status.String())
		}
		sent++
	}
	return sent
}

// RenderNotification turns one notification into Telegram HTML. The layout
// is fixed: course title, what changed, current standing, then the advice
// derived from the alert's action count.
func RenderNotification(notif attendance.Notification) string {
	alert := notif.Alert

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", escapeHTML(alert.CourseLabel))
	b.WriteString(statusLine(notif.Status))
	fmt.Fprintf(&b, "Attendance: %d/%d (%.1f%%)\n", alert.Present, alert.Total, alert.Percentage)
	b.WriteString(adviceLine(alert))
	return b.String()
}

func statusLine(status attendance.ChangeStatus) string {
	switch status {
	case attendance.StatusPresent:
		return "✅ You attended a new lecture.\n"
	case attendance.StatusAbsent:
		return "❌ You missed a lecture.\n"
	default:
		return "⚠️ Attendance records changed.\n"
	}
}

func adviceLine(alert attendance.Alert) string {
	if alert.Severity == attendance.SeverityCritical {
		return fmt.Sprintf("🚨 Below %.0f%%: attend the next %d %s to recover.",
			attendance.RequiredPercentage, alert.ActionCount, pluralLectures(alert.ActionCount))
	}
	return fmt.Sprintf("🟢 At or above %.0f%%: you can still miss %d %s.",
		attendance.RequiredPercentage, alert.ActionCount, pluralLectures(alert.ActionCount))
}

func pluralLectures(n int) string {
	if n == 1 {
		return "lecture"
	}
	return "lectures"
}

// escapeHTML escapes the characters Telegram's HTML parse mode reserves.
// Course titles come from the portal and occasionally contain ampersands.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
