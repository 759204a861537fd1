package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollcall-hub/attendance-monitor/internal/domain/attendance"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/external/telegram"
)

type fakeMessenger struct {
	sent    []telegram.SendMessageParams
	failOn  map[int]error
	callNum int
}

func (f *fakeMessenger) SendMessage(_ context.Context, params telegram.SendMessageParams) error {
	f.callNum++
	if err, ok := f.failOn[f.callNum]; ok {
		return err
	}
	f.sent = append(f.sent, params)
	return nil
}

func makeNotification(id, label string, present, total int, status attendance.ChangeStatus) attendance.Notification {
	return attendance.Notification{
		Course: attendance.Course{ID: id, Label: label, Present: present, Total: total},
		Status: status,
		Alert:  attendance.ComputeAlert(label, present, total, status),
	}
}

func TestDispatch_DeliversInOrder(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewNotificationService(messenger, 42, slog.Default(), nil)

	notifications := []attendance.Notification{
		makeNotification("c1", "Algorithms", 5, 10, attendance.StatusAbsent),
		makeNotification("c2", "Databases", 9, 10, attendance.StatusPresent),
	}

	sent := svc.Dispatch(context.Background(), notifications)

	assert.Equal(t, 2, sent)
	require.Len(t, messenger.sent, 2)
	assert.Contains(t, messenger.sent[0].Text, "Algorithms")
	assert.Contains(t, messenger.sent[1].Text, "Databases")
	assert.Equal(t, int64(42), messenger.sent[0].ChatID)
	assert.Equal(t, "HTML", messenger.sent[0].ParseMode)
}

func TestDispatch_FailureDoesNotAbortRemaining(t *testing.T) {
	messenger := &fakeMessenger{
		failOn: map[int]error{1: errors.New("telegram down")},
	}
	svc := NewNotificationService(messenger, 42, slog.Default(), nil)

	notifications := []attendance.Notification{
		makeNotification("c1", "Algorithms", 5, 10, attendance.StatusAbsent),
		makeNotification("c2", "Databases", 9, 10, attendance.StatusPresent),
	}

	sent := svc.Dispatch(context.Background(), notifications)

	assert.Equal(t, 1, sent)
	require.Len(t, messenger.sent, 1)
	assert.Contains(t, messenger.sent[0].Text, "Databases")
}

func TestDispatch_EmptyListSendsNothing(t *testing.T) {
	messenger := &fakeMessenger{}
	svc := NewNotificationService(messenger, 42, slog.Default(), nil)

	sent := svc.Dispatch(context.Background(), nil)

	assert.Zero(t, sent)
	assert.Empty(t, messenger.sent)
}

func TestRenderNotification_Critical(t *testing.T) {
	notif := makeNotification("c1", "Algorithms", 5, 10, attendance.StatusAbsent)

	text := RenderNotification(notif)

	assert.Contains(t, text, "<b>Algorithms</b>")
	assert.Contains(t, text, "missed a lecture")
	assert.Contains(t, text, "5/10 (50.0%)")
	assert.Contains(t, text, "attend the next 10 lectures")
}

func TestRenderNotification_Secure(t *testing.T) {
	notif := makeNotification("c1", "Databases", 9, 10, attendance.StatusPresent)

	text := RenderNotification(notif)

	assert.Contains(t, text, "attended a new lecture")
	assert.Contains(t, text, "9/10 (90.0%)")
	assert.Contains(t, text, "miss 2 lectures")
}

func TestRenderNotification_UnknownStatus(t *testing.T) {
	notif := makeNotification("c1", "Physics", 3, 4, attendance.StatusUnknown)

	text := RenderNotification(notif)

	assert.Contains(t, text, "records changed")
	assert.Contains(t, text, "3/4 (75.0%)")
}

func TestRenderNotification_SingularLecture(t *testing.T) {
	// 8/11 = 72.7%, one attended lecture reaches 9/12 = 75%.
	notif := makeNotification("c1", "Ethics", 8, 11, attendance.StatusAbsent)

	text := RenderNotification(notif)

	assert.Contains(t, text, "next 1 lecture ")
}

func TestRenderNotification_EscapesHTML(t *testing.T) {
	notif := makeNotification("c1", "Algorithms & Data <Structures>", 5, 10, attendance.StatusAbsent)

	text := RenderNotification(notif)

	assert.Contains(t, text, "Algorithms &amp; Data &lt;Structures&gt;")
	assert.NotContains(t, text, "<Structures>")
}
