// Package notify raises transient, user facing notifications (toasts).
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level
	Title   string
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to a zerolog logger. The CLI points it at
// a console writer so notifications read like toasts.
type LogNotifier struct {
	logger zerolog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, note Notification) {
	var ev *zerolog.Event
	switch note.Level {
	case LevelError:
		ev = n.logger.Error()
	case LevelWarning:
		ev = n.logger.Warn()
	default:
		ev = n.logger.Info()
	}
	ev.Str("notification", note.Title).Msg(note.Message)
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) {}
