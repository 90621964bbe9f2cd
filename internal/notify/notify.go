// Package notify carries mutation outcomes to the user-facing surface.
// Every mutation produces exactly one notification, success or failure.
package notify

import "log/slog"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification describes one mutation outcome.
type Notification struct {
	Level    Level
	Op       string
	EntityID string
	Message  string
}

type Notifier interface {
	Publish(n Notification)
}

// Log emits notifications through slog. It is the default sink.
type Log struct {
	Logger *slog.Logger
}

func (l *Log) Publish(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch n.Level {
	case LevelError:
		logger.Error(n.Message, "op", n.Op, "entity", n.EntityID)
	default:
		logger.Info(n.Message, "op", n.Op, "entity", n.EntityID)
	}
}

// Discard drops notifications; handy in tests that assert elsewhere.
type Discard struct{}

func (Discard) Publish(Notification) {}
