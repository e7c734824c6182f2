// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"log/slog"
)

// LogDispatcher writes account emails to the log instead of sending them.
// Used in development when no SMTP host is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher returns a LogDispatcher writing to logger, or to the default logger if nil.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendConfirmation(ctx context.Context, msg TokenMessage) error {
	d.logger.InfoContext(ctx, "email_confirmation_logged", "email", msg.Email, "token", msg.Token)
	return nil
}

func (d *LogDispatcher) SendPasswordReset(ctx context.Context, msg TokenMessage) error {
	d.logger.InfoContext(ctx, "email_reset_logged", "email", msg.Email, "token", msg.Token)
	return nil
}
