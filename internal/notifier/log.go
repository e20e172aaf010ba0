package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the digest to the given logger as a structured message.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs the digest via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the digest subject, counts and body.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, d model.Digest) error {
	n.logger.Info("daily digest",
		"subject", d.Subject,
		"total", d.Total,
		"new", d.New,
		"body", d.Body,
	)
	return nil
}
