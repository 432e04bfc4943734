package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yanqian/clearday/internal/domain/briefing"
)

// LogNotifier writes briefings to the service log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify.log")}
}

func (n *LogNotifier) Notify(ctx context.Context, msg briefing.Message) error {
	n.logger.InfoContext(ctx, msg.Title, "user", msg.UserID, "id", msg.ID, "date", msg.Date.String(), "body", strings.Join(msg.Lines, " | "))
	return nil
}

var _ briefing.Notifier = (*LogNotifier)(nil)
