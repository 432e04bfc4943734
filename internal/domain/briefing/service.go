package briefing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/clearday/internal/domain/allergen"
	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/internal/domain/profile"
	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/util"
)

// Notifier delivers a message to the user's devices.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Service composes and sends briefings on demand.
type Service interface {
	Send(ctx context.Context, userID string, date caldate.Date) (Message, error)
}

type service struct {
	logs     dailylog.Service
	profiles profile.Service
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService wires the briefing domain.
func NewService(logs dailylog.Service, profiles profile.Service, notifier Notifier, logger *slog.Logger) Service {
	return &service{
		logs:     logs,
		profiles: profiles,
		notifier: notifier,
		logger:   logger.With("component", "briefing.service"),
		now:      util.NowUTC,
		newID:    uuid.NewString,
	}
}

func (s *service) Send(ctx context.Context, userID string, date caldate.Date) (Message, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Message{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id is required", nil)
	}
	if date.IsZero() {
		return Message{}, apperrors.Wrap(apperrors.CodeInvalidInput, "date is required", nil)
	}

	rec, err := s.logs.Get(ctx, userID, date)
	if err != nil {
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			return Message{}, err
		}
		// nothing fetched yet still yields a briefing full of "Unknown"
		rec = dailylog.Record{Date: date}
	}

	var risk allergen.Risk
	if rec.Pollen != nil {
		p, err := s.profiles.Get(ctx, userID)
		if err != nil {
			return Message{}, err
		}
		risk = allergen.ComputeRisk(p.Tracked(), *rec.Pollen)
	}

	msg := Message{
		ID:        s.newID(),
		UserID:    userID,
		Date:      date,
		Title:     Title,
		Lines:     Compose(rec, risk),
		CreatedAt: s.now(),
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		return Message{}, apperrors.Wrap(apperrors.CodeNotifyError, "failed to deliver briefing", err)
	}
	s.logger.Info("briefing sent", "user", userID, "date", date.String(), "id", msg.ID)
	return msg, nil
}
