package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/clearday/internal/domain/pollen"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/util"
)

// Service manages user preferences.
type Service interface {
	Get(ctx context.Context, userID string) (Profile, error)
	UpdateAllergens(ctx context.Context, userID string, codes []string) (Profile, error)
	UpdateBriefingTime(ctx context.Context, userID string, at BriefingTime) (Profile, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the profile domain.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger.With("component", "profile.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Get(ctx context.Context, userID string) (Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id is required", nil)
	}
	p, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Profile{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to load profile", err)
	}
	if !found {
		return Default(userID), nil
	}
	if p.TrackedAllergens == nil {
		p.TrackedAllergens = []pollen.PlantCode{}
	}
	return p, nil
}

func (s *service) UpdateAllergens(ctx context.Context, userID string, codes []string) (Profile, error) {
	normalized, err := normalizeAllergens(codes)
	if err != nil {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p.TrackedAllergens = normalized
	if err := s.save(ctx, &p); err != nil {
		return Profile{}, err
	}
	s.logger.Info("tracked allergens updated", "user", p.UserID, "count", len(normalized))
	return p, nil
}

func (s *service) UpdateBriefingTime(ctx context.Context, userID string, at BriefingTime) (Profile, error) {
	if !at.Valid() {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("briefing time %02d:%02d is not a valid time of day", at.Hour, at.Minute), nil)
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p.BriefingTime = at
	if err := s.save(ctx, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *service) save(ctx context.Context, p *Profile) error {
	p.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, *p); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to save profile", err)
	}
	return nil
}

func normalizeAllergens(codes []string) ([]pollen.PlantCode, error) {
	seen := make(pollen.Set, len(codes))
	for _, raw := range codes {
		code, err := pollen.ParsePlantCode(raw)
		if err != nil {
			return nil, err
		}
		seen[code] = struct{}{}
	}
	return seen.Sorted(), nil
}
