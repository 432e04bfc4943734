package profilerepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/clearday/internal/domain/pollen"
	"github.com/yanqian/clearday/internal/domain/profile"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id           TEXT        PRIMARY KEY,
	tracked_allergens TEXT[]      NOT NULL DEFAULT '{}',
	briefing_hour     SMALLINT    NOT NULL,
	briefing_minute   SMALLINT    NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRepository persists profiles in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the profiles table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create profiles: %w", err)
	}
	return nil
}

// Get fetches a profile by user id.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (profile.Profile, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, tracked_allergens, briefing_hour, briefing_minute, updated_at
		FROM profiles
		WHERE user_id = $1
		LIMIT 1
	`, userID)
	if err != nil {
		return profile.Profile{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return profile.Profile{}, false, rows.Err()
	}
	p, err := scanProfile(rows)
	if err != nil {
		return profile.Profile{}, false, err
	}
	return p, true, rows.Err()
}

// Save upserts the profile.
func (r *PostgresRepository) Save(ctx context.Context, p profile.Profile) error {
	codes := make([]string, 0, len(p.TrackedAllergens))
	for _, c := range p.TrackedAllergens {
		codes = append(codes, string(c))
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, tracked_allergens, briefing_hour, briefing_minute, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET tracked_allergens = EXCLUDED.tracked_allergens,
			briefing_hour = EXCLUDED.briefing_hour,
			briefing_minute = EXCLUDED.briefing_minute,
			updated_at = EXCLUDED.updated_at
	`, p.UserID, codes, p.BriefingTime.Hour, p.BriefingTime.Minute, p.UpdatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (profile.Profile, error) {
	var (
		p       profile.Profile
		codes   []string
		hour    int16
		minute  int16
		updated time.Time
	)
	if err := row.Scan(&p.UserID, &codes, &hour, &minute, &updated); err != nil {
		return profile.Profile{}, err
	}
	p.TrackedAllergens = make([]pollen.PlantCode, 0, len(codes))
	for _, c := range codes {
		p.TrackedAllergens = append(p.TrackedAllergens, pollen.PlantCode(c))
	}
	p.BriefingTime = profile.BriefingTime{Hour: int(hour), Minute: int(minute)}
	p.UpdatedAt = updated.UTC()
	return p, nil
}

var _ profile.Repository = (*PostgresRepository)(nil)
