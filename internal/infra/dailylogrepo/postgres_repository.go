package dailylogrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/pkg/caldate"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_logs (
	user_id    TEXT        NOT NULL,
	log_date   DATE        NOT NULL,
	record     JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, log_date)
)`

// PostgresRepository stores one JSONB document per user-day.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the daily_logs table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create daily_logs: %w", err)
	}
	return nil
}

// Load fetches a single day.
func (r *PostgresRepository) Load(ctx context.Context, userID string, date caldate.Date) (dailylog.Record, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT log_date, record
		FROM daily_logs
		WHERE user_id = $1 AND log_date = $2
		LIMIT 1
	`, userID, date.Time())
	if err != nil {
		return dailylog.Record{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return dailylog.Record{}, false, rows.Err()
	}
	rec, err := scanRecord(rows)
	if err != nil {
		return dailylog.Record{}, false, err
	}
	return rec, true, rows.Err()
}

// StoreField sets one top-level key of the day's document. The concatenation
// runs inside the upsert, so writers of other fields on other connections are
// never overwritten.
func (r *PostgresRepository) StoreField(ctx context.Context, userID string, rec dailylog.Record, field dailylog.Field) (dailylog.Record, error) {
	key, value, err := encodeField(rec, field)
	if err != nil {
		return dailylog.Record{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO daily_logs (user_id, log_date, record, updated_at)
		VALUES ($1, $2, jsonb_build_object($3::text, $4::jsonb), now())
		ON CONFLICT (user_id, log_date)
		DO UPDATE SET record = daily_logs.record || jsonb_build_object($3::text, $4::jsonb),
		              updated_at = now()
		RETURNING log_date, record
	`, userID, rec.Date.Time(), key, value)
	stored, err := scanRecord(row)
	if err != nil {
		return dailylog.Record{}, fmt.Errorf("store daily log field %s: %w", field, err)
	}
	return stored, nil
}

// encodeField returns the document key and JSON value of field; an unset
// field encodes as JSON null, which decodes back to an absent field.
func encodeField(rec dailylog.Record, field dailylog.Field) (string, []byte, error) {
	key := field.DocumentKey()
	if key == "" {
		return "", nil, fmt.Errorf("unknown daily log field %q", field)
	}
	value, err := json.Marshal(rec.FieldValue(field))
	if err != nil {
		return "", nil, fmt.Errorf("encode daily log field %s: %w", field, err)
	}
	return key, value, nil
}

// LoadMonth fetches every stored day of month.
func (r *PostgresRepository) LoadMonth(ctx context.Context, userID string, month caldate.YearMonth) (map[caldate.Date]dailylog.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT log_date, record
		FROM daily_logs
		WHERE user_id = $1 AND log_date BETWEEN $2 AND $3
		ORDER BY log_date
	`, userID, month.First().Time(), month.Last().Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[caldate.Date]dailylog.Record)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out[rec.Date] = rec
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (dailylog.Record, error) {
	var (
		day     time.Time
		payload []byte
	)
	if err := row.Scan(&day, &payload); err != nil {
		return dailylog.Record{}, err
	}
	var rec dailylog.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return dailylog.Record{}, fmt.Errorf("decode daily log: %w", err)
	}
	rec.Date = caldate.Of(day.UTC())
	return rec, nil
}

var _ dailylog.Repository = (*PostgresRepository)(nil)
