package dailylogrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/clearday/internal/domain/dailylog"
	"github.com/yanqian/clearday/pkg/caldate"
)

// ValkeyRepository keeps one hash per user-month. Every record field of a day
// is its own hash field named "<date>/<key>", so a write touches one field only.
type ValkeyRepository struct {
	client valkey.Client
	prefix string
}

// NewValkeyRepository constructs a repository backed by Valkey.
func NewValkeyRepository(client valkey.Client, prefix string) *ValkeyRepository {
	if prefix == "" {
		prefix = "clearday"
	}
	return &ValkeyRepository{client: client, prefix: prefix}
}

func (r *ValkeyRepository) Load(ctx context.Context, userID string, date caldate.Date) (dailylog.Record, bool, error) {
	cmd := r.client.B().Hmget().Key(r.monthKey(userID, date.YearMonth())).Field(dayFields(date)...).Build()
	values, err := r.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return dailylog.Record{}, false, err
	}
	return decodeDay(date, values)
}

// StoreField sets a single hash field, then reads the day back in the same
// pipeline.
func (r *ValkeyRepository) StoreField(ctx context.Context, userID string, rec dailylog.Record, field dailylog.Field) (dailylog.Record, error) {
	key := field.DocumentKey()
	if key == "" {
		return dailylog.Record{}, fmt.Errorf("unknown daily log field %q", field)
	}
	value, err := json.Marshal(rec.FieldValue(field))
	if err != nil {
		return dailylog.Record{}, fmt.Errorf("encode daily log field %s: %w", field, err)
	}

	hash := r.monthKey(userID, rec.Date.YearMonth())
	b := r.client.B()
	resps := r.client.DoMulti(ctx,
		b.Hset().Key(hash).FieldValue().FieldValue(dayField(rec.Date, key), string(value)).Build(),
		b.Hmget().Key(hash).Field(dayFields(rec.Date)...).Build(),
	)
	if err := resps[0].Error(); err != nil {
		return dailylog.Record{}, err
	}
	values, err := resps[1].ToArray()
	if err != nil {
		return dailylog.Record{}, err
	}
	stored, _, err := decodeDay(rec.Date, values)
	return stored, err
}

func (r *ValkeyRepository) LoadMonth(ctx context.Context, userID string, month caldate.YearMonth) (map[caldate.Date]dailylog.Record, error) {
	fields, err := r.client.Do(ctx, r.client.B().Hgetall().Key(r.monthKey(userID, month)).Build()).AsStrMap()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return map[caldate.Date]dailylog.Record{}, nil
		}
		return nil, err
	}
	docs := make(map[caldate.Date]map[string]json.RawMessage)
	for name, payload := range fields {
		date, key, err := splitDayField(name)
		if err != nil {
			return nil, err
		}
		if docs[date] == nil {
			docs[date] = make(map[string]json.RawMessage)
		}
		docs[date][key] = json.RawMessage(payload)
	}
	out := make(map[caldate.Date]dailylog.Record, len(docs))
	for date, doc := range docs {
		rec, err := decodeDocument(date, doc)
		if err != nil {
			return nil, err
		}
		out[date] = rec
	}
	return out, nil
}

func (r *ValkeyRepository) monthKey(userID string, month caldate.YearMonth) string {
	return fmt.Sprintf("%s:dailylog:%s:%s", r.prefix, userID, month)
}

func dayField(date caldate.Date, key string) string {
	return date.String() + "/" + key
}

func dayFields(date caldate.Date) []string {
	fields := dailylog.AllFields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = dayField(date, f.DocumentKey())
	}
	return out
}

func splitDayField(name string) (caldate.Date, string, error) {
	day, key, ok := strings.Cut(name, "/")
	if !ok || key == "" {
		return caldate.Date{}, "", fmt.Errorf("daily log field %q: missing record key", name)
	}
	date, err := caldate.Parse(day)
	if err != nil {
		return caldate.Date{}, "", fmt.Errorf("daily log field %q: %w", name, err)
	}
	return date, key, nil
}

// decodeDay turns an HMGET reply ordered like dayFields into a record; found
// is false when no field of the day is stored.
func decodeDay(date caldate.Date, values []valkey.ValkeyMessage) (dailylog.Record, bool, error) {
	fields := dailylog.AllFields()
	doc := make(map[string]json.RawMessage, len(fields))
	for i, v := range values {
		if i >= len(fields) {
			break
		}
		payload, err := v.ToString()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				continue
			}
			return dailylog.Record{}, false, err
		}
		doc[fields[i].DocumentKey()] = json.RawMessage(payload)
	}
	if len(doc) == 0 {
		return dailylog.Record{}, false, nil
	}
	rec, err := decodeDocument(date, doc)
	if err != nil {
		return dailylog.Record{}, false, err
	}
	return rec, true, nil
}

func decodeDocument(date caldate.Date, doc map[string]json.RawMessage) (dailylog.Record, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return dailylog.Record{}, fmt.Errorf("encode daily log: %w", err)
	}
	return decodeRecord(date, string(payload))
}

func decodeRecord(date caldate.Date, payload string) (dailylog.Record, error) {
	var rec dailylog.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return dailylog.Record{}, fmt.Errorf("decode daily log: %w", err)
	}
	rec.Date = date
	return rec, nil
}

var _ dailylog.Repository = (*ValkeyRepository)(nil)
