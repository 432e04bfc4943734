package dailylog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/clearday/pkg/caldate"
	apperrors "github.com/yanqian/clearday/pkg/errors"
	"github.com/yanqian/clearday/pkg/util"
)

// Service owns reads and atomic merges of daily records.
type Service interface {
	Apply(ctx context.Context, userID string, update Update) (Record, error)
	Get(ctx context.Context, userID string, date caldate.Date) (Record, error)
	Month(ctx context.Context, userID string, month caldate.YearMonth) (map[caldate.Date]Record, error)
	ExportMonth(ctx context.Context, userID string, month caldate.YearMonth) (StoredObject, error)
	OpenExport(ctx context.Context, userID, key string) (MonthExport, error)
}

// MonthExport is the document written by ExportMonth.
type MonthExport struct {
	UserID     string            `json:"userId"`
	Month      caldate.YearMonth `json:"month"`
	ExportedAt time.Time         `json:"exportedAt"`
	Records    []Record          `json:"records"`
}

type service struct {
	repo     Repository
	archive  Archive
	observer MergeObserver
	logger   *slog.Logger
	locks    *keyedMutex
	now      func() time.Time
	newID    func() string
}

// NewService wires the daily log domain. archive and observer may be nil.
func NewService(repo Repository, archive Archive, observer MergeObserver, logger *slog.Logger) Service {
	return &service{
		repo:     repo,
		archive:  archive,
		observer: observer,
		logger:   logger.With("component", "dailylog.service"),
		locks:    newKeyedMutex(),
		now:      util.NowUTC,
		newID:    uuid.NewString,
	}
}

func (s *service) Apply(ctx context.Context, userID string, update Update) (Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Record{}, apperrors.Wrap(apperrors.CodeInvalidInput, "user id is required", nil)
	}
	if err := update.Validate(); err != nil {
		return Record{}, err
	}

	unlock := s.locks.Lock(lockKey(userID, update.Date()))
	defer unlock()

	existing, found, err := s.repo.Load(ctx, userID, update.Date())
	if err != nil {
		return Record{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to load daily record", err)
	}
	var base *Record
	if found {
		base = &existing
	}
	merged := Merge(base, update)
	// the in-process lock orders writers of this replica; the store keeps
	// fields written by other replicas
	stored, err := s.repo.StoreField(ctx, userID, merged, update.Field())
	if err != nil {
		return Record{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to store daily record", err)
	}

	if s.observer != nil {
		s.observer.RecordMerged(ctx, string(update.Field()))
	}
	s.logger.Debug("daily record merged", "user", userID, "date", update.Date().String(), "field", update.Field(), "created", !found)
	return stored, nil
}

func (s *service) Get(ctx context.Context, userID string, date caldate.Date) (Record, error) {
	rec, found, err := s.repo.Load(ctx, userID, date)
	if err != nil {
		return Record{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to load daily record", err)
	}
	if !found {
		return Record{}, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("no record for %s", date), nil)
	}
	return rec, nil
}

func (s *service) Month(ctx context.Context, userID string, month caldate.YearMonth) (map[caldate.Date]Record, error) {
	records, err := s.repo.LoadMonth(ctx, userID, month)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to load month", err)
	}
	// repositories may return neighbouring days for range queries
	for date := range records {
		if !month.Contains(date) {
			delete(records, date)
		}
	}
	return records, nil
}

func (s *service) ExportMonth(ctx context.Context, userID string, month caldate.YearMonth) (StoredObject, error) {
	if s.archive == nil {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeStorageError, "export archive is not configured", nil)
	}
	records, err := s.Month(ctx, userID, month)
	if err != nil {
		return StoredObject{}, err
	}

	doc := MonthExport{
		UserID:     userID,
		Month:      month,
		ExportedAt: s.now(),
		Records:    SortedRecords(records),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to encode export", err)
	}

	key := fmt.Sprintf("exports/%s/%s/%s.json", userID, month, s.newID())
	obj, err := s.archive.Put(ctx, key, payload, "application/json")
	if err != nil {
		return StoredObject{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to archive export", err)
	}
	s.logger.Info("month exported", "user", userID, "month", month.String(), "records", len(doc.Records), "key", obj.Key)
	return obj, nil
}

func (s *service) OpenExport(ctx context.Context, userID, key string) (MonthExport, error) {
	if s.archive == nil {
		return MonthExport{}, apperrors.Wrap(apperrors.CodeStorageError, "export archive is not configured", nil)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" || !strings.HasPrefix(key, "exports/"+userID+"/") || strings.Contains(key, "..") {
		return MonthExport{}, apperrors.Wrap(apperrors.CodeNotFound, "export not found", nil)
	}
	rc, err := s.archive.Get(ctx, key)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return MonthExport{}, err
		}
		return MonthExport{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to read export", err)
	}
	defer rc.Close()

	var doc MonthExport
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return MonthExport{}, apperrors.Wrap(apperrors.CodeStorageError, "failed to decode export", err)
	}
	return doc, nil
}

// SortedRecords flattens a month map in date order.
func SortedRecords(records map[caldate.Date]Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func lockKey(userID string, date caldate.Date) string {
	return userID + "|" + date.String()
}
