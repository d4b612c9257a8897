package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/platform/storage"
)

type sqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSQLite builds a SQLite-backed record store. The tryon_records table is
// created by storage.Open.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{
		db:  db,
		ttl: cfg.TTL,
	}, nil
}

func (s *sqliteStore) Save(ctx context.Context, rec tryon.Record) error {
	if err := requireID(rec); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", rec.ID).Delete(&storage.TryOnRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
}

func (s *sqliteStore) Get(ctx context.Context, id string) (tryon.Record, error) {
	var row storage.TryOnRecord
	err := s.db.WithContext(ctx).Where("record_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tryon.Record{}, ErrNotFound
	}
	if err != nil {
		return tryon.Record{}, err
	}
	if s.expired(row.CreatedAt, time.Now()) {
		return tryon.Record{}, ErrNotFound
	}
	return fromRow(row), nil
}

func (s *sqliteStore) List(ctx context.Context) ([]tryon.Record, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, record_id ASC")
	if s.ttl > 0 {
		q = q.Where("created_at >= ?", time.Now().Add(-s.ttl))
	}
	var rows []storage.TryOnRecord
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tryon.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *sqliteStore) Remove(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("record_id = ?", id).Delete(&storage.TryOnRecord{}).Error
}

// Close leaves the shared database handle open; its owner closes it.
func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func (s *sqliteStore) expired(created, now time.Time) bool {
	return s.ttl > 0 && now.Sub(created) > s.ttl
}

func toRow(rec tryon.Record) (*storage.TryOnRecord, error) {
	row := &storage.TryOnRecord{
		RecordID:     rec.ID,
		ResultURL:    rec.ResultURL,
		BodyURL:      rec.BodyURL,
		Message:      rec.Message,
		HasSecondary: rec.HasSecondary,
		CreatedAt:    rec.CreatedAt,
	}
	var err error
	if row.GarmentURLs, err = jsonColumn(rec.GarmentURLs, len(rec.GarmentURLs) > 0); err != nil {
		return nil, err
	}
	if row.RateLimit, err = jsonColumn(rec.RateLimit, rec.RateLimit != nil); err != nil {
		return nil, err
	}
	if row.Audit, err = jsonColumn(rec.Audit, rec.Audit != nil); err != nil {
		return nil, err
	}
	return row, nil
}

func jsonColumn(v any, present bool) (datatypes.JSON, error) {
	if !present {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func fromRow(row storage.TryOnRecord) tryon.Record {
	rec := tryon.Record{
		ID:           row.RecordID,
		ResultURL:    row.ResultURL,
		BodyURL:      row.BodyURL,
		Message:      row.Message,
		HasSecondary: row.HasSecondary,
		CreatedAt:    row.CreatedAt,
	}
	if len(row.GarmentURLs) > 0 {
		_ = json.Unmarshal(row.GarmentURLs, &rec.GarmentURLs)
	}
	if len(row.RateLimit) > 0 {
		var rl tryon.RateLimitStatus
		if json.Unmarshal(row.RateLimit, &rl) == nil {
			rec.RateLimit = &rl
		}
	}
	if len(row.Audit) > 0 {
		var a tryon.AuditResult
		if json.Unmarshal(row.Audit, &a) == nil {
			rec.Audit = &a
		}
	}
	return rec
}
