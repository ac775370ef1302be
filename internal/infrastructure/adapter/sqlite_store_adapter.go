package adapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
)

type hotelInfoRecord struct {
	HotelID   string         `gorm:"primaryKey;type:varchar(64);column:hotel_id"`
	Language  string         `gorm:"primaryKey;type:varchar(8)"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null;index"`
}

func (hotelInfoRecord) TableName() string {
	return "hotel_infos"
}

// SQLiteStoreAdapter persists Hotel Info payloads in a single SQLite file so
// the cache survives process restarts.
type SQLiteStoreAdapter struct {
	db     *gorm.DB
	path   string
	logger *slog.Logger
}

func NewSQLiteStoreAdapter(path string, logger *slog.Logger) (*SQLiteStoreAdapter, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	// WAL keeps readers unblocked while the importer commits batches.
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := db.AutoMigrate(&hotelInfoRecord{}); err != nil {
		return nil, fmt.Errorf("migrate cache store: %w", err)
	}

	return &SQLiteStoreAdapter{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteStoreAdapter) Get(ctx context.Context, hotelID, language string) (*hotel.Info, error) {
	var record hotelInfoRecord
	err := s.db.WithContext(ctx).
		Where("hotel_id = ? AND language = ?", hotelID, language).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, hotel.ErrNotFound
		}
		return nil, fmt.Errorf("read cache entry %s/%s: %w", hotelID, language, err)
	}

	return &hotel.Info{
		HotelID:   record.HotelID,
		Language:  record.Language,
		Payload:   json.RawMessage(record.Payload),
		UpdatedAt: record.UpdatedAt,
	}, nil
}

func (s *SQLiteStoreAdapter) Put(ctx context.Context, hotelID, language string, payload json.RawMessage) error {
	record := hotelInfoRecord{
		HotelID:   hotelID,
		Language:  language,
		Payload:   datatypes.JSON(payload),
		UpdatedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hotel_id"}, {Name: "language"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("write cache entry %s/%s: %w", hotelID, language, err)
	}
	return nil
}

func (s *SQLiteStoreAdapter) PutBatch(ctx context.Context, infos []hotel.Info) error {
	if len(infos) == 0 {
		return nil
	}

	now := time.Now().UTC()
	records := make([]hotelInfoRecord, len(infos))
	for i, info := range infos {
		records[i] = hotelInfoRecord{
			HotelID:   info.HotelID,
			Language:  info.Language,
			Payload:   datatypes.JSON(info.Payload),
			UpdatedAt: now,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hotel_id"}, {Name: "language"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("write cache batch of %d: %w", len(infos), err)
	}
	return nil
}

func (s *SQLiteStoreAdapter) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&hotelInfoRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

func (s *SQLiteStoreAdapter) LastUpdated(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	err := s.db.WithContext(ctx).
		Model(&hotelInfoRecord{}).
		Select("MAX(updated_at)").
		Scan(&last).Error
	if err != nil {
		return nil, fmt.Errorf("read last update time: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// Path returns the location of the backing file for the stats snapshot.
func (s *SQLiteStoreAdapter) Path() string {
	return s.path
}

func (s *SQLiteStoreAdapter) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
