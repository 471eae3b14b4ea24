package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ Repo = (*SQLiteRepo)(nil)

type credentialRow struct {
	Key       string `gorm:"column:cred_key;primaryKey;size:191"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (credentialRow) TableName() string {
	return "credentials"
}

// SQLiteRepo keeps credentials in a single-file SQLite database through GORM.
type SQLiteRepo struct {
	db *gorm.DB
}

// NewSQLiteRepo opens (or creates) the database at path and migrates the credentials table.
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&credentialRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate credentials table: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Get(ctx context.Context, key string) (string, error) {
	var row credentialRow
	err := r.db.WithContext(ctx).Where("cred_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%s: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("sqlite get: %w", err)
	}
	return row.Value, nil
}

func (r *SQLiteRepo) Upsert(ctx context.Context, key, value string) error {
	row := credentialRow{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cred_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("cred_key = ?", key).Delete(&credentialRow{}).Error; err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
