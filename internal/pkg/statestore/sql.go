package statestore

import (
	"context"
	"errors"
	"time"

	"github.com/mutualsplus/site/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQL stores state rows in the client_states table.
type SQL struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQL(db *gorm.DB) *SQL {
	return &SQL{db: db, now: time.Now}
}

func (s *SQL) Load(ctx context.Context, key string) ([]byte, error) {
	var row models.ClientState
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if row.ExpiresAt != nil && !s.now().Before(*row.ExpiresAt) {
		_ = s.Delete(ctx, key)
		return nil, ErrNotFound
	}
	return row.Value, nil
}

func (s *SQL) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	row := models.ClientState{Key: key, Value: value}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		row.ExpiresAt = &exp
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("`key` = ?", key).Delete(&models.ClientState{}).Error
}

// PurgeExpired removes rows past their expiry.
func (s *SQL) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).Delete(&models.ClientState{})
	return res.RowsAffected, res.Error
}
