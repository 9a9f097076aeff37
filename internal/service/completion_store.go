package service

import (
	"context"
	"fmt"
	"time"

	"github.com/startrail/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompletionStore is the persistence contract behind the merge-and-rank engine.
// Implementations wrap every backend failure in ErrStorageUnavailable.
type CompletionStore interface {
	ListByCategory(ctx context.Context, sessionID, category string) ([]db.Achievement, error)
	ListBySession(ctx context.Context, sessionID string) ([]db.Achievement, error)
	Latest(ctx context.Context, sessionID string, limit int) ([]db.Achievement, error)
	CountByCategory(ctx context.Context, sessionID string) (map[string]int, error)
	CountSession(ctx context.Context, sessionID string) (int, error)
	CountSessions(ctx context.Context) (int, error)
	CountSessionsAbove(ctx context.Context, total int) (int, error)
	Exists(ctx context.Context, sessionID string) (bool, error)

	Insert(ctx context.Context, sessionID, category, name string) error
	Delete(ctx context.Context, sessionID, category string, names ...string) error
	ReplaceVariant(ctx context.Context, sessionID, category, slot string, variants []string, chosen string) error
	Reassign(ctx context.Context, from, to string) (int64, error)
}

// GormCompletionStore stores completions in the achievement table.
type GormCompletionStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormCompletionStore 构造基于 gorm 的完成记录存储
func NewGormCompletionStore(gdb *gorm.DB) *GormCompletionStore {
	return &GormCompletionStore{db: gdb, now: time.Now}
}

// WithClock overrides the insert timestamp source.
func (s *GormCompletionStore) WithClock(now func() time.Time) *GormCompletionStore {
	if now == nil {
		return s
	}
	s.now = now
	return s
}

var slotColumns = []clause.Column{{Name: "session_id"}, {Name: "category"}, {Name: "slot"}}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// ListByCategory returns the session's rows in one category, newest first.
func (s *GormCompletionStore) ListByCategory(ctx context.Context, sessionID, category string) ([]db.Achievement, error) {
	var rows []db.Achievement
	if err := s.db.WithContext(ctx).
		Where("session_id = ? AND category = ?", sessionID, category).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, storageError("list category completions", err)
	}
	return rows, nil
}

// ListBySession returns every row of the session.
func (s *GormCompletionStore) ListBySession(ctx context.Context, sessionID string) ([]db.Achievement, error) {
	var rows []db.Achievement
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, storageError("list session completions", err)
	}
	return rows, nil
}

// Latest returns up to limit rows of the session, newest first.
func (s *GormCompletionStore) Latest(ctx context.Context, sessionID string, limit int) ([]db.Achievement, error) {
	var rows []db.Achievement
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, storageError("list latest completions", err)
	}
	return rows, nil
}

// CountByCategory returns the number of rows per category for the session.
func (s *GormCompletionStore) CountByCategory(ctx context.Context, sessionID string) (map[string]int, error) {
	var rows []struct {
		Category string
		Count    int
	}
	if err := s.db.WithContext(ctx).
		Model(&db.Achievement{}).
		Select("category, COUNT(*) AS count").
		Where("session_id = ?", sessionID).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, storageError("count completions by category", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

// CountSession returns the total rows of one session.
func (s *GormCompletionStore) CountSession(ctx context.Context, sessionID string) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&db.Achievement{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, storageError("count session completions", err)
	}
	return int(count), nil
}

// CountSessions returns the number of distinct sessions with at least one row.
func (s *GormCompletionStore) CountSessions(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&db.Achievement{}).
		Distinct("session_id").
		Count(&count).Error; err != nil {
		return 0, storageError("count sessions", err)
	}
	return int(count), nil
}

// CountSessionsAbove returns the number of sessions with strictly more than total rows.
func (s *GormCompletionStore) CountSessionsAbove(ctx context.Context, total int) (int, error) {
	grouped := s.db.Model(&db.Achievement{}).
		Select("session_id").
		Group("session_id").
		Having("COUNT(*) > ?", total)

	var count int64
	if err := s.db.WithContext(ctx).
		Table("(?) AS ahead", grouped).
		Count(&count).Error; err != nil {
		return 0, storageError("count sessions ahead", err)
	}
	return int(count), nil
}

// Exists reports whether the session has any row.
func (s *GormCompletionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	var rows []db.Achievement
	if err := s.db.WithContext(ctx).
		Select("id").
		Where("session_id = ?", sessionID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return false, storageError("check session", err)
	}
	return len(rows) > 0, nil
}

// Insert 幂等写入：已存在时不报错也不重复
func (s *GormCompletionStore) Insert(ctx context.Context, sessionID, category, name string) error {
	row := db.Achievement{
		SessionID: sessionID,
		Category:  category,
		Name:      name,
		Slot:      name,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   slotColumns,
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return storageError("insert completion", err)
	}
	return nil
}

// Delete removes the named rows; deleting absent rows is a no-op.
func (s *GormCompletionStore) Delete(ctx context.Context, sessionID, category string, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).
		Where("session_id = ? AND category = ? AND name IN ?", sessionID, category, names).
		Delete(&db.Achievement{}).Error; err != nil {
		return storageError("delete completion", err)
	}
	return nil
}

// ReplaceVariant keeps exactly one row in the achievement's slot, holding chosen.
// The slot row is upserted in one statement, so concurrent selections serialise on the slot index
// and a previously chosen variant keeps its completion time.
func (s *GormCompletionStore) ReplaceVariant(ctx context.Context, sessionID, category, slot string, variants []string, chosen string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 旧数据中以分支名为 slot 的行
		if err := tx.Where("session_id = ? AND category = ? AND name IN ? AND slot <> ?", sessionID, category, variants, slot).
			Delete(&db.Achievement{}).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   slotColumns,
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&db.Achievement{
			SessionID: sessionID,
			Category:  category,
			Name:      chosen,
			Slot:      slot,
			CreatedAt: s.now(),
		}).Error
	})
	if err != nil {
		return storageError("replace variant", err)
	}
	return nil
}

// Reassign moves every row from one session id to another.
func (s *GormCompletionStore) Reassign(ctx context.Context, from, to string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&db.Achievement{}).
		Where("session_id = ?", from).
		Update("session_id", to)
	if result.Error != nil {
		return 0, storageError("reassign session", result.Error)
	}
	return result.RowsAffected, nil
}
