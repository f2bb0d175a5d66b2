package gormstore

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/scotow/dropit/internal/metastore"
)

var _ metastore.Store = (*GORMStore)(nil)

func (s *GORMStore) Insert(ctx context.Context, f *metastore.File) error {
	m := toModel(f)
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return metastore.ErrAliasTaken
		}
		return err
	}
	return nil
}

func (s *GORMStore) FindByAlias(ctx context.Context, alias string) (*metastore.File, error) {
	var m fileModel
	err := s.db.WithContext(ctx).
		Where("alias_short = ? OR alias_long = ?", alias, alias).
		First(&m).Error
	if err != nil {
		return nil, convertNotFoundError(err, metastore.ErrNotFound)
	}
	return fromModel(&m), nil
}

func (s *GORMStore) AliasExists(ctx context.Context, alias string, kind metastore.AliasKind) (bool, error) {
	column := "alias_short"
	if kind == metastore.AliasLong {
		column = "alias_long"
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&fileModel{}).
		Where(column+" = ?", alias).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GORMStore) Authorize(ctx context.Context, alias, adminToken string) (string, int64, error) {
	var m fileModel
	err := s.db.WithContext(ctx).
		Where("alias_short = ? OR alias_long = ?", alias, alias).
		First(&m).Error
	if err != nil {
		return "", 0, convertNotFoundError(err, metastore.ErrNotFound)
	}
	if !strings.EqualFold(m.AdminToken, adminToken) {
		return "", 0, metastore.ErrTokenMismatch
	}
	return m.ID, m.Size, nil
}

func (s *GORMStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&fileModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return metastore.ErrNotFound
	}
	return nil
}

func (s *GORMStore) UpdateAliases(ctx context.Context, id, short, long string) error {
	updates := map[string]any{}
	if short != "" {
		updates["alias_short"] = short
	}
	if long != "" {
		updates["alias_long"] = long
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&fileModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return metastore.ErrAliasTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return metastore.ErrNotFound
	}
	return nil
}

func (s *GORMStore) UpdateExpiration(ctx context.Context, id string, expiresAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&fileModel{}).Where("id = ?", id).Update("expires_at", expiresAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return metastore.ErrNotFound
	}
	return nil
}

func (s *GORMStore) UpdateDownloads(ctx context.Context, id string, remaining *int64) error {
	res := s.db.WithContext(ctx).Model(&fileModel{}).Where("id = ?", id).Update("downloads_remaining", remaining)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return metastore.ErrNotFound
	}
	return nil
}

func (s *GORMStore) FetchDownloads(ctx context.Context, id string) (*int64, error) {
	var m fileModel
	if err := s.db.WithContext(ctx).Select("downloads_remaining").Where("id = ?", id).First(&m).Error; err != nil {
		return nil, convertNotFoundError(err, metastore.ErrNotFound)
	}
	return m.DownloadsRemaining, nil
}

func (s *GORMStore) SumOrigin(ctx context.Context, origin string) (metastore.OriginUsage, error) {
	var row struct {
		TotalSize int64
		Count     int64
	}
	err := s.db.WithContext(ctx).Model(&fileModel{}).
		Select("COALESCE(SUM(size), 0) AS total_size, COUNT(*) AS count").
		Where("origin = ?", origin).
		Scan(&row).Error
	if err != nil {
		return metastore.OriginUsage{}, err
	}
	return metastore.OriginUsage{TotalSize: row.TotalSize, Count: row.Count}, nil
}

func (s *GORMStore) SumGlobal(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&fileModel{}).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	return total, err
}

func (s *GORMStore) SelectExpired(ctx context.Context, now time.Time) ([]metastore.ExpiredFile, error) {
	var rows []struct {
		ID   string
		Size int64
	}
	err := s.db.WithContext(ctx).Model(&fileModel{}).
		Select("id, size").
		Where("expires_at <= ?", now).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	expired := make([]metastore.ExpiredFile, len(rows))
	for i, r := range rows {
		expired[i] = metastore.ExpiredFile{ID: r.ID, Size: r.Size}
	}
	return expired, nil
}

func (s *GORMStore) WithinAdmissionTransaction(ctx context.Context, fn func(tx metastore.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx, config: s.config})
	})
}

func (s *GORMStore) WithinDownloadTransaction(ctx context.Context, fn func(tx metastore.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx, config: s.config})
	})
}
