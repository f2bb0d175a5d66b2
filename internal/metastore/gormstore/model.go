package gormstore

import (
	"time"

	"github.com/scotow/dropit/internal/metastore"
)

// fileModel mirrors the files table created by migrations. GORM column
// tags match 000001_create_files.up.sql exactly so AutoMigrate (SQLite)
// and the golang-migrate schema (Postgres) describe the same shape.
type fileModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	AdminToken         string    `gorm:"column:admin_token;not null"`
	Origin             string    `gorm:"column:origin;not null;index:idx_files_origin"`
	ExpiresAt          time.Time `gorm:"column:expires_at;not null;index:idx_files_expires_at"`
	Name               string    `gorm:"column:name;not null;default:''"`
	Size               int64     `gorm:"column:size;not null"`
	AliasShort         string    `gorm:"column:alias_short;not null;uniqueIndex"`
	AliasLong          string    `gorm:"column:alias_long;not null;uniqueIndex"`
	DownloadsRemaining *int64    `gorm:"column:downloads_remaining"`
	CreatedAt          time.Time `gorm:"column:created_at;not null"`
}

func (fileModel) TableName() string {
	return "files"
}

func toModel(f *metastore.File) *fileModel {
	return &fileModel{
		ID:                 f.ID,
		AdminToken:         f.AdminToken,
		Origin:             f.Origin,
		ExpiresAt:          f.ExpiresAt,
		Name:               f.Name,
		Size:               f.Size,
		AliasShort:         f.AliasShort,
		AliasLong:          f.AliasLong,
		DownloadsRemaining: f.DownloadsRemaining,
		CreatedAt:          f.CreatedAt,
	}
}

func fromModel(m *fileModel) *metastore.File {
	return &metastore.File{
		ID:                 m.ID,
		AdminToken:         m.AdminToken,
		Origin:             m.Origin,
		ExpiresAt:          m.ExpiresAt,
		Name:               m.Name,
		Size:               m.Size,
		AliasShort:         m.AliasShort,
		AliasLong:          m.AliasLong,
		DownloadsRemaining: m.DownloadsRemaining,
		CreatedAt:          m.CreatedAt,
	}
}
