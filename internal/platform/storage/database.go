package storage

import (
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tryon-client/internal/platform/errors"
	"tryon-client/internal/platform/storage/migrations"
)

// Open 打开 SQLite 数据库并执行全部迁移。
// 文件型 DSN 会自动创建所在目录。
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New(errors.KindStorage, "storage.open", "sqlite dsn is required")
	}
	if isFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "storage.open", "create data directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "open database", err)
	}

	if err := Migrations(db).RunMigrations(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrations 返回注册了全部迁移的管理器
func Migrations(db *gorm.DB) *MigrationManager {
	m := NewMigrationManager(db)
	m.AddMigration(&migrations.Migration001TryOnRecords{})
	return m
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(errors.KindStorage, "storage.close", "get sql handle", err)
	}
	return sqlDB.Close()
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
