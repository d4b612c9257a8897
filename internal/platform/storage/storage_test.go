package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func memoryDSN() string {
	return fmt.Sprintf("file:storage-%d?mode=memory&cache=shared", time.Now().UnixNano())
}

func TestOpen_RunsMigrations(t *testing.T) {
	db, err := Open(memoryDSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	rec := TryOnRecord{
		RecordID:    "rec-1",
		ResultURL:   "https://cdn/after.jpg",
		GarmentURLs: datatypes.JSON(`["https://cdn/g1.jpg"]`),
	}
	require.NoError(t, db.Create(&rec).Error)

	var got TryOnRecord
	require.NoError(t, db.Where("record_id = ?", "rec-1").First(&got).Error)
	assert.Equal(t, "https://cdn/after.jpg", got.ResultURL)
	assert.JSONEq(t, `["https://cdn/g1.jpg"]`, string(got.GarmentURLs))

	m := NewMigrationManager(db)
	history, err := m.GetMigrationHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "001_tryon_records", history[0].Version)
}

func TestOpen_FileDSNCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "records.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, Close(db))

	// 再次打开不会重复执行迁移
	db, err = Open(path)
	require.NoError(t, err)
	defer Close(db)
	history, err := NewMigrationManager(db).GetMigrationHistory()
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestMigrationRollback(t *testing.T) {
	db, err := Open(memoryDSN())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	m := Migrations(db)

	require.NoError(t, m.RollbackMigration("001_tryon_records"))
	assert.False(t, db.Migrator().HasTable("tryon_records"))

	assert.Error(t, m.RollbackMigration("001_tryon_records"))
	assert.Error(t, NewMigrationManager(db).RollbackMigration("999_unknown"))

	require.NoError(t, m.RunMigrations())
	assert.True(t, db.Migrator().HasTable("tryon_records"))
}
