package migrations

import (
	"gorm.io/gorm"
)

// Migration001TryOnRecords 创建换装记录表
type Migration001TryOnRecords struct{}

func (m *Migration001TryOnRecords) Version() string {
	return "001_tryon_records"
}

func (m *Migration001TryOnRecords) Description() string {
	return "Create tryon_records table"
}

func (m *Migration001TryOnRecords) Up(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tryon_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id VARCHAR(255) NOT NULL UNIQUE,
			result_url TEXT NOT NULL,
			body_url TEXT,
			garment_urls JSON,
			message TEXT,
			has_secondary NUMERIC,
			rate_limit JSON,
			audit JSON,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error; err != nil {
		return err
	}
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_tryon_records_created_at ON tryon_records(created_at)`).Error
}

func (m *Migration001TryOnRecords) Down(db *gorm.DB) error {
	return db.Exec(`DROP TABLE IF EXISTS tryon_records`).Error
}
