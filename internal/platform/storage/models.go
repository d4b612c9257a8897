package storage

import (
	"time"

	"gorm.io/datatypes"
)

// TryOnRecord 换装记录表
type TryOnRecord struct {
	ID           uint           `gorm:"primaryKey"`
	RecordID     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"record_id"`
	ResultURL    string         `gorm:"not null"                               json:"result_url"`
	BodyURL      string         `                                              json:"body_url"`
	GarmentURLs  datatypes.JSON `                                              json:"garment_urls,omitempty"` // []string
	Message      string         `gorm:"type:text"                              json:"message"`
	HasSecondary bool           `                                              json:"has_secondary"`
	RateLimit    datatypes.JSON `                                              json:"rate_limit,omitempty"`
	Audit        datatypes.JSON `                                              json:"audit,omitempty"`
	CreatedAt    time.Time      `gorm:"index"                                  json:"created_at"`
	UpdatedAt    time.Time      `                                              json:"updated_at"`
}

// TableName 指定表名
func (TryOnRecord) TableName() string {
	return "tryon_records"
}
