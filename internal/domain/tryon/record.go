package tryon

import (
	"context"
	"time"
)

// Record 本地保存的一次成功换装结果
type Record struct {
	ID           string           `json:"id"`
	ResultURL    string           `json:"result_url"`
	BodyURL      string           `json:"body_url,omitempty"`
	GarmentURLs  []string         `json:"garment_urls,omitempty"`
	Message      string           `json:"message,omitempty"`
	HasSecondary bool             `json:"has_secondary"`
	RateLimit    *RateLimitStatus `json:"rate_limit,omitempty"`
	Audit        *AuditResult     `json:"audit,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewRecord 从提交结果构造记录，ID 取远程 record_id
func NewRecord(res *Result, hasSecondary bool, now time.Time) Record {
	return Record{
		ID:           res.RecordID,
		ResultURL:    res.ResultURL,
		BodyURL:      res.BodyURL,
		GarmentURLs:  append([]string(nil), res.GarmentURLs...),
		Message:      res.Message,
		HasSecondary: hasSecondary,
		RateLimit:    res.RateLimit,
		Audit:        res.Audit,
		CreatedAt:    now,
	}
}

// AuditPayload 根据记录中的远程 URL 组装审核请求。
// 缺少原图或结果图时返回 false。
func (r Record) AuditPayload() (AuditPayload, bool) {
	if r.BodyURL == "" || r.ResultURL == "" || len(r.GarmentURLs) == 0 {
		return AuditPayload{}, false
	}
	p := AuditPayload{
		ModelBefore: r.BodyURL,
		ModelAfter:  r.ResultURL,
		Garment1:    r.GarmentURLs[0],
	}
	if len(r.GarmentURLs) > 1 {
		p.Garment2 = r.GarmentURLs[1]
	}
	return p, true
}

// RecordStore 记录仓库，由 store 包的各驱动实现
type RecordStore interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Record, error)
}
