package tryon

import (
	"time"

	"tryon-client/internal/domain/image"
	"tryon-client/internal/domain/verification"
)

// Request is one try-on submission: a base (model) image, a required primary
// garment overlay, an optional secondary overlay and a single-use token.
type Request struct {
	Base      image.Asset
	Primary   image.Asset
	Secondary *image.Asset
	Token     verification.Token
}

// Submittable reports whether base, primary overlay and token are all present.
func (r Request) Submittable() bool {
	return r.Base != "" && r.Primary != "" && r.Token != ""
}

// HasSecondary reports whether a non-empty secondary overlay was supplied.
func (r Request) HasSecondary() bool {
	return r.Secondary != nil && *r.Secondary != ""
}

// Result is the decoded success body of the submission endpoint.
type Result struct {
	Success     bool             `json:"success"`
	RecordID    string           `json:"record_id"`
	ResultURL   string           `json:"result_url"`
	Message     string           `json:"message"`
	BodyURL     string           `json:"body_url,omitempty"`
	GarmentURLs []string         `json:"garment_urls,omitempty"`
	Audit       *AuditResult     `json:"audit,omitempty"`
	RetryCount  *int             `json:"retry_count,omitempty"`
	RateLimit   *RateLimitStatus `json:"rate_limit,omitempty"`
}

// RateLimitStatus is quota telemetry, either from the status endpoint or
// from X-RateLimit-* response headers.
type RateLimitStatus struct {
	Allowed    bool   `json:"allowed"`
	Remaining  int    `json:"remaining"`
	ResetAt    string `json:"reset_at"`
	TotalToday int    `json:"total_today"`
	Limit      int    `json:"limit"`
	Message    string `json:"message"`
}

// ResetTime parses ResetAt as RFC 3339.
func (s RateLimitStatus) ResetTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s.ResetAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AuditPayload references the images to compare, by URL or data URI.
type AuditPayload struct {
	ModelBefore string `json:"model_before"`
	ModelAfter  string `json:"model_after"`
	Garment1    string `json:"garment1"`
	Garment2    string `json:"garment2,omitempty"`
}

// AuditAuth gates an audit request. Either field may be empty; both are sent
// when both are set and the remote service decides precedence.
type AuditAuth struct {
	Token      verification.Token
	BypassCode string
}

// AuditResult is the remote quality assessment.
type AuditResult struct {
	ClothingChanged      bool     `json:"clothing_changed"`
	MatchesInputGarments bool     `json:"matches_input_garments"`
	VisualQualityScore   float64  `json:"visual_quality_score"`
	Issues               []string `json:"issues"`
	Summary              string   `json:"summary"`
}
