package tryonapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/platform/errors"
	"tryon-client/internal/platform/observability"
)

const opStatus = "tryon.ratelimit"

// ParseRateLimitHeaders reads X-RateLimit-* telemetry. It returns nil unless
// limit, remaining and reset are all present and the numeric ones parse, so
// a partial header set never yields a misleading status. Total is optional.
func ParseRateLimitHeaders(h http.Header) *tryon.RateLimitStatus {
	limit, ok := headerInt(h, HeaderRateLimitLimit)
	if !ok {
		return nil
	}
	remaining, ok := headerInt(h, HeaderRateLimitRemaining)
	if !ok {
		return nil
	}
	reset := strings.TrimSpace(h.Get(HeaderRateLimitReset))
	if reset == "" {
		return nil
	}
	total, _ := headerInt(h, HeaderRateLimitTotal)

	return &tryon.RateLimitStatus{
		Allowed:    remaining > 0,
		Remaining:  remaining,
		ResetAt:    reset,
		TotalToday: total,
		Limit:      limit,
	}
}

func headerInt(h http.Header, key string) (int, bool) {
	raw := strings.TrimSpace(h.Get(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CheckStatus queries the quota status endpoint. It does not gate
// submissions; callers decide what a negative status means.
func (c *Client) CheckStatus(ctx context.Context) (status *tryon.RateLimitStatus, err error) {
	ctx, end := observability.StartSpan(ctx, "tryonapi", "ratelimit")
	defer func() { end(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(PathRateLimit), nil)
	if err != nil {
		return nil, errors.Wrap(errors.KindTransport, opStatus, "build request", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindNetwork, opStatus, "request failed", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		rejected := rejection(errors.KindStatus, opStatus, resp)
		c.logger.WarnTag("限流", "status query rejected: %s", rejected.Message)
		return nil, rejected
	}

	var out tryon.RateLimitStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &errors.Error{Kind: errors.KindTransport, Op: opStatus, Message: "invalid response body", Status: resp.StatusCode, Cause: err}
	}
	c.logger.DebugTag("限流", "remaining %d/%d, reset %s", out.Remaining, out.Limit, out.ResetAt)
	return &out, nil
}
