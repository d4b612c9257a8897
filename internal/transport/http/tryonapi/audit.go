package tryonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/platform/errors"
	"tryon-client/internal/platform/observability"
)

const opAudit = "tryon.audit"

// Audit asks the service to compare the before/after images against the
// declared garments. Token and bypass code are each sent when non-empty.
// Field validation is left to the service, which reports it as a list.
func (c *Client) Audit(ctx context.Context, payload tryon.AuditPayload, auth tryon.AuditAuth) (result *tryon.AuditResult, err error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, errors.Wrap(errors.KindTransport, opAudit, "encode payload", err)
	}

	ctx, end := observability.StartSpan(ctx, "tryonapi", "audit")
	defer func() { end(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(PathAudit), buf)
	if err != nil {
		return nil, errors.Wrap(errors.KindTransport, opAudit, "build request", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	if auth.Token != "" {
		req.Header.Set(HeaderTurnstileToken, string(auth.Token))
	}
	if auth.BypassCode != "" {
		req.Header.Set(HeaderOperatorCode, auth.BypassCode)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindNetwork, opAudit, "request failed", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		rejected := auditRejection(opAudit, resp)
		c.logger.WarnTag("审核", "audit rejected: %s", rejected.Message)
		return nil, rejected
	}

	var out tryon.AuditResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &errors.Error{Kind: errors.KindTransport, Op: opAudit, Message: "invalid response body", Status: resp.StatusCode, Cause: err}
	}
	c.logger.InfoTag("审核", "score %.0f, %d issues", out.VisualQualityScore, len(out.Issues))
	return &out, nil
}
