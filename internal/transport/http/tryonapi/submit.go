package tryonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"tryon-client/internal/domain/image"
	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/platform/errors"
	"tryon-client/internal/platform/observability"
)

const opSubmit = "tryon.submit"

type slot struct {
	field    string
	filename string
	asset    image.Asset
}

// Submit sends one try-on request. All images are decoded and validated
// before the request is sent; a decode failure never reaches the network.
func (c *Client) Submit(ctx context.Context, req tryon.Request) (result *tryon.Result, err error) {
	if req.Base == "" || req.Primary == "" {
		return nil, errors.New(errors.KindDomain, opSubmit, "base image and primary garment are required")
	}
	if strings.TrimSpace(string(req.Token)) == "" {
		return nil, errors.New(errors.KindDomain, opSubmit, "verification token is required")
	}

	slots := []slot{
		{FieldBase, FilenameBase, req.Base},
		{FieldPrimary, FilenamePrimary, req.Primary},
	}
	if req.HasSecondary() {
		slots = append(slots, slot{FieldSecondary, FilenameSecondary, *req.Secondary})
	}

	body, contentType, err := c.buildMultipart(slots)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	ctx, end := observability.StartSpan(ctx, "tryonapi", "submit")
	defer func() { end(err) }()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(PathTryOn), body)
	if err != nil {
		return nil, errors.Wrap(errors.KindTransport, opSubmit, "build request", err)
	}
	c.setCommonHeaders(httpReq)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set(HeaderTurnstileToken, string(req.Token))
	if c.operatorCode != "" {
		httpReq.Header.Set(HeaderOperatorCode, c.operatorCode)
	}

	c.logger.InfoTag("提交", "sending %d image parts (request %s)", len(slots), requestID)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnTag("提交", "request %s failed before response: %v", requestID, err)
		return nil, errors.Wrap(errors.KindNetwork, opSubmit, "request failed", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp) {
		rejected := rejection(errors.KindRemote, opSubmit, resp)
		c.logger.WarnTag("提交", "request %s rejected: %s", requestID, rejected.Message)
		return nil, rejected
	}

	var out tryon.Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &errors.Error{
			Kind:    errors.KindTransport,
			Op:      opSubmit,
			Message: "invalid response body",
			Status:  resp.StatusCode,
			Cause:   err,
		}
	}
	out.RateLimit = ParseRateLimitHeaders(resp.Header)

	c.logger.InfoTag("提交", "request %s produced record %s", requestID, out.RecordID)
	return &out, nil
}

// buildMultipart decodes every slot and writes one file part per slot.
func (c *Client) buildMultipart(slots []slot) (*bytes.Buffer, string, error) {
	parts := make([]image.Part, 0, len(slots))
	for _, s := range slots {
		part, err := image.ToPart(s.asset, s.filename)
		if err != nil {
			return nil, "", &errors.Error{
				Kind:    errors.KindAsset,
				Op:      opSubmit,
				Message: s.field + ": " + errors.Detail(err),
				Cause:   err,
			}
		}
		if err := image.Validate(part); err != nil {
			return nil, "", err
		}
		meta := image.Inspect(part)
		c.logger.DebugTag("提交", "%s: %s %d bytes %dx%d", s.field, part.MIMEType, meta.Size, meta.Width, meta.Height)
		parts = append(parts, part)
	}

	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for i, part := range parts {
		if err := writeFilePart(w, slots[i].field, part); err != nil {
			return nil, "", errors.Wrap(errors.KindTransport, opSubmit, "write multipart body", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(errors.KindTransport, opSubmit, "close multipart body", err)
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeFilePart is CreateFormFile with the part's own Content-Type.
func writeFilePart(w *multipart.Writer, field string, part image.Part) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(part.Filename)))
	h.Set("Content-Type", part.MIMEType)
	pw, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = pw.Write(part.Bytes)
	return err
}
