package tryonapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tryon-client/internal/platform/errors"
)

// statusFallback synthesises "HTTP <status>: <statusText>".
func statusFallback(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, text)
}

func readErrorBody(resp *http.Response) []byte {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return body
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// scalarDetail returns detail when it is a non-empty JSON string.
func scalarDetail(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// listDetail joins a [{msg}] validation list with ", ". Entries without a
// message are skipped.
func listDetail(raw json.RawMessage) string {
	var items []struct {
		Msg string `json:"msg"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Msg != "" {
			msgs = append(msgs, item.Msg)
		}
	}
	return strings.Join(msgs, ", ")
}

// rejection parses an ApiError body: a scalar detail, else the HTTP fallback.
func rejection(kind errors.Kind, op string, resp *http.Response) *errors.Error {
	var body errorBody
	detail := ""
	if json.Unmarshal(readErrorBody(resp), &body) == nil {
		detail = scalarDetail(body.Detail)
	}
	if detail == "" {
		detail = statusFallback(resp)
	}
	return errors.Remote(kind, op, resp.StatusCode, detail)
}

// auditRejection additionally accepts a list of field-level messages.
func auditRejection(op string, resp *http.Response) *errors.Error {
	var body errorBody
	detail := ""
	if json.Unmarshal(readErrorBody(resp), &body) == nil {
		detail = listDetail(body.Detail)
		if detail == "" {
			detail = scalarDetail(body.Detail)
		}
	}
	if detail == "" {
		detail = statusFallback(resp)
	}
	return errors.Remote(errors.KindAudit, op, resp.StatusCode, detail)
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode/100 == 2
}
