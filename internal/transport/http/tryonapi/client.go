package tryonapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tryon-client/internal/platform/logging"
)

// 与远程服务约定的固定字段
const (
	HeaderTurnstileToken = "X-Turnstile-Token"
	HeaderOperatorCode   = "test-code"

	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRateLimitTotal     = "X-RateLimit-Total"

	PathTryOn     = "/api/v1/tryon"
	PathRateLimit = "/api/v1/ratelimit"
	PathAudit     = "/api/v1/tryon/audit"

	FieldBase      = "body_image"
	FieldPrimary   = "garment_image1"
	FieldSecondary = "garment_image2"

	FilenameBase      = "model.jpg"
	FilenamePrimary   = "garment1.jpg"
	FilenameSecondary = "garment2.jpg"

	maxErrorBody = 1 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	OperatorCode string
	UserAgent    string
	HTTP         *http.Client // optional; defaults to NewHTTPClient(120s)
	Logger       *logging.Logger
}

// Client talks to one try-on service deployment. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	base         string
	operatorCode string
	userAgent    string
	http         *http.Client
	logger       *logging.Logger
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("tryonapi: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("tryonapi: invalid base url: %w", err)
	}
	hc := opts.HTTP
	if hc == nil {
		hc = NewHTTPClient(120 * time.Second)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		base:         base,
		operatorCode: opts.OperatorCode,
		userAgent:    opts.UserAgent,
		http:         hc,
		logger:       logger,
	}, nil
}

// NewHTTPClient returns an http.Client whose header and handshake timeouts
// are derived from the overall timeout. A zero timeout means no limit.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		transport.ResponseHeaderTimeout = timeout * 2 / 3
		transport.TLSHandshakeTimeout = timeout / 3
	}
	transport.MaxIdleConnsPerHost = 16
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func (c *Client) url(path string) string {
	return c.base + path
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}
