package gateway

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/gin-gonic/gin"

	"tryon-client/internal/domain/eventbus"
	"tryon-client/internal/domain/image"
	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/domain/tryon/store"
	"tryon-client/internal/domain/verification"
	"tryon-client/internal/platform/errors"
	"tryon-client/internal/platform/logging"
	httptransport "tryon-client/internal/transport/http"
	"tryon-client/internal/transport/http/tryonapi"
)

// TryOnService 网关依赖的领域服务
type TryOnService interface {
	Submit(ctx context.Context, req tryon.Request) (*tryon.Result, error)
	CheckStatus(ctx context.Context) (*tryon.RateLimitStatus, error)
	Audit(ctx context.Context, payload tryon.AuditPayload, auth tryon.AuditAuth) (*tryon.AuditResult, error)
	AuditRecord(ctx context.Context, id string, auth tryon.AuditAuth) (*tryon.AuditResult, error)
	Records(ctx context.Context) ([]tryon.Record, error)
	Record(ctx context.Context, id string) (tryon.Record, error)
}

// Options configures the gateway Service.
type Options struct {
	TryOn  TryOnService
	Bus    evbus.Bus // 验证回调发布到此总线，为空时不注册回调接口
	Logger *logging.Logger
	// SiteKey 前端渲染验证组件所需的站点公钥
	SiteKey string
}

// Service 本地网关的HTTP传输层实现
type Service struct {
	tryon   TryOnService
	bus     evbus.Bus
	logger  *logging.Logger
	siteKey string
}

// NewService 创建网关服务
func NewService(opts Options) (*Service, error) {
	if opts.TryOn == nil {
		return nil, errors.New(errors.KindConfig, "gateway.new", "tryon service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		tryon:   opts.TryOn,
		bus:     opts.Bus,
		logger:  logger,
		siteKey: opts.SiteKey,
	}, nil
}

// Register 注册网关路由
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/tryon", s.handleSubmit)
	router.POST("/tryon/audit", s.handleAudit)
	router.GET("/ratelimit", s.handleRateLimit)

	router.GET("/records", s.handleRecords)
	router.GET("/records/:id", s.handleRecord)
	router.POST("/records/:id/audit", s.handleAuditRecord)

	router.GET("/verification/config", s.handleVerificationConfig)
	if s.bus != nil {
		router.POST("/verification/callback", s.handleVerificationCallback)
	}

	s.logger.InfoTag("HTTP", "网关路由注册完成")
	return nil
}

// submitRequest 图片以 data URI 传入，令牌走 X-Turnstile-Token 请求头
type submitRequest struct {
	BodyImage     string `json:"body_image" binding:"required"`
	GarmentImage1 string `json:"garment_image1" binding:"required"`
	GarmentImage2 string `json:"garment_image2"`
}

func (s *Service) handleSubmit(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "body_image and garment_image1 are required", nil)
		return
	}

	req := tryon.Request{
		Base:    image.Asset(body.BodyImage),
		Primary: image.Asset(body.GarmentImage1),
		Token:   verification.Token(strings.TrimSpace(c.GetHeader(tryonapi.HeaderTurnstileToken))),
	}
	if body.GarmentImage2 != "" {
		secondary := image.Asset(body.GarmentImage2)
		req.Secondary = &secondary
	}

	res, err := s.tryon.Submit(c.Request.Context(), req)
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if rl := res.RateLimit; rl != nil {
		c.Header(tryonapi.HeaderRateLimitLimit, strconv.Itoa(rl.Limit))
		c.Header(tryonapi.HeaderRateLimitRemaining, strconv.Itoa(rl.Remaining))
		c.Header(tryonapi.HeaderRateLimitReset, rl.ResetAt)
		c.Header(tryonapi.HeaderRateLimitTotal, strconv.Itoa(rl.TotalToday))
	}
	httptransport.RespondSuccess(c, http.StatusOK, res, res.Message)
}

func (s *Service) handleAudit(c *gin.Context) {
	var payload tryon.AuditPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid audit payload", nil)
		return
	}
	res, err := s.tryon.Audit(c.Request.Context(), payload, auditAuth(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, res, "")
}

func (s *Service) handleAuditRecord(c *gin.Context) {
	res, err := s.tryon.AuditRecord(c.Request.Context(), c.Param("id"), auditAuth(c))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, res, "")
}

func (s *Service) handleRateLimit(c *gin.Context) {
	status, err := s.tryon.CheckStatus(c.Request.Context())
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, status, status.Message)
}

func (s *Service) handleRecords(c *gin.Context) {
	recs, err := s.tryon.Records(c.Request.Context())
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if recs == nil {
		recs = []tryon.Record{}
	}
	httptransport.RespondSuccess(c, http.StatusOK, recs, "")
}

func (s *Service) handleRecord(c *gin.Context) {
	rec, err := s.tryon.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, rec, "")
}

// verificationConfig 前端渲染验证组件所需的配置
type verificationConfig struct {
	SiteKey string `json:"site_key"`
	// Callback 为 false 时前端需要自行在请求头携带令牌
	Callback bool `json:"callback"`
}

func (s *Service) handleVerificationConfig(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, verificationConfig{
		SiteKey:  s.siteKey,
		Callback: s.bus != nil,
	}, "")
}

// callbackRequest 前端验证组件的回调
type callbackRequest struct {
	Event  string `json:"event" binding:"required"` // token | error | expired
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

func (s *Service) handleVerificationCallback(c *gin.Context) {
	var body callbackRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "event is required", nil)
		return
	}

	data := eventbus.VerificationEventData{
		Token:  strings.TrimSpace(body.Token),
		Reason: body.Reason,
		At:     time.Now(),
	}
	var topic string
	switch body.Event {
	case "token":
		if data.Token == "" {
			httptransport.RespondError(c, http.StatusBadRequest, "token is required", nil)
			return
		}
		topic = eventbus.EventVerificationToken
	case "error":
		topic = eventbus.EventVerificationError
	case "expired":
		topic = eventbus.EventVerificationExpired
	default:
		httptransport.RespondError(c, http.StatusBadRequest, "unknown event: "+body.Event, nil)
		return
	}

	s.bus.Publish(topic, data)
	s.logger.DebugTag("验证", "回调事件 %s", body.Event)
	httptransport.RespondSuccess(c, http.StatusAccepted, nil, "")
}

func (s *Service) respondFailure(c *gin.Context, err error) {
	if stderrors.Is(err, store.ErrNotFound) {
		_ = c.Error(err)
		httptransport.RespondError(c, http.StatusNotFound, "record not found", nil)
		return
	}
	if stderrors.Is(err, context.DeadlineExceeded) && !errors.IsKind(err, errors.KindNetwork) {
		_ = c.Error(err)
		httptransport.RespondError(c, http.StatusRequestTimeout, "timed out waiting for verification", nil)
		return
	}
	httptransport.RespondFailure(c, err)
}

func auditAuth(c *gin.Context) tryon.AuditAuth {
	return tryon.AuditAuth{
		Token:      verification.Token(strings.TrimSpace(c.GetHeader(tryonapi.HeaderTurnstileToken))),
		BypassCode: strings.TrimSpace(c.GetHeader(tryonapi.HeaderOperatorCode)),
	}
}
