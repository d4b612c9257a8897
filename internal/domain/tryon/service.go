package tryon

import (
	"context"
	"strings"
	"time"

	"tryon-client/internal/domain/verification"
	"tryon-client/internal/platform/errors"
	"tryon-client/internal/platform/logging"
)

// Backend 远程换装服务，由 tryonapi.Client 实现
type Backend interface {
	Submit(ctx context.Context, req Request) (*Result, error)
	CheckStatus(ctx context.Context) (*RateLimitStatus, error)
	Audit(ctx context.Context, payload AuditPayload, auth AuditAuth) (*AuditResult, error)
}

// Service 换装领域服务：取令牌、提交、记录
type Service struct {
	backend Backend
	tokens  verification.Supplier
	records RecordStore
	logger  *logging.Logger
	now     func() time.Time

	tokenWait time.Duration
}

// Options 构造 Service 所需的依赖。Tokens 与 Records 可以为空。
type Options struct {
	Backend Backend
	// Tokens 请求未携带令牌时从这里获取
	Tokens verification.Supplier
	// Records 成功结果写入记录仓库
	Records RecordStore
	Logger  *logging.Logger
	// TokenWait 等待 Tokens 的最长时间，只作用于取令牌，不限制远程调用
	TokenWait time.Duration
}

// NewService 创建换装服务
func NewService(opts Options) (*Service, error) {
	if opts.Backend == nil {
		return nil, errors.New(errors.KindBootstrap, "tryon.new_service", "backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		backend: opts.Backend,
		tokens:  opts.Tokens,
		records: opts.Records,
		logger:  logger,
		now:     time.Now,

		tokenWait: opts.TokenWait,
	}, nil
}

// Submit 提交一次换装。令牌为空时向 supplier 申请一次性令牌；
// 提交本身只尝试一次，失败原样返回。
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	if req.Base == "" || req.Primary == "" {
		return nil, errors.New(errors.KindDomain, "tryon.submit", "base image and primary garment are required")
	}
	if strings.TrimSpace(string(req.Token)) == "" {
		token, err := s.token(ctx, "tryon.submit")
		if err != nil {
			return nil, err
		}
		req.Token = token
	}
	if !req.Submittable() {
		return nil, errors.New(errors.KindDomain, "tryon.submit", "request is not submittable")
	}

	res, err := s.backend.Submit(ctx, req)
	if err != nil {
		s.logger.WarnTag("提交", "换装失败: %s", errors.Detail(err))
		return nil, err
	}
	if res.RateLimit != nil {
		s.logger.InfoTag("限流", "剩余 %d/%d 次，重置于 %s", res.RateLimit.Remaining, res.RateLimit.Limit, res.RateLimit.ResetAt)
	}
	s.record(ctx, res, req.HasSecondary())
	return res, nil
}

// record 保存失败只记日志，不影响已成功的提交
func (s *Service) record(ctx context.Context, res *Result, hasSecondary bool) {
	if s.records == nil || !res.Success || res.RecordID == "" {
		return
	}
	if err := s.records.Save(ctx, NewRecord(res, hasSecondary, s.now())); err != nil {
		s.logger.WarnTag("存储", "保存记录 %s 失败: %v", res.RecordID, err)
	}
}

// CheckStatus 查询额度，结果不缓存
func (s *Service) CheckStatus(ctx context.Context) (*RateLimitStatus, error) {
	status, err := s.backend.CheckStatus(ctx)
	if err != nil {
		s.logger.WarnTag("限流", "查询额度失败: %s", errors.Detail(err))
		return nil, err
	}
	return status, nil
}

// Audit 审核结果图。令牌与绕过码都为空且配置了 supplier 时申请令牌。
func (s *Service) Audit(ctx context.Context, payload AuditPayload, auth AuditAuth) (*AuditResult, error) {
	if auth.Token == "" && auth.BypassCode == "" && s.tokens != nil {
		token, err := s.token(ctx, "tryon.audit")
		if err != nil {
			return nil, err
		}
		auth.Token = token
	}
	res, err := s.backend.Audit(ctx, payload, auth)
	if err != nil {
		s.logger.WarnTag("审核", "审核失败: %s", errors.Detail(err))
		return nil, err
	}
	return res, nil
}

// AuditRecord 审核一条已保存的记录，并把审核结果写回记录
func (s *Service) AuditRecord(ctx context.Context, id string, auth AuditAuth) (*AuditResult, error) {
	if s.records == nil {
		return nil, errors.New(errors.KindDomain, "tryon.audit_record", "record store is not configured")
	}
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "tryon.audit_record", "load record", err)
	}
	payload, ok := rec.AuditPayload()
	if !ok {
		return nil, errors.New(errors.KindDomain, "tryon.audit_record", "record has no remote image urls to audit")
	}
	res, err := s.Audit(ctx, payload, auth)
	if err != nil {
		return nil, err
	}
	rec.Audit = res
	if err := s.records.Save(ctx, rec); err != nil {
		s.logger.WarnTag("存储", "更新记录 %s 失败: %v", id, err)
	}
	return res, nil
}

// Records 列出已保存的记录
func (s *Service) Records(ctx context.Context) ([]Record, error) {
	if s.records == nil {
		return nil, nil
	}
	recs, err := s.records.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "tryon.records", "list records", err)
	}
	return recs, nil
}

// Record 读取一条已保存的记录
func (s *Service) Record(ctx context.Context, id string) (Record, error) {
	if s.records == nil {
		return Record{}, errors.New(errors.KindDomain, "tryon.record", "record store is not configured")
	}
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return Record{}, errors.Wrap(errors.KindStorage, "tryon.record", "load record", err)
	}
	return rec, nil
}

func (s *Service) token(ctx context.Context, op string) (verification.Token, error) {
	if s.tokens == nil {
		return "", errors.New(errors.KindDomain, op, "verification token is required")
	}
	waitCtx := ctx
	if s.tokenWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.tokenWait)
		defer cancel()
	}
	token, err := s.tokens.Token(waitCtx)
	if err != nil {
		return "", errors.Wrap(errors.KindDomain, op, "obtain verification token", err)
	}
	return token, nil
}
