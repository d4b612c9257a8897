package tryon_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tryon-client/internal/domain/image"
	"tryon-client/internal/domain/tryon"
	"tryon-client/internal/domain/verification"
	"tryon-client/internal/platform/errors"
	platformtesting "tryon-client/internal/platform/testing"
)

// MockBackend 模拟远程服务
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Submit(ctx context.Context, req tryon.Request) (*tryon.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*tryon.Result)
	return res, args.Error(1)
}

func (m *MockBackend) CheckStatus(ctx context.Context) (*tryon.RateLimitStatus, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*tryon.RateLimitStatus)
	return res, args.Error(1)
}

func (m *MockBackend) Audit(ctx context.Context, payload tryon.AuditPayload, auth tryon.AuditAuth) (*tryon.AuditResult, error) {
	args := m.Called(ctx, payload, auth)
	res, _ := args.Get(0).(*tryon.AuditResult)
	return res, args.Error(1)
}

// memRecords 简单的内存记录仓库
type memRecords struct {
	items   map[string]tryon.Record
	saveErr error
}

func newMemRecords() *memRecords {
	return &memRecords{items: map[string]tryon.Record{}}
}

func (m *memRecords) Save(_ context.Context, rec tryon.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items[rec.ID] = rec
	return nil
}

func (m *memRecords) Get(_ context.Context, id string) (tryon.Record, error) {
	rec, ok := m.items[id]
	if !ok {
		return tryon.Record{}, stderrors.New("not found")
	}
	return rec, nil
}

func (m *memRecords) List(context.Context) ([]tryon.Record, error) {
	out := make([]tryon.Record, 0, len(m.items))
	for _, rec := range m.items {
		out = append(out, rec)
	}
	return out, nil
}

func newService(t *testing.T, opts tryon.Options) *tryon.Service {
	t.Helper()
	svc, err := tryon.NewService(opts)
	require.NoError(t, err)
	return svc
}

func images() tryon.Request {
	return tryon.Request{
		Base:    image.Encode([]byte{1, 2, 3}, "image/jpeg"),
		Primary: image.Encode([]byte{4, 5, 6}, "image/png"),
	}
}

func TestService_SubmitUsesSupplierToken(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	records := newMemRecords()
	svc := newService(t, tryon.Options{Backend: backend, Tokens: verification.NewStatic("widget-token"), Records: records})

	res := &tryon.Result{
		Success:     true,
		RecordID:    "rec-9",
		ResultURL:   "https://cdn/after.jpg",
		BodyURL:     "https://cdn/before.jpg",
		GarmentURLs: []string{"https://cdn/g1.jpg"},
		RateLimit:   &tryon.RateLimitStatus{Limit: 10, Remaining: 9, ResetAt: "2025-01-01T00:00:00Z", Allowed: true},
	}
	backend.On("Submit", ctx, mock.MatchedBy(func(r tryon.Request) bool {
		return r.Token == "widget-token"
	})).Return(res, nil).Once()

	got, err := svc.Submit(ctx, images())
	require.NoError(t, err)
	assert.Same(t, res, got)
	backend.AssertExpectations(t)

	rec, ok := records.items["rec-9"]
	require.True(t, ok)
	assert.Equal(t, "https://cdn/after.jpg", rec.ResultURL)
	assert.False(t, rec.HasSecondary)
	assert.False(t, rec.CreatedAt.IsZero())

	// 令牌是一次性的，第二次提交拿不到令牌
	_, err = svc.Submit(ctx, images())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDomain))
	assert.ErrorIs(t, err, verification.ErrNoToken)
	backend.AssertNumberOfCalls(t, "Submit", 1)
}

func TestService_SubmitWithoutTokenSource(t *testing.T) {
	backend := new(MockBackend)
	svc := newService(t, tryon.Options{Backend: backend})

	_, err := svc.Submit(context.Background(), images())
	require.Error(t, err)
	assert.Equal(t, "verification token is required", errors.Detail(err))
	backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestService_SubmitRequiresImages(t *testing.T) {
	backend := new(MockBackend)
	svc := newService(t, tryon.Options{Backend: backend, Tokens: verification.NewStatic("t")})

	req := images()
	req.Primary = ""
	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDomain))
	backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestService_SubmitPropagatesRemoteDetail(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	records := newMemRecords()
	svc := newService(t, tryon.Options{Backend: backend, Records: records})

	req := images()
	req.Token = "explicit"
	backend.On("Submit", ctx, req).
		Return(nil, errors.Remote(errors.KindRemote, "tryon.submit", 429, "quota exceeded")).Once()

	_, err := svc.Submit(ctx, req)
	require.Error(t, err)
	assert.Equal(t, "quota exceeded", errors.Detail(err))
	assert.Empty(t, records.items)
}

func TestService_RecordFailureDoesNotFailSubmit(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	records := newMemRecords()
	records.saveErr = stderrors.New("disk full")
	logger, logs := platformtesting.SetupTestLogger(t)
	svc := newService(t, tryon.Options{Backend: backend, Records: records, Logger: logger})

	req := images()
	req.Token = "t"
	backend.On("Submit", ctx, req).Return(&tryon.Result{Success: true, RecordID: "r"}, nil)

	res, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "r", res.RecordID)
	assert.Contains(t, logs.String(), "[存储] 保存记录 r 失败: disk full")
}

func TestService_AuditFetchesTokenOnlyWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	svc := newService(t, tryon.Options{Backend: backend, Tokens: verification.NewStatic("fresh")})
	payload := tryon.AuditPayload{ModelBefore: "a", ModelAfter: "b", Garment1: "c"}
	audit := &tryon.AuditResult{VisualQualityScore: 90}

	backend.On("Audit", ctx, payload, tryon.AuditAuth{BypassCode: "widetech"}).Return(audit, nil).Once()
	got, err := svc.Audit(ctx, payload, tryon.AuditAuth{BypassCode: "widetech"})
	require.NoError(t, err)
	assert.Equal(t, audit, got)

	backend.On("Audit", ctx, payload, tryon.AuditAuth{Token: "fresh"}).Return(audit, nil).Once()
	_, err = svc.Audit(ctx, payload, tryon.AuditAuth{})
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestService_AuditRecordWritesBack(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	records := newMemRecords()
	records.items["rec-1"] = tryon.Record{
		ID:          "rec-1",
		ResultURL:   "https://cdn/after.jpg",
		BodyURL:     "https://cdn/before.jpg",
		GarmentURLs: []string{"https://cdn/g1.jpg", "https://cdn/g2.jpg"},
		CreatedAt:   time.Now(),
	}
	svc := newService(t, tryon.Options{Backend: backend, Records: records})

	want := tryon.AuditPayload{
		ModelBefore: "https://cdn/before.jpg",
		ModelAfter:  "https://cdn/after.jpg",
		Garment1:    "https://cdn/g1.jpg",
		Garment2:    "https://cdn/g2.jpg",
	}
	audit := &tryon.AuditResult{ClothingChanged: true, Summary: "ok"}
	auth := tryon.AuditAuth{BypassCode: "widetech"}
	backend.On("Audit", ctx, want, auth).Return(audit, nil).Once()

	got, err := svc.AuditRecord(ctx, "rec-1", auth)
	require.NoError(t, err)
	assert.Equal(t, audit, got)
	assert.Equal(t, audit, records.items["rec-1"].Audit)
}

func TestService_AuditRecordErrors(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)

	_, err := newService(t, tryon.Options{Backend: backend}).AuditRecord(ctx, "x", tryon.AuditAuth{})
	assert.True(t, errors.IsKind(err, errors.KindDomain))

	records := newMemRecords()
	svc := newService(t, tryon.Options{Backend: backend, Records: records})
	_, err = svc.AuditRecord(ctx, "missing", tryon.AuditAuth{})
	assert.True(t, errors.IsKind(err, errors.KindStorage))

	records.items["bare"] = tryon.Record{ID: "bare", ResultURL: "https://cdn/after.jpg"}
	_, err = svc.AuditRecord(ctx, "bare", tryon.AuditAuth{})
	assert.True(t, errors.IsKind(err, errors.KindDomain))
	backend.AssertNotCalled(t, "Audit", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_CheckStatus(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	svc := newService(t, tryon.Options{Backend: backend})

	status := &tryon.RateLimitStatus{Allowed: false, Remaining: 0, Limit: 5}
	backend.On("CheckStatus", ctx).Return(status, nil).Once()
	got, err := svc.CheckStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, status, got)

	backend.On("CheckStatus", ctx).Return(nil, errors.Remote(errors.KindStatus, "tryon.ratelimit", 500, "HTTP 500: Internal Server Error")).Once()
	_, err = svc.CheckStatus(ctx)
	assert.Equal(t, "HTTP 500: Internal Server Error", errors.Detail(err))
}

func TestRecord_AuditPayload(t *testing.T) {
	_, ok := tryon.Record{BodyURL: "a", ResultURL: "b"}.AuditPayload()
	assert.False(t, ok)

	p, ok := tryon.Record{BodyURL: "a", ResultURL: "b", GarmentURLs: []string{"c"}}.AuditPayload()
	require.True(t, ok)
	assert.Equal(t, tryon.AuditPayload{ModelBefore: "a", ModelAfter: "b", Garment1: "c"}, p)
}

func TestNewService_RequiresBackend(t *testing.T) {
	_, err := tryon.NewService(tryon.Options{})
	assert.True(t, errors.IsKind(err, errors.KindBootstrap))
}

// deadlineSupplier 记录取令牌时 ctx 是否带有截止时间
type deadlineSupplier struct {
	sawDeadline bool
}

func (d *deadlineSupplier) Token(ctx context.Context) (verification.Token, error) {
	_, d.sawDeadline = ctx.Deadline()
	return "waited", nil
}

func TestService_TokenWaitOnlyBoundsTokenFetch(t *testing.T) {
	backend := new(MockBackend)
	tokens := &deadlineSupplier{}
	svc := newService(t, tryon.Options{Backend: backend, Tokens: tokens, TokenWait: time.Minute})

	noDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return !ok
	})
	backend.On("Submit", noDeadline, mock.AnythingOfType("tryon.Request")).Return(&tryon.Result{Success: true}, nil)

	_, err := svc.Submit(context.Background(), images())
	require.NoError(t, err)
	assert.True(t, tokens.sawDeadline)
	backend.AssertExpectations(t)
}

func TestService_TokenWaitExpires(t *testing.T) {
	backend := new(MockBackend)
	svc := newService(t, tryon.Options{
		Backend:   backend,
		Tokens:    blockingSupplier{},
		TokenWait: 20 * time.Millisecond,
	})

	_, err := svc.Submit(context.Background(), images())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

type blockingSupplier struct{}

func (blockingSupplier) Token(ctx context.Context) (verification.Token, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
