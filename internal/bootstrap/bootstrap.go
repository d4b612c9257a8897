package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"gorm.io/gorm"

	"tryon-client/internal/domain/eventbus"
	"tryon-client/internal/domain/tryon"
	recordstore "tryon-client/internal/domain/tryon/store"
	"tryon-client/internal/domain/verification"
	platformconfig "tryon-client/internal/platform/config"
	platformerrors "tryon-client/internal/platform/errors"
	platformlogging "tryon-client/internal/platform/logging"
	platformobservability "tryon-client/internal/platform/observability"
	platformstorage "tryon-client/internal/platform/storage"
	"tryon-client/internal/transport/http/tryonapi"
)

// Options 控制一次启动
type Options struct {
	ConfigPath string
	DotEnv     bool
	// LookupEnv 为空时使用进程环境变量
	LookupEnv func(string) (string, bool)
	// Override 在配置加载之后、校验之前调整配置，用于命令行参数
	Override func(*platformconfig.Config)
	// Token 非空时使用一次性静态令牌，否则等待验证组件事件
	Token string
	// Bus 验证事件总线，为空时使用进程级总线
	Bus evbus.Bus
}

// App 启动完成后的依赖集合
type App struct {
	Config     *platformconfig.Config
	ConfigPath string
	Logger     *platformlogging.Logger
	Bus        evbus.Bus
	Tokens     verification.Supplier
	Widget     *verification.Widget
	Client     *tryonapi.Client
	Records    recordstore.Store
	TryOn      *tryon.Service

	db                    *gorm.DB
	observabilityShutdown platformobservability.ShutdownFunc
}

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	opts Options
	app  *App
}

// New 按初始化图构建 App。任何一步失败都会释放已创建的资源。
func New(ctx context.Context, opts Options) (*App, error) {
	state := &appState{opts: opts, app: &App{}}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		_ = state.app.Close()
		return nil, err
	}
	logBootstrapGraph(steps, state.app.Logger)
	return state.app, nil
}

// Database 返回 sqlite 记录仓库使用的连接，其他驱动为 nil
func (a *App) Database() *gorm.DB {
	return a.db
}

// Close 按初始化的逆序释放资源
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Widget != nil {
		errs = append(errs, a.Widget.Close())
	}
	if a.Records != nil {
		errs = append(errs, a.Records.Close(context.Background()))
	}
	if a.db != nil {
		errs = append(errs, platformstorage.Close(a.db))
	}
	if a.observabilityShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.observabilityShutdown(ctx))
		cancel()
	}
	if a.Logger != nil {
		errs = append(errs, a.Logger.Close())
	}
	return errors.Join(errs...)
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.DebugTag("引导", "初始化依赖关系概览")
	for _, step := range steps {
		if len(step.DependsOn) == 0 {
			logger.DebugTag("引导", "%s (%s)", step.ID, step.Title)
			continue
		}
		logger.DebugTag("引导", "%s (%s) <- %s", step.ID, step.Title, strings.Join(step.DependsOn, ", "))
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil || state.app == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph 返回按依赖排好序的初始化步骤
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-records",
			Title:     "Initialise record store",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initRecordStoreStep,
		},
		{
			ID:        "verification:init-supplier",
			Title:     "Initialise verification token supplier",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initVerificationStep,
		},
		{
			ID:        "tryon:init-client",
			Title:     "Initialise remote try-on client",
			DependsOn: []string{"observability:setup-hooks"},
			Kind:      platformerrors.KindConfig,
			Execute:   initClientStep,
		},
		{
			ID:        "tryon:init-service",
			Title:     "Initialise try-on service",
			DependsOn: []string{"tryon:init-client", "storage:init-records", "verification:init-supplier"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initServiceStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := platformconfig.NewLoader().WithDotEnv(state.opts.DotEnv)
	if state.opts.ConfigPath != "" {
		loader = loader.WithPath(state.opts.ConfigPath)
	}
	if state.opts.LookupEnv != nil {
		loader = loader.WithEnv(state.opts.LookupEnv)
	}
	if state.opts.Override != nil {
		loader = loader.WithOverride(state.opts.Override)
	}

	res, err := loader.Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load config", err)
	}
	state.app.Config = res.Config
	state.app.ConfigPath = res.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	cfg := state.app.Config
	if cfg == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init-provider", "config not loaded")
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}
	state.app.Logger = logger
	logger.DebugTag("引导", "日志模块就绪 [%s] %s", cfg.Log.Level, state.app.ConfigPath)
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	cfg := state.app.Config
	shutdown, err := platformobservability.Setup(ctx, platformobservability.Config{
		Enabled: strings.EqualFold(cfg.Log.Level, "debug"),
	}, state.app.Logger.Slog())
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.app.observabilityShutdown = shutdown
	return nil
}

func initRecordStoreStep(_ context.Context, state *appState) error {
	cfg := state.app.Config.Store
	storeCfg := recordstore.Config{
		Driver: cfg.Driver,
		TTL:    cfg.TTL,
	}
	var deps recordstore.Dependencies

	switch cfg.Driver {
	case recordstore.DriverSQLite:
		db, err := platformstorage.Open(cfg.SQLite.DSN)
		if err != nil {
			return err
		}
		state.app.db = db
		deps.SQLiteDB = db
	case recordstore.DriverRedis:
		storeCfg.Redis = &recordstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}
	}

	records, err := recordstore.New(storeCfg, deps)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-records", "failed to create record store", err)
	}
	state.app.Records = records
	state.app.Logger.DebugTag("存储", "记录仓库就绪: %s", storeCfg.Driver)
	return nil
}

func initVerificationStep(_ context.Context, state *appState) error {
	if token := strings.TrimSpace(state.opts.Token); token != "" {
		state.app.Tokens = verification.NewStatic(token)
		return nil
	}

	bus := state.opts.Bus
	if bus == nil {
		bus = eventbus.Get()
	}
	widget, err := verification.NewWidget(bus)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "verification:init-supplier", "failed to subscribe verification events", err)
	}
	state.app.Bus = bus
	state.app.Widget = widget
	state.app.Tokens = widget
	return nil
}

func initClientStep(_ context.Context, state *appState) error {
	cfg := state.app.Config.API
	client, err := tryonapi.New(tryonapi.Options{
		BaseURL:      cfg.BaseURL,
		OperatorCode: cfg.OperatorCode,
		UserAgent:    cfg.UserAgent,
		HTTP:         tryonapi.NewHTTPClient(cfg.Timeout),
		Logger:       state.app.Logger,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "tryon:init-client", "invalid api configuration", err)
	}
	state.app.Client = client
	return nil
}

func initServiceStep(_ context.Context, state *appState) error {
	app := state.app
	svc, err := tryon.NewService(tryon.Options{
		Backend: app.Client,
		Tokens:  app.Tokens,
		Records: app.Records,
		Logger:  app.Logger,

		TokenWait: app.Config.Verification.WaitTimeout,
	})
	if err != nil {
		return err
	}
	app.TryOn = svc
	return nil
}
