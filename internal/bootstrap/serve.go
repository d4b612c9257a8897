package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	platformerrors "tryon-client/internal/platform/errors"
	platformlogging "tryon-client/internal/platform/logging"
	httptransport "tryon-client/internal/transport/http"
	"tryon-client/internal/transport/http/gateway"
)

// Handler 构建本地网关的 gin 引擎
func (a *App) Handler(ctx context.Context) (http.Handler, error) {
	router, err := httptransport.Build(httptransport.Options{
		Logger:     a.Logger,
		Debug:      strings.EqualFold(a.Config.Log.Level, "debug"),
		StaticRoot: a.Config.Gateway.StaticDir,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	router.Engine.NoRoute(func(c *gin.Context) {
		httptransport.RespondError(c, http.StatusNotFound, "api not found", gin.H{})
	})

	svc, err := gateway.NewService(gateway.Options{
		TryOn:   a.TryOn,
		Bus:     a.Bus,
		Logger:  a.Logger,
		SiteKey: a.Config.Verification.SiteKey,
	})
	if err != nil {
		return nil, err
	}
	if err := svc.Register(ctx, router.API); err != nil {
		return nil, err
	}
	return router.Engine, nil
}

// Serve 运行本地网关直到 ctx 结束或收到 SIGINT/SIGTERM。
// ln 为空时监听配置的地址。
func Serve(ctx context.Context, app *App, ln net.Listener) error {
	logger := app.Logger

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(app, ln, group, groupCtx); err != nil {
		cancel()
		return err
	}

	// 服务异常退出时同样触发关停
	go func() {
		<-groupCtx.Done()
		cancel()
	}()

	return waitForShutdown(signalCtx, cancel, logger, group)
}

func startHTTPServer(app *App, ln net.Listener, g *errgroup.Group, groupCtx context.Context) error {
	handler, err := app.Handler(groupCtx)
	if err != nil {
		return err
	}
	logger := app.Logger

	if ln == nil {
		addr := net.JoinHostPort(app.Config.Gateway.IP, strconv.Itoa(app.Config.Gateway.Port))
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindTransport, "http:listen", "failed to listen on "+addr, err)
		}
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "Gin 服务已启动，访问地址 http://%s", ln.Addr())

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "HTTP 服务关闭失败: %v", err)
			} else {
				logger.InfoTag("HTTP", "HTTP 服务已优雅关闭")
			}
		}()

		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "HTTP 服务运行失败: %v", err)
			return err
		}
		return nil
	})
	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("引导", "收到关闭信号 %v，正在进行资源清理", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务关闭过程中出现错误: %v", err)
			return err
		}
		logger.InfoTag("引导", "所有服务已成功关闭")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("引导", "服务关闭超时，已强制退出")
		return errors.New("服务关闭超时")
	}
	return nil
}
