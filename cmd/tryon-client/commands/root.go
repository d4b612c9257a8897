package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tryon-client/internal/bootstrap"
	platformconfig "tryon-client/internal/platform/config"
	"tryon-client/internal/platform/errors"
)

var (
	configPath   string
	token        string
	baseURL      string
	operatorCode string
	logLevel     string
	storeDriver  string

	appCtx *bootstrap.App
)

// Execute runs the root command.
func Execute() error {
	return execute(newRootCmd())
}

// execute also releases the app when a subcommand fails, since cobra skips
// post-run hooks on error.
func execute(root *cobra.Command) error {
	err := root.Execute()
	if closeErr := closeApp(); err == nil {
		err = closeErr
	}
	return err
}

func closeApp() error {
	if appCtx == nil {
		return nil
	}
	err := appCtx.Close()
	appCtx = nil
	return err
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tryon-client",
		Short:        "Virtual try-on submission and audit client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New(cmd.Context(), bootstrapOptions(cmd))
			if err != nil {
				return err
			}
			appCtx = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeApp()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default .config.yaml or config.yaml)")
	root.PersistentFlags().StringVarP(&token, "token", "t", "", "single-use verification token (or TRYON_TOKEN)")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "remote service base URL")
	root.PersistentFlags().StringVar(&operatorCode, "operator-code", "", "operator code sent as test-code on submissions")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	root.PersistentFlags().StringVar(&storeDriver, "store", "", "record store driver: memory, sqlite or redis")

	root.AddCommand(submitCmd(), statusCmd(), auditCmd(), recordsCmd(), serveCmd())
	return root
}

// annotationWidgetTokens 标记从验证组件逐次获取令牌的命令，这类命令忽略 --token 和 TRYON_TOKEN
const annotationWidgetTokens = "widget-tokens"

func bootstrapOptions(cmd *cobra.Command) bootstrap.Options {
	opts := bootstrap.Options{
		ConfigPath: configPath,
		DotEnv:     true,
		Override:   applyFlags,
	}
	if cmd.Annotations[annotationWidgetTokens] == "true" {
		token = ""
		return opts
	}
	if token == "" {
		token = os.Getenv("TRYON_TOKEN")
	}
	opts.Token = token
	return opts
}

// applyFlags 命令行参数优先于配置文件和环境变量
func applyFlags(cfg *platformconfig.Config) {
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if operatorCode != "" {
		cfg.API.OperatorCode = operatorCode
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if storeDriver != "" {
		cfg.Store.Driver = storeDriver
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError 只输出远程或本地给出的那一条消息
func userError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s", errors.Detail(err))
}
