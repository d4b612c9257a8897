package commands

import (
	"github.com/spf13/cobra"

	"tryon-client/internal/bootstrap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP gateway",
		Args:  cobra.NoArgs,
		// 网关长期运行，令牌由前端验证组件逐次提供
		Annotations: map[string]string{annotationWidgetTokens: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap.Serve(cmd.Context(), appCtx, nil)
		},
	}
}
