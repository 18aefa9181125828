package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
)

var (
	envFile  string
	logLevel string
	devLogs  bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kanouwood",
	Short: "Socrate Wood storefront and admin panel",
	Long: `kanouwood serves the Socrate Wood storefront, its admin panel and the
admin JSON API. The site copy comes from a plain-text document made of
"# Section" headings and "key: value" lines.

Run "kanouwood serve" to start the HTTP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		built, err := observability.NewLogger(observability.LoggerConfig{
			Level:       logLevel,
			Development: devLogs,
		})
		if err != nil {
			return fmt.Errorf("failed to initialise logger: %w", err)
		}
		logger = built.Named("kanouwood")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev-logs", false, "human readable console logs")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(textContentCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
