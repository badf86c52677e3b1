package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flixcloud/internal/config"
	"flixcloud/internal/core/domain"
	"flixcloud/internal/logging"
)

var (
	configPath string
	v          = config.NewViper()
	cfg        *config.Config
	logger     = zap.NewNop().Sugar()
)

var rootCmd = &cobra.Command{
	Use:   "flixcloud",
	Short: "Submit transcoding jobs and handle completion notifications",
	Long: `flixcloud submits transcoding job requests to FlixCloud and parses the
notifications the service sends back when a job finishes.

Settings come from flags, FLIXCLOUD_* environment variables (a .env file in
the working directory is loaded first) or a TOML file given with --config.

Examples:
  flixcloud submit --api-key KEY --recipe 99 --input http://example.com/in.mpg --output ftp://example.com/out.flv
  flixcloud notification parse payload.xml
  flixcloud notification listen --listen :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFile(v, configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
		if err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(notificationCmd)
}

func main() {
	// Setup context with cancellation
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		reportError(rootCmd, err)
		os.Exit(1)
	}
}

// reportError prints err unless its messages were already written by the command.
func reportError(cmd *cobra.Command, err error) {
	var f *domain.Failure
	if errors.As(err, &f) {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
}
