package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"flixcloud/internal/adapters/localstorage"
	"flixcloud/internal/adapters/webhook"
	"flixcloud/internal/core/domain"
	"flixcloud/internal/service"
)

var notificationCmd = &cobra.Command{
	Use:   "notification",
	Short: "Parse or receive job completion notifications",
}

var notificationParseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse a saved notification payload and print it as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}

		n, err := service.CatchAndParse(cmd.Context(), localstorage.NewFileBody(path))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(n, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode notification")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		if !n.State.Known() {
			logger.Warnw("unrecognized job state", "job_id", n.ID, "state", n.State)
		}
		return nil
	},
}

var notificationListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Serve the notification URL and log every job outcome",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := webhook.NewHandler(loggingCallbacks(), logger)
		if cfg.Archive != "" {
			handler.WithArchive(localstorage.NewLocalStorage(cfg.Archive))
		}

		mux := http.NewServeMux()
		mux.Handle("/", handler)
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Infow("listening for notifications", "addr", cfg.Listen, "archive_dir", cfg.Archive)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return errors.Wrap(err, "notification server failed")
		case <-cmd.Context().Done():
			logger.Infow("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func loggingCallbacks() webhook.Callbacks {
	return webhook.Callbacks{
		Successful: func(ctx context.Context, n *domain.JobNotification) error {
			logger.Infow("job finished", "job_id", n.ID, "output", n.OutputMediaFile, "finished_job_at", n.FinishedAt)
			return nil
		},
		Cancelled: func(ctx context.Context, n *domain.JobNotification) error {
			logger.Infow("job cancelled", "job_id", n.ID)
			return nil
		},
		Failed: func(ctx context.Context, n *domain.JobNotification) error {
			logger.Warnw("job failed", "job_id", n.ID, "error_message", n.ErrorMessage)
			return nil
		},
		Other: func(ctx context.Context, n *domain.JobNotification) error {
			logger.Warnw("unrecognized job state", "job_id", n.ID, "state", n.State)
			return nil
		},
	}
}

func init() {
	notificationListenCmd.Flags().String("listen", "", "Address to listen on")
	notificationListenCmd.Flags().String("archive-dir", "", "Save every received payload under this directory")
	_ = v.BindPFlag("listen", notificationListenCmd.Flags().Lookup("listen"))
	_ = v.BindPFlag("archive_dir", notificationListenCmd.Flags().Lookup("archive-dir"))

	notificationCmd.AddCommand(notificationParseCmd)
	notificationCmd.AddCommand(notificationListenCmd)
}
