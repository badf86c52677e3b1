package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"flixcloud/internal/adapters/httptransport"
	"flixcloud/internal/core/domain"
	"flixcloud/internal/service"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send a transcoding job request",
	Long: `Validate the job, send it to the service once and print the job ID and
initialization time. On failure every error message is printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := cfg.JobRequest()

		client := service.NewClient(httptransport.NewHTTPTransport(),
			service.WithEndpoint(cfg.Endpoint),
			service.WithLogger(logger),
		)

		sub, err := client.Send(cmd.Context(), req)
		if err != nil {
			var f *domain.Failure
			if errors.As(err, &f) {
				for _, msg := range f.Messages {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				}
			}
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "=== Job Submitted ===")
		fmt.Fprintf(out, "Job ID:         %s\n", sub.JobID)
		fmt.Fprintf(out, "Initialized At: %s\n", sub.InitializedAt)
		fmt.Fprintf(out, "Request ID:     %s\n", sub.RequestID)
		return nil
	},
}

func init() {
	f := submitCmd.Flags()
	f.String("api-key", "", "API key")
	f.String("recipe", "", "Recipe ID")
	f.String("input", "", "Input file url")
	f.String("input-user", "", "Input file user")
	f.String("input-password", "", "Input file password")
	f.String("output", "", "Output file url")
	f.String("output-user", "", "Output file user")
	f.String("output-password", "", "Output file password")
	f.String("watermark", "", "Watermark file url")
	f.String("watermark-user", "", "Watermark file user")
	f.String("watermark-password", "", "Watermark file password")
	f.Int("timeout", 0, "Connect timeout in seconds (0 = none)")
	f.String("certificate", "", "CA bundle used to verify the service")
	f.String("certificate-dir", "", "Directory of CA certificates used to verify the service")
	f.BoolP("insecure", "k", false, "Skip certificate verification")
	f.String("endpoint", "", "Override the job endpoint")

	for flag, key := range map[string]string{
		"api-key":            "api_key",
		"recipe":             "recipe_id",
		"input":              "input.url",
		"input-user":         "input.user",
		"input-password":     "input.password",
		"output":             "output.url",
		"output-user":        "output.user",
		"output-password":    "output.password",
		"watermark":          "watermark.url",
		"watermark-user":     "watermark.user",
		"watermark-password": "watermark.password",
		"timeout":            "timeout",
		"certificate":        "certificate",
		"certificate-dir":    "certificate_dir",
		"insecure":           "insecure",
		"endpoint":           "endpoint",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}
