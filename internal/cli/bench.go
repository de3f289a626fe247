package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/minigun/http"
	"github.com/wesleyorama2/minigun/internal/bench"
	"github.com/wesleyorama2/minigun/internal/output"
)

func newBenchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench URL",
		Short: "Send many concurrent requests to one URL and report latency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, _ := cmd.Flags().GetInt("requests")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			rps, _ := cmd.Flags().GetFloat64("rps")
			duration, _ := cmd.Flags().GetDuration("duration")
			methodName, _ := cmd.Flags().GetString("method")
			headers, _ := cmd.Flags().GetStringArray("header")
			data, _ := cmd.Flags().GetString("data")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			format, _ := cmd.Flags().GetString("output")
			noColorFlag, _ := cmd.Flags().GetBool("no-color")

			method, err := http.ParseMethod(methodName)
			if err != nil {
				return err
			}
			if format == "" {
				format = a.cfg.Output
			}
			outFormat, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			parsed, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			opts := &http.Options{Headers: parsed}
			if cmd.Flags().Changed("data") {
				opts.Body = http.String(data)
			}

			report, err := bench.Run(cmd.Context(), a.newClient(timeout), bench.Config{
				Method:      method,
				URL:         normalizeURL(args[0]),
				Options:     opts,
				Requests:    requests,
				Concurrency: concurrency,
				RPS:         rps,
				Duration:    duration,
				Logger:      a.logger,
			})
			if report != nil {
				noColor := output.NoColor(cmd.OutOrStdout(), noColorFlag || a.cfg.NoColor)
				fmt.Fprintln(cmd.OutOrStdout(), output.GetFormatter(outFormat, false, noColor).FormatReport(report))
			}
			return err
		},
	}

	cmd.Flags().IntP("requests", "n", 100, "Total number of requests")
	cmd.Flags().IntP("concurrency", "c", 10, "Number of concurrent workers")
	cmd.Flags().Float64("rps", 0, "Maximum requests per second (0 for unlimited)")
	cmd.Flags().Duration("duration", 0, "Stop after this long even if requests remain")
	cmd.Flags().StringP("method", "X", "GET", "HTTP method")
	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include as 'Name: value'")
	cmd.Flags().StringP("data", "d", "", "Request body")
	cmd.Flags().DurationP("timeout", "t", 30*time.Second, "Per-request timeout (0 for none)")
	cmd.Flags().StringP("output", "o", "", "Output format: text, json or yaml")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}
