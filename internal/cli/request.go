package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/minigun/http"
	"github.com/wesleyorama2/minigun/internal/inspect"
	"github.com/wesleyorama2/minigun/internal/output"
)

func newRequestCmd(a *app, method http.Method) *cobra.Command {
	name := strings.ToLower(method.String())
	cmd := &cobra.Command{
		Use:   name + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, method, args[0])
		},
	}

	cmd.Flags().StringArrayP("header", "H", []string{}, "HTTP headers to include as 'Name: value' (can be used multiple times)")
	cmd.Flags().StringP("data", "d", "", "Request body")
	cmd.Flags().StringP("json", "j", "", "JSON request body (sets Content-Type unless given)")
	cmd.Flags().Bool("no-body", false, "Do not read the response body")
	cmd.Flags().StringP("output", "o", "", "Output format: text, json or yaml")
	cmd.Flags().StringP("query", "q", "", "Print only the value at this JSONPath, e.g. $.items[0].id")
	cmd.Flags().String("schema", "", "Validate the response body against this JSON Schema file")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().DurationP("timeout", "t", 30*time.Second, "Request timeout (0 for none)")
	cmd.MarkFlagsMutuallyExclusive("data", "json")
	cmd.MarkFlagsMutuallyExclusive("no-body", "query")
	cmd.MarkFlagsMutuallyExclusive("no-body", "schema")

	return cmd
}

func (a *app) runRequest(cmd *cobra.Command, method http.Method, rawURL string) error {
	headers, _ := cmd.Flags().GetStringArray("header")
	data, _ := cmd.Flags().GetString("data")
	jsonData, _ := cmd.Flags().GetString("json")
	noBody, _ := cmd.Flags().GetBool("no-body")
	format, _ := cmd.Flags().GetString("output")
	query, _ := cmd.Flags().GetString("query")
	schemaPath, _ := cmd.Flags().GetString("schema")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColorFlag, _ := cmd.Flags().GetBool("no-color")
	timeout, _ := cmd.Flags().GetDuration("timeout")

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

	req := http.NewRequest(method, normalizeURL(rawURL)).WithHeaders(parsed)
	switch {
	case cmd.Flags().Changed("data"):
		req.WithString(data)
	case cmd.Flags().Changed("json"):
		if !json.Valid([]byte(jsonData)) {
			return errors.New("--json value is not valid JSON")
		}
		req.WithString(jsonData)
		if _, ok := req.Headers.Get("Content-Type"); !ok {
			req.WithHeader("Content-Type", "application/json")
		}
	}
	if noBody {
		req.IgnoreBody()
	}

	var schema []byte
	if schemaPath != "" {
		schema, err = os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("error reading schema: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	noColor := output.NoColor(out, noColorFlag || a.cfg.NoColor)
	formatter := output.GetFormatter(outFormat, verbose, noColor)

	if outFormat == output.FormatText && query == "" {
		fmt.Fprint(out, formatter.FormatRequest(req))
	}

	resp, err := req.Do(cmd.Context(), a.newClient(timeout))
	if err != nil {
		return err
	}

	if query != "" {
		value, err := inspect.Query(resp.Body, query)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, value)
		return nil
	}

	fmt.Fprint(out, formatter.FormatResponse(resp))
	if outFormat != output.FormatText {
		fmt.Fprintln(out)
	}

	if schema != nil {
		return reportSchema(out, resp.Body, schema, noColor)
	}
	return nil
}

func reportSchema(out io.Writer, body, schema []byte, noColor bool) error {
	if err := inspect.Validate(body, schema); err != nil {
		fmt.Fprintf(out, "%s Schema validation failed\n", output.ErrorIcon(noColor))
		return err
	}
	fmt.Fprintf(out, "%s Schema validation passed\n", output.SuccessIcon(noColor))
	return nil
}

// parseHeaders turns "Name: value" flags into ordered headers. An entry
// without a colon or with an empty name is an error.
func parseHeaders(raw []string) (http.Headers, error) {
	headers := make(http.Headers, 0, len(raw))
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: expected 'Name: value'", entry)
		}
		headers = headers.Add(name, strings.TrimSpace(value))
	}
	return headers, nil
}

// normalizeURL adds an http:// scheme to bare host[:port]/path arguments.
func normalizeURL(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}
