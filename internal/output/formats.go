package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/minigun/http"
	"github.com/wesleyorama2/minigun/internal/bench"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(req *http.Request) string
	FormatResponse(resp *http.Response) string
	FormatReport(r *bench.Report) string
}

// RequestData represents the structured data of an HTTP request
type RequestData struct {
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      any               `json:"body,omitempty" yaml:"body,omitempty"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
}

// TimingData represents detailed timing information for an HTTP request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of an HTTP response.
// StatusCode, Headers and Body mirror the response record a script sees.
type ResponseData struct {
	StatusCode int               `json:"status_code" yaml:"status_code"`
	Status     string            `json:"status,omitempty" yaml:"status,omitempty"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
	Body       any               `json:"body" yaml:"body"`
	Timing     *TimingData       `json:"timing,omitempty" yaml:"timing,omitempty"`
	Timestamp  string            `json:"timestamp" yaml:"timestamp"`
}

// NewRequestData converts a request into its structured form.
func NewRequestData(req *http.Request) RequestData {
	data := RequestData{
		Method:    req.Method.String(),
		URL:       req.URL,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if len(req.Headers) > 0 {
		data.Headers = make(map[string]string, len(req.Headers))
		for _, h := range req.Headers {
			data.Headers[h.Name] = h.Value
		}
	}
	if req.Body != nil {
		data.Body = structuredBody([]byte(*req.Body))
	}
	return data
}

// NewResponseData converts a response into its structured form. Timing is
// included only when verbose is set.
func NewResponseData(resp *http.Response, verbose bool) ResponseData {
	headers := resp.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	data := ResponseData{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    headers,
		Body:       structuredBody(resp.Body),
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if verbose {
		t := resp.Timing
		data.Timing = &TimingData{
			DNSLookup:       t.DNSLookupTime.Milliseconds(),
			TCPConnection:   t.TCPConnectTime.Milliseconds(),
			TLSHandshake:    t.TLSHandshakeTime.Milliseconds(),
			TimeToFirstByte: t.TimeToFirstByte.Milliseconds(),
			ContentTransfer: t.ContentTransferTime.Milliseconds(),
			Total:           t.TotalTime.Milliseconds(),
		}
	}
	return data
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(what string, v any) string {
	var (
		out []byte
		err error
	)
	if f.Pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal %s: %s"}`, what, err)
	}
	return string(out)
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(req *http.Request) string {
	return f.marshal("request", NewRequestData(req))
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal("response", NewResponseData(resp, f.Verbose))
}

// FormatReport formats a benchmark report as JSON
func (f *JSONFormatter) FormatReport(r *bench.Report) string {
	return f.marshal("report", r)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(what string, v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: Failed to marshal %s: %s", what, err)
	}
	return string(out)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(req *http.Request) string {
	return f.marshal("request", NewRequestData(req))
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal("response", NewResponseData(resp, f.Verbose))
}

// FormatReport formats a benchmark report as YAML
func (f *YAMLFormatter) FormatReport(r *bench.Report) string {
	return f.marshal("report", r)
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return &Formatter{Verbose: verbose, NoColor: noColor}
	}
}
