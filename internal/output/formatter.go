package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/wesleyorama2/minigun/http"
	"github.com/wesleyorama2/minigun/internal/bench"
)

// Formatter is responsible for formatting HTTP requests and responses in text format
type Formatter struct {
	Verbose bool
	NoColor bool
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
	}
}

// FormatRequest formats an HTTP request for display
func (f *Formatter) FormatRequest(req *http.Request) string {
	var buf strings.Builder
	scheme := SchemeFor(f.NoColor)

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		scheme.Method.Sprint(req.Method), scheme.URL.Sprint(req.URL)))

	if len(req.Headers) > 0 {
		buf.WriteString("  Headers:\n")
		for _, h := range req.Headers {
			buf.WriteString(fmt.Sprintf("    %s: %s\n",
				scheme.HeaderKey.Sprint(h.Name), scheme.HeaderValue.Sprint(h.Value)))
		}
	}

	if req.Body != nil {
		buf.WriteString("  Body: ")
		buf.WriteString(formatJSONString(*req.Body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats an HTTP response for display
func (f *Formatter) FormatResponse(resp *http.Response) string {
	var buf strings.Builder
	scheme := SchemeFor(f.NoColor)

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		scheme.Status(resp.StatusCode).Sprint(statusText(resp)),
		resp.Timing.TotalTime.Milliseconds()))

	if f.Verbose {
		t := resp.Timing
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:         %dms\n", t.DNSLookupTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:     %dms\n", t.TCPConnectTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:      %dms\n", t.TLSHandshakeTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", t.TimeToFirstByte.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:   %dms\n", t.ContentTransferTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Total:              %dms\n", t.TotalTime.Milliseconds()))

		buf.WriteString("  Headers:\n")
		for _, name := range sortedNames(resp.Headers) {
			buf.WriteString(fmt.Sprintf("    %s: %s\n",
				scheme.HeaderKey.Sprint(name), scheme.HeaderValue.Sprint(resp.Headers[name])))
		}
	}

	switch {
	case resp.Body == nil:
		buf.WriteString(scheme.Muted.Sprint("  Body: (not read)"))
		buf.WriteString("\n")
	case len(resp.Body) > 0:
		buf.WriteString("  Body:\n")
		buf.WriteString(RenderBody(resp.Body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatReport formats a benchmark report for display
func (f *Formatter) FormatReport(r *bench.Report) string {
	var buf strings.Builder
	scheme := SchemeFor(f.NoColor)

	buf.WriteString(fmt.Sprintf("%s %s\n", scheme.Method.Sprint(r.Method), scheme.URL.Sprint(r.URL)))
	buf.WriteString(fmt.Sprintf("  Requests:   %d (%s ok, %s failed)\n",
		r.Requests,
		scheme.Success.Sprint(r.Succeeded),
		failedColor(scheme, r.Failed).Sprint(r.Failed)))
	buf.WriteString(fmt.Sprintf("  Elapsed:    %s\n", r.Elapsed.Round(time.Millisecond)))
	buf.WriteString(fmt.Sprintf("  Throughput: %.2f req/s\n", r.RPS))
	buf.WriteString(fmt.Sprintf("  Received:   %d bytes\n", r.Bytes))

	l := r.Latency
	buf.WriteString("  Latency:\n")
	buf.WriteString(fmt.Sprintf("    min %s  mean %s  max %s\n", l.Min, l.Mean.Round(time.Microsecond), l.Max))
	buf.WriteString(fmt.Sprintf("    p50 %s  p90 %s  p95 %s  p99 %s\n", l.P50, l.P90, l.P95, l.P99))

	if len(r.StatusCodes) > 0 {
		codes := make([]int, 0, len(r.StatusCodes))
		for code := range r.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		buf.WriteString("  Status codes:\n")
		for _, code := range codes {
			buf.WriteString(fmt.Sprintf("    %s: %d\n", scheme.Status(code).Sprint(code), r.StatusCodes[code]))
		}
	}

	if len(r.Errors) > 0 {
		buf.WriteString("  Errors:\n")
		for _, kind := range sortedKeys(r.Errors) {
			buf.WriteString(fmt.Sprintf("    %s: %d\n", scheme.Error.Sprint(kind), r.Errors[kind]))
		}
	}

	return buf.String()
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d", resp.StatusCode)
}

func failedColor(scheme *ColorScheme, failed int64) *color.Color {
	if failed > 0 {
		return scheme.Error
	}
	return scheme.Muted
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
