package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Client executes requests over one pooled *http.Client.
// Client is safe for concurrent use by multiple goroutines; it is never
// mutated after NewClient returns.
type Client struct {
	httpClient *http.Client
	headers    Headers
	userAgent  string
	logger     *zap.Logger
	metrics    *clientMetrics

	timeout    *time.Duration
	registry   prometheus.Registerer
	metricsErr error
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a client with its own connection pool. Without options it
// has no timeout and follows the net/http redirect defaults.
//
// Example:
//
//	client := http.NewClient(
//	    http.WithUserAgent("my-tool/1.0"),
//	    http.WithLogger(logger),
//	)
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		logger: zap.NewNop(),
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	if client.timeout != nil {
		client.httpClient.Timeout = *client.timeout
	}

	if client.registry != nil {
		client.metrics, client.metricsErr = newClientMetrics(client.registry)
		if client.metricsErr != nil {
			client.logger.Warn("metrics disabled", zap.Error(client.metricsErr))
			client.metrics = nil
		}
	}

	return client
}

var defaultClient = sync.OnceValue(func() *Client {
	return NewClient()
})

// Default returns the process-wide client used by the package level verb
// functions. It is created on first use and lives for the rest of the process.
func Default() *Client {
	return defaultClient()
}

// WithHTTPClient uses a copy of httpClient, sharing its transport. A nil
// httpClient is ignored.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient == nil {
			return
		}
		copied := *httpClient
		c.httpClient = &copied
	}
}

// WithTimeout bounds every call, including reading the body. Zero means no limit.
// It overrides the timeout of a client given to WithHTTPClient, in any order.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = &timeout
	}
}

// WithHeader adds a default header to every request.
// A header of the same name in Options replaces it.
func WithHeader(name, value string) ClientOption {
	return func(c *Client) {
		c.headers = c.headers.Add(name, value)
	}
}

// WithUserAgent sets the User-Agent sent when the request does not set one.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger logs every call at debug level.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics reports request counts, durations and failures to reg.
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *Client) {
		c.registry = reg
	}
}

// Execute performs one blocking request. It is ExecuteContext with a
// background context, so it cannot be cancelled.
func (c *Client) Execute(method Method, rawURL string, opts *Options) (*Response, error) {
	return c.ExecuteContext(context.Background(), method, rawURL, opts)
}

// ExecuteContext performs one blocking request. Every failure is an *Error;
// there is no partial result.
func (c *Client) ExecuteContext(ctx context.Context, method Method, rawURL string, opts *Options) (*Response, error) {
	logger := c.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("method", method.String()),
		zap.String("url", rawURL),
	)

	resp, err := c.execute(ctx, method, rawURL, opts)
	if err != nil {
		kind := KindOf(err)
		c.metrics.fail(method, kind)
		logger.Debug("request failed", zap.Stringer("kind", kind), zap.Error(err))
		return nil, err
	}

	c.metrics.observe(method, resp.StatusCode, resp.Timing.TotalTime)
	logger.Debug("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Timing.TotalTime),
		zap.Bool("body_read", resp.HasBody()),
	)
	return resp, nil
}

func (c *Client) execute(ctx context.Context, method Method, rawURL string, opts *Options) (*Response, error) {
	if !method.Valid() {
		return nil, newError(InvalidMethod, method.String(), rawURL, fmt.Errorf("unsupported method %q", method))
	}

	reqURL, err := parseURL(rawURL)
	if err != nil {
		return nil, newError(InvalidURL, method.String(), rawURL, err)
	}

	if err := c.headers.Validate(); err != nil {
		return nil, newError(InvalidHeaderEntry, method.String(), rawURL, fmt.Errorf("default header %w", err))
	}
	headers := opts.headers()
	if err := headers.Validate(); err != nil {
		return nil, newError(InvalidHeaderEntry, method.String(), rawURL, err)
	}

	var body io.Reader
	if b := opts.body(); b != nil {
		body = strings.NewReader(*b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method.String(), reqURL.String(), body)
	if err != nil {
		return nil, newError(InvalidURL, method.String(), rawURL, err)
	}
	c.applyHeaders(httpReq, headers)

	timing := TimingInfo{
		StartTime: time.Now(),
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(ctx, newTrace(&timing)))

	// Execute the request
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newError(RequestFailed, method.String(), rawURL, unwrapURLError(err))
	}
	defer httpResp.Body.Close()

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Proto:      httpResp.Proto,
		Headers:    flattenHeaders(httpResp.Header),
	}

	if opts.readBody() {
		transferStart := time.Now()
		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, newError(BodyReadFailed, method.String(), rawURL, unwrapURLError(err))
		}
		if data == nil {
			data = []byte{}
		}
		resp.Body = data
		timing.ContentTransferTime = time.Since(transferStart)
	}

	timing.TotalTime = time.Since(timing.StartTime)
	resp.Timing = timing
	return resp, nil
}

// applyHeaders sets the client defaults first, then the request headers in
// order. Request headers with a default's name replace the default.
func (c *Client) applyHeaders(req *http.Request, headers Headers) {
	for _, h := range c.headers {
		req.Header.Set(h.Name, h.Value)
	}
	overridden := make(map[string]bool, len(headers))
	for _, h := range headers {
		if strings.EqualFold(h.Name, "Host") {
			req.Host = h.Value
			continue
		}
		key := http.CanonicalHeaderKey(h.Name)
		if !overridden[key] {
			req.Header.Del(key)
			overridden[key] = true
		}
		req.Header.Add(key, h.Value)
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// parseURL accepts only absolute URLs with a scheme and a host.
func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, unwrapURLError(err)
	}
	if u.Scheme == "" {
		return nil, errors.New("relative URL without a base")
	}
	if u.Host == "" {
		return nil, errors.New("empty host")
	}
	return u, nil
}

// unwrapURLError drops the "Get \"...\":" prefix net/http adds, since *Error
// already carries the method and URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		headers[strings.ToLower(name)] = values[len(values)-1]
	}
	return headers
}

func newTrace(timing *TimingInfo) *httptrace.ClientTrace {
	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var dnsDone, connectDone bool
	lastPhaseEnd := timing.StartTime // end time of the last completed phase

	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			lastPhaseEnd = time.Now()
			timing.DNSLookupTime = lastPhaseEnd.Sub(dnsStart)
			dnsDone = true
		},
		ConnectStart: func(network, addr string) {
			if dnsDone || connectStart.IsZero() {
				connectStart = time.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil && !connectDone {
				lastPhaseEnd = time.Now()
				timing.TCPConnectTime = lastPhaseEnd.Sub(connectStart)
				connectDone = true
			}
		},
		TLSHandshakeStart: func() {
			tlsHandshakeStart = time.Now()
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				lastPhaseEnd = time.Now()
				timing.TLSHandshakeTime = lastPhaseEnd.Sub(tlsHandshakeStart)
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}
}

// Get is a convenience method for making GET requests.
func (c *Client) Get(url string, opts *Options) (*Response, error) {
	return c.Execute(MethodGet, url, opts)
}

// Post is a convenience method for making POST requests.
func (c *Client) Post(url string, opts *Options) (*Response, error) {
	return c.Execute(MethodPost, url, opts)
}

// Put is a convenience method for making PUT requests.
func (c *Client) Put(url string, opts *Options) (*Response, error) {
	return c.Execute(MethodPut, url, opts)
}

// Delete is a convenience method for making DELETE requests.
func (c *Client) Delete(url string, opts *Options) (*Response, error) {
	return c.Execute(MethodDelete, url, opts)
}

// Patch is a convenience method for making PATCH requests.
func (c *Client) Patch(url string, opts *Options) (*Response, error) {
	return c.Execute(MethodPatch, url, opts)
}

// Execute runs a request on the Default client.
func Execute(method Method, url string, opts *Options) (*Response, error) {
	return Default().Execute(method, url, opts)
}

// Get makes a GET request on the Default client.
func Get(url string, opts *Options) (*Response, error) {
	return Default().Get(url, opts)
}

// Post makes a POST request on the Default client.
func Post(url string, opts *Options) (*Response, error) {
	return Default().Post(url, opts)
}

// Put makes a PUT request on the Default client.
func Put(url string, opts *Options) (*Response, error) {
	return Default().Put(url, opts)
}

// Delete makes a DELETE request on the Default client.
func Delete(url string, opts *Options) (*Response, error) {
	return Default().Delete(url, opts)
}

// Patch makes a PATCH request on the Default client.
func Patch(url string, opts *Options) (*Response, error) {
	return Default().Patch(url, opts)
}
