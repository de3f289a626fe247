package http

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// TimingInfo breaks a call down into its network phases.
type TimingInfo struct {
	// StartTime is when the request was handed to the transport
	StartTime time.Time

	// DNSLookupTime is zero when the connection was reused or the host was an IP
	DNSLookupTime time.Duration

	// TCPConnectTime is zero when a pooled connection was reused
	TCPConnectTime time.Duration

	// TLSHandshakeTime is zero for plain HTTP
	TLSHandshakeTime time.Duration

	// TimeToFirstByte is measured from the end of the last completed phase
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the body, zero if it was not read
	ContentTransferTime time.Duration

	// TotalTime runs from StartTime until the Response was assembled
	TotalTime time.Duration
}

// ErrNoBody is returned by Response.JSON when the body was not read.
var ErrNoBody = errors.New("response body was not read")

// Response is the result of a successful call. Any status code counts as
// success; only transport and body read problems are errors.
type Response struct {
	// StatusCode is the HTTP status code (e.g., 200, 404, 500)
	StatusCode int

	// Status is the status line text (e.g., "200 OK")
	Status string

	// Proto is the protocol version (e.g., "HTTP/1.1")
	Proto string

	// Headers holds one entry per response header. Names are lowercased and a
	// header sent more than once keeps its last value.
	Headers map[string]string

	// Body is nil when the call was made with ReadBody false. A body that was
	// read but empty is a non-nil, zero-length slice.
	Body []byte

	Timing TimingInfo
}

// OK returns true if the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if the status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if the status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// Header looks a header up case-insensitively. Returns "" when absent.
func (r *Response) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// HasBody reports whether the body was read.
func (r *Response) HasBody() bool {
	return r.Body != nil
}

// String returns the body as a string, or "" if it was not read.
func (r *Response) String() string {
	return string(r.Body)
}

// JSON unmarshals the body into v.
//
// Example:
//
//	var users []User
//	if err := resp.JSON(&users); err != nil {
//	    log.Fatal(err)
//	}
func (r *Response) JSON(v any) error {
	if r.Body == nil {
		return ErrNoBody
	}
	return json.Unmarshal(r.Body, v)
}
