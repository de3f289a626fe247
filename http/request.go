package http

import (
	"context"
	"encoding/json"
)

// Request is a fluent builder over Options.
// Use NewRequest to create a new Request and chain method calls to configure it.
//
// Example:
//
//	resp, err := http.NewRequest(http.MethodPost, "https://api.example.com/users").
//	    WithHeader("Accept", "application/json").
//	    WithJSON(user).
//	    Do(ctx, client)
type Request struct {
	Method  Method
	URL     string
	Headers Headers
	Body    *string

	readBody bool
	err      error
}

// NewRequest creates a request for method and an absolute URL.
func NewRequest(method Method, url string) *Request {
	return &Request{
		Method:   method,
		URL:      url,
		readBody: true,
	}
}

// WithHeader appends a header to the request.
// Returns the Request to allow method chaining.
func (r *Request) WithHeader(name, value string) *Request {
	r.Headers = r.Headers.Add(name, value)
	return r
}

// WithHeaders appends headers in the given order.
// Returns the Request to allow method chaining.
func (r *Request) WithHeaders(headers Headers) *Request {
	r.Headers = append(r.Headers, headers...)
	return r
}

// WithString sets the body to s.
// Returns the Request to allow method chaining.
func (r *Request) WithString(s string) *Request {
	r.Body = &s
	return r
}

// WithJSON marshals v as the body and sets Content-Type to application/json,
// replacing any Content-Type added before. A marshal error is reported by Do.
// Returns the Request to allow method chaining.
func (r *Request) WithJSON(v any) *Request {
	data, err := json.Marshal(v)
	if err != nil {
		r.err = newError(InvalidBodyType, r.Method.String(), r.URL, err)
		return r
	}
	r.WithString(string(data))
	r.Headers = r.Headers.Set("Content-Type", "application/json")
	return r
}

// IgnoreBody skips reading the response body.
// Returns the Request to allow method chaining.
func (r *Request) IgnoreBody() *Request {
	r.readBody = false
	return r
}

// Options returns the per-call options this builder describes.
func (r *Request) Options() *Options {
	return &Options{
		Headers:  r.Headers,
		Body:     r.Body,
		ReadBody: Bool(r.readBody),
	}
}

// Do executes the request on client, or on Default if client is nil.
func (r *Request) Do(ctx context.Context, client *Client) (*Response, error) {
	if r.err != nil {
		return nil, r.err
	}
	if client == nil {
		client = Default()
	}
	return client.ExecuteContext(ctx, r.Method, r.URL, r.Options())
}
