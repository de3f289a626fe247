package http

import (
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Header is a single request header entry.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of request headers. Entries are applied in order;
// a name that appears more than once is sent once per entry.
type Headers []Header

// Add appends a header and returns the extended list.
func (h Headers) Add(name, value string) Headers {
	return append(h, Header{Name: name, Value: value})
}

// Set drops every entry named name, ignoring case, and appends name: value.
func (h Headers) Set(name, value string) Headers {
	kept := make(Headers, 0, len(h)+1)
	for _, hdr := range h {
		if !strings.EqualFold(hdr.Name, name) {
			kept = append(kept, hdr)
		}
	}
	return kept.Add(name, value)
}

// Get returns the value of the last entry named name, ignoring case.
func (h Headers) Get(name string) (string, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if strings.EqualFold(h[i].Name, name) {
			return h[i].Value, true
		}
	}
	return "", false
}

// Validate checks every entry against the HTTP header grammar.
func (h Headers) Validate() error {
	for i, hdr := range h {
		if err := validateHeader(hdr.Name, hdr.Value); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

func validateHeader(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("invalid header name %q", name)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("invalid value for header %q", name)
	}
	return nil
}

// Options are the optional per-call settings. A nil *Options is the same as
// no headers, no body and ReadBody true.
type Options struct {
	Headers Headers

	// Body is sent as-is when non-nil. Only UTF-8 text is supported.
	Body *string

	// ReadBody defaults to true. When false the response body is not read and
	// Response.Body is nil.
	ReadBody *bool
}

// String returns a pointer to s, for Options.Body.
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b, for Options.ReadBody.
func Bool(b bool) *bool {
	return &b
}

func (o *Options) readBody() bool {
	if o == nil || o.ReadBody == nil {
		return true
	}
	return *o.ReadBody
}

func (o *Options) headers() Headers {
	if o == nil {
		return nil
	}
	return o.Headers
}

func (o *Options) body() *string {
	if o == nil {
		return nil
	}
	return o.Body
}
