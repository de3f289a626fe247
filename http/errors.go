package http

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a request did not produce a Response.
type ErrorKind int

const (
	// KindUnknown is reported by KindOf for errors that did not come from this package.
	KindUnknown ErrorKind = iota
	// InvalidURL means the URL did not parse as an absolute http(s) URL.
	InvalidURL
	// InvalidMethod means the verb is not one of GET, POST, PUT, DELETE, PATCH.
	InvalidMethod
	// InvalidHeaderEntry means a header entry had the wrong shape or a non-string member.
	InvalidHeaderEntry
	// InvalidBodyType means a body was supplied that is not a string.
	InvalidBodyType
	// RequestFailed means the transport failed (DNS, connect, TLS, timeout).
	RequestFailed
	// BodyReadFailed means the response arrived but its body could not be read.
	BodyReadFailed
)

var kindNames = map[ErrorKind]string{
	KindUnknown:        "Unknown",
	InvalidURL:         "InvalidUrl",
	InvalidMethod:      "InvalidMethod",
	InvalidHeaderEntry: "InvalidHeaderEntry",
	InvalidBodyType:    "InvalidBodyType",
	RequestFailed:      "RequestFailed",
	BodyReadFailed:     "BodyReadFailed",
}

// String returns the kind name, e.g. "InvalidUrl".
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrInvalidMethod      = errors.New("invalid method")
	ErrInvalidHeaderEntry = errors.New("invalid header entry")
	ErrInvalidBodyType    = errors.New("invalid body type")
	ErrRequestFailed      = errors.New("request failed")
	ErrBodyReadFailed     = errors.New("body read failed")
)

var kindSentinels = map[ErrorKind]error{
	InvalidURL:         ErrInvalidURL,
	InvalidMethod:      ErrInvalidMethod,
	InvalidHeaderEntry: ErrInvalidHeaderEntry,
	InvalidBodyType:    ErrInvalidBodyType,
	RequestFailed:      ErrRequestFailed,
	BodyReadFailed:     ErrBodyReadFailed,
}

// Error is returned by every failing call of the executor.
type Error struct {
	Kind   ErrorKind
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	var prefix string
	switch e.Kind {
	case InvalidURL:
		prefix = "failed to parse URL"
	case InvalidMethod:
		prefix = "invalid method"
	case InvalidHeaderEntry:
		prefix = "invalid header entry"
	case InvalidBodyType:
		prefix = "invalid body"
	case RequestFailed:
		prefix = "failed to send request"
	case BodyReadFailed:
		prefix = "failed to get response body"
	default:
		prefix = "request error"
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the ErrorKind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind ErrorKind, method, url string, err error) *Error {
	return &Error{Kind: kind, Method: method, URL: url, Err: err}
}
