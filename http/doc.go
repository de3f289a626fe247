// Package http is a small synchronous HTTP client meant to be called from a
// scripting host.
//
// It supports five verbs (GET, POST, PUT, DELETE, PATCH). Each call takes an
// absolute URL and optional Options (headers, a string body, and whether to
// read the response body) and returns a Response with the status code, the
// response headers and, unless disabled, the body.
//
// Basic Usage:
//
//	resp, err := http.Get("https://api.example.com/users", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Status: %d\n", resp.StatusCode)
//
// With options:
//
//	resp, err := http.Post("https://api.example.com/users", &http.Options{
//	    Headers: http.Headers{{Name: "Content-Type", Value: "application/json"}},
//	    Body:    http.String(`{"name":"John"}`),
//	})
//
// Values coming from a host runtime are validated with DecodeOptions:
//
//	opts, err := http.DecodeOptions(map[string]any{
//	    "headers":   map[string]any{"Accept": "application/json"},
//	    "read_body": false,
//	})
//
// Errors:
//
// Every failure is an *Error whose Kind tells the caller what went wrong:
// InvalidURL, InvalidMethod, InvalidHeaderEntry, InvalidBodyType, RequestFailed
// or BodyReadFailed. Nothing is retried. Use KindOf or errors.Is with the
// Err* sentinels to branch on it.
//
// Thread Safety:
//
// Client is safe for concurrent use. The package level functions share one
// Client returned by Default, created on first use.
package http
