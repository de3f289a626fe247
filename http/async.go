package http

import "context"

// Result carries the outcome of an asynchronous call.
type Result struct {
	Response *Response
	Err      error
}

// Go runs ExecuteContext on a new goroutine. The returned channel receives
// exactly one Result and is then closed.
func (c *Client) Go(ctx context.Context, method Method, url string, opts *Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := c.ExecuteContext(ctx, method, url, opts)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}
