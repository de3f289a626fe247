package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// echoServer reflects the method, a few request headers and the body.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Echo-Header", r.Header.Get("X-Test-Header"))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// closedAddr returns an address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected method GET, got %s", r.Method)
		}
		if r.URL.Path != "/test" {
			t.Errorf("Expected path /test, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"success"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Get(server.URL+"/test", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "200 OK", resp.Status)
	assert.Equal(t, "application/json", resp.Headers["content-type"])
	assert.Equal(t, `{"message":"success"}`, resp.String())
	assert.True(t, resp.HasBody())
}

func TestClient_AllVerbs(t *testing.T) {
	server := echoServer(t)
	client := NewClient()

	calls := map[Method]func(string, *Options) (*Response, error){
		MethodGet:    client.Get,
		MethodPost:   client.Post,
		MethodPut:    client.Put,
		MethodDelete: client.Delete,
		MethodPatch:  client.Patch,
	}

	for method, call := range calls {
		t.Run(method.String(), func(t *testing.T) {
			resp, err := call(server.URL, nil)
			require.NoError(t, err)
			assert.Equal(t, method.String(), resp.Header("X-Method"))
		})
	}
}

func TestClient_SendsBodyAndHeaders(t *testing.T) {
	server := echoServer(t)
	client := NewClient()

	resp, err := client.Post(server.URL, &Options{
		Headers: Headers{{Name: "X-Test-Header", Value: "test-value"}},
		Body:    String(`{"name":"John"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "test-value", resp.Header("X-Echo-Header"))
	assert.Equal(t, `{"name":"John"}`, resp.String())
}

func TestClient_HeadersAppliedInOrder(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Values("X-Multi")
	}))
	defer server.Close()

	client := NewClient(WithHeader("X-Multi", "default"))
	_, err := client.Get(server.URL, &Options{
		Headers: Headers{
			{Name: "X-Multi", Value: "one"},
			{Name: "x-multi", Value: "two"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestClient_DefaultHeadersAndUserAgent(t *testing.T) {
	var ua, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		auth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := NewClient(
		WithUserAgent("minigun-test"),
		WithHeader("Authorization", "Bearer token"),
	)
	_, err := client.Get(server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "minigun-test", ua)
	assert.Equal(t, "Bearer token", auth)

	_, err = client.Get(server.URL, &Options{Headers: Headers{{Name: "User-Agent", Value: "custom"}}})
	require.NoError(t, err)
	assert.Equal(t, "custom", ua)
}

func TestClient_HostHeader(t *testing.T) {
	var host string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host = r.Host
	}))
	defer server.Close()

	_, err := NewClient().Get(server.URL, &Options{Headers: Headers{{Name: "Host", Value: "example.test"}}})
	require.NoError(t, err)
	assert.Equal(t, "example.test", host)
}

func TestClient_DuplicateResponseHeadersLastWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-Dup", "first")
		w.Header().Add("X-Dup", "second")
		w.Header().Set("X-Single", "only")
	}))
	defer server.Close()

	resp, err := NewClient().Get(server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Headers["x-dup"])
	assert.Equal(t, "only", resp.Headers["x-single"])
	assert.Contains(t, resp.Headers, "date")
}

func TestClient_ReadBodyFalse(t *testing.T) {
	large := strings.Repeat("x", 1<<20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(large))
	}))
	defer server.Close()

	resp, err := NewClient().Get(server.URL, &Options{ReadBody: Bool(false)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, resp.Body)
	assert.False(t, resp.HasBody())
}

func TestClient_EmptyBodyIsNotAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := NewClient().Delete(server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotNil(t, resp.Body)
	assert.Empty(t, resp.Body)
}

func TestClient_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	resp, err := NewClient().Get(server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.True(t, resp.IsClientError())
	assert.False(t, resp.OK())
}

func TestClient_InvalidURL(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	tests := []string{
		"not a url",
		"/relative/path",
		"http://",
		"http://[::1",
		"",
	}

	client := NewClient()
	for _, rawURL := range tests {
		t.Run(rawURL, func(t *testing.T) {
			resp, err := client.Get(rawURL, nil)
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.Equal(t, InvalidURL, KindOf(err))
			assert.True(t, errors.Is(err, ErrInvalidURL))
			assert.Contains(t, err.Error(), "failed to parse URL")
		})
	}
	assert.Zero(t, hits.Load())
}

func TestClient_InvalidHeaderEntry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	tests := []struct {
		name    string
		headers Headers
	}{
		{"empty name", Headers{{Name: "", Value: "v"}}},
		{"space in name", Headers{{Name: "Bad Name", Value: "v"}}},
		{"newline in value", Headers{{Name: "X-Ok", Value: "a\r\nInjected: yes"}}},
		{"second entry bad", Headers{{Name: "X-Ok", Value: "v"}, {Name: "a:b", Value: "v"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient().Get(server.URL, &Options{Headers: tt.headers})
			require.Error(t, err)
			assert.Equal(t, InvalidHeaderEntry, KindOf(err))
		})
	}
	assert.Zero(t, hits.Load())
}

func TestClient_InvalidDefaultHeader(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	_, err := NewClient(WithHeader("Bad Name", "v")).Get(server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, InvalidHeaderEntry, KindOf(err))
	assert.Contains(t, err.Error(), "default header")
	assert.Zero(t, hits.Load())
}

func TestClient_InvalidMethod(t *testing.T) {
	_, err := NewClient().Execute(Method("TRACE"), "http://example.com", nil)
	require.Error(t, err)
	assert.Equal(t, InvalidMethod, KindOf(err))
}

func TestClient_RequestFailed(t *testing.T) {
	addr := closedAddr(t)

	start := time.Now()
	resp, err := NewClient().Get("http://"+addr+"/", nil)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Equal(t, RequestFailed, KindOf(err))
	assert.True(t, errors.Is(err, ErrRequestFailed))
	assert.Contains(t, err.Error(), "failed to send request")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestClient_UnsupportedSchemeFailsAtTransport(t *testing.T) {
	_, err := NewClient().Get("ftp://example.com/file", nil)
	require.Error(t, err)
	assert.Equal(t, RequestFailed, KindOf(err))
}

func TestClient_BodyReadFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("short"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	_, err := NewClient().Get(server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, BodyReadFailed, KindOf(err))
	assert.Contains(t, err.Error(), "failed to get response body")
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewClient(WithTimeout(20 * time.Millisecond)).Get(server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, RequestFailed, KindOf(err))
}

func TestClient_ExecuteContextCancelled(t *testing.T) {
	server := echoServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().ExecuteContext(ctx, MethodGet, server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, RequestFailed, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Idempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("static resource"))
	}))
	defer server.Close()

	client := NewClient()
	first, err := client.Get(server.URL, nil)
	require.NoError(t, err)
	second, err := client.Get(server.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, first.StatusCode, second.StatusCode)
	assert.Equal(t, first.Body, second.Body)
}

func TestClient_ConcurrentUse(t *testing.T) {
	server := echoServer(t)
	client := NewClient()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Post(server.URL, &Options{Body: String("ping")})
			if err != nil {
				errs <- err
				return
			}
			if resp.String() != "ping" {
				errs <- errors.New("unexpected body " + resp.String())
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestClient_Timing(t *testing.T) {
	server := echoServer(t)

	resp, err := NewClient().Get(server.URL, nil)
	require.NoError(t, err)
	assert.False(t, resp.Timing.StartTime.IsZero())
	assert.Greater(t, resp.Timing.TotalTime, time.Duration(0))
	assert.GreaterOrEqual(t, resp.Timing.TotalTime, resp.Timing.ContentTransferTime)
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())

	server := echoServer(t)
	resp, err := Patch(server.URL, &Options{Body: String("patched")})
	require.NoError(t, err)
	assert.Equal(t, "PATCH", resp.Header("X-Method"))
	assert.Equal(t, "patched", resp.String())
}

func TestClient_Logging(t *testing.T) {
	server := echoServer(t)
	core, logs := observer.New(zap.DebugLevel)
	client := NewClient(WithLogger(zap.New(core)))

	_, err := client.Get(server.URL, nil)
	require.NoError(t, err)
	_, err = client.Get("not a url", nil)
	require.Error(t, err)

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(200), completed[0].ContextMap()["status"])
	assert.NotEmpty(t, completed[0].ContextMap()["request_id"])

	failed := logs.FilterMessage("request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "InvalidUrl", failed[0].ContextMap()["kind"])
}

func TestClient_Metrics(t *testing.T) {
	server := echoServer(t)
	reg := prometheus.NewRegistry()
	client := NewClient(WithMetrics(reg))
	require.NotNil(t, client.metrics)

	_, err := client.Get(server.URL, nil)
	require.NoError(t, err)
	_, err = client.Get("http://"+closedAddr(t), nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(client.metrics.failures.WithLabelValues("GET", "RequestFailed")))

	// A second client on the same registry shares the collectors.
	other := NewClient(WithMetrics(reg))
	require.NotNil(t, other.metrics)
	_, err = other.Get(server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(client.metrics.requests.WithLabelValues("GET", "200")))
}

func TestClient_Go(t *testing.T) {
	server := echoServer(t)

	result := <-NewClient().Go(context.Background(), MethodPut, server.URL, &Options{Body: String("async")})
	require.NoError(t, result.Err)
	assert.Equal(t, "async", result.Response.String())
}

func TestClient_WithOptions(t *testing.T) {
	timeout := 10 * time.Second
	custom := &http.Client{}

	client := NewClient(WithHTTPClient(custom), WithTimeout(timeout), WithHeader("X-Test", "test-value"))

	assert.NotSame(t, custom, client.httpClient)
	assert.Zero(t, custom.Timeout)
	assert.Equal(t, timeout, client.httpClient.Timeout)
	v, ok := client.headers.Get("X-Test")
	assert.True(t, ok)
	assert.Equal(t, "test-value", v)
}

func TestClient_TimeoutBeforeHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}

	client := NewClient(WithTimeout(time.Second), WithHTTPClient(custom))
	assert.Equal(t, time.Second, client.httpClient.Timeout)
	assert.Equal(t, time.Minute, custom.Timeout)
}

func TestClient_NilHTTPClientIgnored(t *testing.T) {
	server := echoServer(t)

	resp, err := NewClient(WithHTTPClient(nil)).Get(server.URL, &Options{Body: String("ok")})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.String())
}
