package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Options(t *testing.T) {
	tests := []struct {
		name         string
		build        func() *Request
		wantHeaders  Headers
		wantBody     *string
		wantReadBody bool
	}{
		{
			name:         "Bare request",
			build:        func() *Request { return NewRequest(MethodGet, "https://api.example.com/users") },
			wantReadBody: true,
		},
		{
			name: "Headers keep order",
			build: func() *Request {
				return NewRequest(MethodGet, "https://api.example.com").
					WithHeader("B", "2").
					WithHeaders(Headers{{"A", "1"}})
			},
			wantHeaders:  Headers{{"B", "2"}, {"A", "1"}},
			wantReadBody: true,
		},
		{
			name: "String body",
			build: func() *Request {
				return NewRequest(MethodPost, "https://api.example.com").WithString("payload")
			},
			wantBody:     String("payload"),
			wantReadBody: true,
		},
		{
			name: "JSON body sets content type",
			build: func() *Request {
				return NewRequest(MethodPost, "https://api.example.com").
					WithJSON(map[string]string{"name": "John"})
			},
			wantHeaders:  Headers{{"Content-Type", "application/json"}},
			wantBody:     String(`{"name":"John"}`),
			wantReadBody: true,
		},
		{
			name: "JSON body replaces content type",
			build: func() *Request {
				return NewRequest(MethodPost, "https://api.example.com").
					WithHeader("content-type", "text/plain").
					WithHeader("Accept", "application/json").
					WithJSON([]int{1})
			},
			wantHeaders:  Headers{{"Accept", "application/json"}, {"Content-Type", "application/json"}},
			wantBody:     String(`[1]`),
			wantReadBody: true,
		},
		{
			name: "Ignore body",
			build: func() *Request {
				return NewRequest(MethodDelete, "https://api.example.com").IgnoreBody()
			},
			wantReadBody: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.build().Options()
			assert.Equal(t, tt.wantHeaders, opts.Headers)
			assert.Equal(t, tt.wantBody, opts.Body)
			require.NotNil(t, opts.ReadBody)
			assert.Equal(t, tt.wantReadBody, *opts.ReadBody)
		})
	}
}

func TestRequest_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	defer server.Close()

	resp, err := NewRequest(MethodPost, server.URL).
		WithJSON(map[string]int{"count": 3}).
		Do(context.Background(), NewClient())
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, resp.JSON(&got))
	assert.Equal(t, 3, got["count"])
}

func TestRequest_SingleContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Join(r.Header.Values("Content-Type"), "|")))
	}))
	defer server.Close()

	resp, err := NewRequest(MethodPost, server.URL).
		WithHeader("CONTENT-TYPE", "text/plain").
		WithJSON(map[string]int{"count": 3}).
		Do(context.Background(), NewClient())
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.String())
}

func TestHeaders_GetIgnoresCase(t *testing.T) {
	headers := Headers{{"Content-Type", "text/plain"}, {"X-A", "1"}, {"x-a", "2"}}

	v, ok := headers.Get("content-type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", v)

	v, ok = headers.Get("X-A")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	_, ok = headers.Get("Accept")
	assert.False(t, ok)
}

func TestHeaders_Set(t *testing.T) {
	headers := Headers{{"x-a", "1"}, {"B", "2"}, {"X-A", "3"}}
	assert.Equal(t, Headers{{"B", "2"}, {"X-A", "4"}}, headers.Set("X-A", "4"))
	assert.Len(t, headers, 3)
}

func TestRequest_DoWithoutClientUsesDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := NewRequest(MethodGet, server.URL).IgnoreBody().Do(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Body)
}

func TestRequest_WithJSONMarshalError(t *testing.T) {
	_, err := NewRequest(MethodPost, "https://api.example.com").
		WithJSON(make(chan int)).
		Do(context.Background(), NewClient())
	require.Error(t, err)
	assert.Equal(t, InvalidBodyType, KindOf(err))
}
