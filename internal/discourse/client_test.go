package discourse

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoggerClient(base string, cred Credential, opts ...Option) *Client {
	opts = append([]Option{WithBackoffBase(time.Millisecond)}, opts...)
	return NewClient(base, cred, opts...)
}

func TestClient_HeaderComposition(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, APIKeyCredential("secret", "system"),
		WithBasicAuth("gate", "pass"),
		WithUserAgent("adapter-test"),
	)

	_, err := c.Get(context.Background(), "/about.json")
	require.NoError(t, err)

	assert.Equal(t, "adapter-test", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "secret", got.Get("Api-Key"))
	assert.Equal(t, "system", got.Get("Api-Username"))
	assert.Empty(t, got.Get("User-Api-Key"))

	expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("gate:pass"))
	assert.Equal(t, expected, got.Get("Authorization"))
}

func TestClient_BasicAuthAdditive(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	// Basic auth rides alongside the user-scoped variant too.
	c := testLoggerClient(srv.URL, UserAPIKeyCredential("ukey", "cid"), WithBasicAuth("u", "p"))
	_, err := c.Get(context.Background(), "/x")
	require.NoError(t, err)

	assert.Equal(t, "ukey", got.Get("User-Api-Key"))
	assert.NotEmpty(t, got.Get("Authorization"))
}

func TestClient_ExtraHeadersAppliedLast(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.Post(context.Background(), "/x", map[string]any{"a": 1},
		WithHeader("Accept", "text/plain"),
		WithHeader("Content-Type", "application/x-custom"),
	)
	require.NoError(t, err)

	assert.Equal(t, "text/plain", got.Get("Accept"))
	assert.Equal(t, "application/x-custom", got.Get("Content-Type"))
}

func TestClient_MultipartContentTypeWins(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	form := NewMultipartForm().
		AddField("type", "composer").
		SetFile("file", "a.txt", []byte("hello"))

	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.PostMultipart(context.Background(), "/uploads.json", form,
		WithHeader("Content-Type", "application/json"),
	)
	require.NoError(t, err)

	assert.Contains(t, got.Get("Content-Type"), "multipart/form-data; boundary=")
}

func TestClient_JSONResponseParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"about":{"title":"Example"}}`)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	v, err := c.Get(context.Background(), "/about.json")
	require.NoError(t, err)

	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Example", m["about"].(map[string]any)["title"])
}

func TestClient_TextResponseRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "plain body")
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	v, err := c.Get(context.Background(), "/raw")
	require.NoError(t, err)
	assert.Equal(t, "plain body", v)
}

func TestClient_Retry500ThreeAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"errors":["boom"]}`)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.Get(context.Background(), "/x")

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.Status)
	assert.Equal(t, "boom", se.Message)
}

func TestClient_Retry429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	v, err := c.Get(context.Background(), "/x")

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, true, v.(map[string]any)["ok"])
}

func TestClient_RetryDelaysDouble(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, AnonymousCredential(), WithBackoffBase(30*time.Millisecond))
	start := time.Now()
	_, err := c.Get(context.Background(), "/x")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	// 30ms then 60ms between the three attempts.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestClient_NoRetryOn404(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `not here`)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.Get(context.Background(), "/missing")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 404, se.Status)
	assert.Equal(t, "not here", se.Body)
}

func TestClient_MultipartNeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	form := NewMultipartForm().SetFile("file", "a.txt", []byte("x"))
	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.PostMultipart(context.Background(), "/uploads.json", form)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_NetworkErrorNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.Get(context.Background(), "/x")

	require.Error(t, err)
	var ne *NetworkError
	assert.ErrorAs(t, err, &ne)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential(), WithTimeout(20*time.Millisecond))
	_, err := c.Get(context.Background(), "/slow")

	require.Error(t, err)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 20*time.Millisecond, te.Duration)
}

func TestClient_CallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.Get(ctx, "/slow")

	require.Error(t, err)
	var te *TimeoutError
	assert.ErrorAs(t, err, &te)
}

func TestClient_GetCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"n":1}`)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())

	_, err := c.GetCached(context.Background(), "/categories.json", time.Minute)
	require.NoError(t, err)
	_, err = c.GetCached(context.Background(), "/categories.json", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// Expire the entry and the upstream is hit again.
	now := time.Now()
	c.cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = c.GetCached(context.Background(), "/categories.json", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ErrorsNotCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())

	_, err := c.GetCached(context.Background(), "/x", time.Minute)
	require.Error(t, err)
	_, err = c.GetCached(context.Background(), "/x", time.Minute)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ExactlyOneErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testLoggerClient(srv.URL, AnonymousCredential())
	_, err := c.Get(context.Background(), "/x")

	var se *StatusError
	var ne *NetworkError
	assert.True(t, errors.As(err, &se))
	assert.False(t, errors.As(err, &ne))
}
