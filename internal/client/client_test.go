package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/learneasy/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{Timeout: time.Second, MaxAttempts: 3, InitialDelay: time.Millisecond}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, testOptions()).Ping(context.Background()))
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, New(url, testOptions()).Ping(context.Background()))
}

func TestListLessons_EncodesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "System Design", r.URL.Query().Get("category"))
		assert.Equal(t, "intro", r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"lessons": []map[string]string{{"id": "sys-design-intro", "title": "Intro to System Design"}},
			"count":   1,
		})
	}))
	defer srv.Close()

	list, err := New(srv.URL, testOptions()).ListLessons(context.Background(), content.Filter{
		Category: "System Design",
		Search:   "intro",
	})
	require.NoError(t, err)
	require.Len(t, list.Lessons, 1)
	assert.Equal(t, "sys-design-intro", list.Lessons[0].ID)
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "busy", "status": 503})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "running", "version": "0.1.0"})
	}))
	defer srv.Close()

	status, err := New(srv.URL, testOptions()).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", status.Version)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":   "failed to create session",
			"status":  404,
			"details": "lesson not found: nope",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL, testOptions()).OpenLesson(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "lesson not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostNotRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "busy", "status": 503})
	}))
	defer srv.Close()

	_, err := New(srv.URL, testOptions()).OpenLesson(context.Background(), "sys-design-intro")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "status 503: busy", err.Error())
	assert.Equal(t, int32(1), calls.Load(), "a POST may have been applied and must not be re-sent")
}

func TestPostNotRetriedOnTransportError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// drop the connection without a response
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	code := "print(1)"
	_, err := New(srv.URL, testOptions()).Submit(context.Background(), "abc", &code)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostRetriedOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{"error": "rate limit exceeded", "status": 429})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"session": map[string]interface{}{"id": "s1", "kind": "lesson"},
		})
	}))
	defer srv.Close()

	view, err := New(srv.URL, testOptions()).OpenLesson(context.Background(), "sys-design-intro")
	require.NoError(t, err)
	assert.Equal(t, "s1", view.Session.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDeleteRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": "bad gateway", "status": 502})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, testOptions()).CloseSession(context.Background(), "s1"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSubmit_SendsCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/sessions/abc/submit", r.URL.Path)

		var body struct {
			Code *string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.Code)
		assert.Equal(t, "print(1)", *body.Code)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"session": map[string]interface{}{"id": "abc", "kind": "challenge", "explanation_unlocked": true},
		})
	}))
	defer srv.Close()

	code := "print(1)"
	view, err := New(srv.URL, testOptions()).Submit(context.Background(), "abc", &code)
	require.NoError(t, err)
	assert.True(t, view.Session.ExplanationUnlocked)
}

func TestAPIError(t *testing.T) {
	err := decodeError(&response{status: http.StatusTeapot, body: []byte("not json")})
	assert.Equal(t, "status 418: I'm a teapot", err.Error())

	assert.False(t, isRetryable(&APIError{Status: http.StatusBadRequest}))
	assert.True(t, isRetryable(&APIError{Status: http.StatusTooManyRequests}))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(finalError{&APIError{Status: http.StatusServiceUnavailable}}))

	assert.True(t, idempotent(http.MethodGet))
	assert.True(t, idempotent(http.MethodDelete))
	assert.False(t, idempotent(http.MethodPost))
}
