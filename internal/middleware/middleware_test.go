package middleware

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached(t *testing.T) {
	now := time.Unix(1000, 0)
	storage := newMemoryStorage(func() time.Time { return now })

	calls := 0
	h := cached(storage, time.Minute, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"n":1}`))
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"n":1}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
	assert.Equal(t, 1, calls)

	now = now.Add(time.Minute)

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	assert.Equal(t, 2, calls)
}

func TestCached_SkipsErrors(t *testing.T) {
	calls := 0
	h := Cached(time.Minute, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
	}
	assert.Equal(t, 2, calls)
}

func TestBodyLimiter(t *testing.T) {
	h := BodyLimiter(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := ioutil.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("1234")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("12345")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestLogger(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
