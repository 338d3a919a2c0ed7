// Package middleware contains http middlewares.
package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Storage ...
type Storage interface {
	Get(key string) []byte
	Set(key string, content []byte, duration time.Duration)
}

// Cached caches successful responses of handler by request uri for ttl.
func Cached(ttl time.Duration, handler func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return cached(newMemoryStorage(time.Now), ttl, handler)
}

func cached(storage Storage, ttl time.Duration, handler func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content := storage.Get(r.RequestURI)
		if content != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(content)
			return
		}

		c := httptest.NewRecorder()
		handler(c, r)

		for k, v := range c.Header() {
			w.Header()[k] = v
		}

		w.WriteHeader(c.Code)
		content = c.Body.Bytes()

		if c.Code == http.StatusOK {
			storage.Set(r.RequestURI, content, ttl)
		}

		_, _ = w.Write(content)
	}
}

type item struct {
	content   []byte
	expiresAt time.Time
}

type memoryStorage struct {
	now func() time.Time

	mu    sync.RWMutex
	items map[string]item
}

func newMemoryStorage(now func() time.Time) *memoryStorage {
	return &memoryStorage{
		now:   now,
		items: map[string]item{},
	}
}

// Get returns content or nil when it is absent or expired.
func (s *memoryStorage) Get(key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok || !s.now().Before(v.expiresAt) {
		return nil
	}

	return v.content
}

// Set stores content and drops expired items.
func (s *memoryStorage) Set(key string, content []byte, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.items {
		if !now.Before(v.expiresAt) {
			delete(s.items, k)
		}
	}

	s.items[key] = item{
		content:   content,
		expiresAt: now.Add(duration),
	}
}
