package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/sirupsen/logrus"
	"github.com/tomasen/realip"
)

var log = logrus.WithField("layer", "http")

// Logger logs every request with its client ip, status and duration.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		l := log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"ip":         realip.FromRequest(r),
			"method":     r.Method,
			"uri":        r.RequestURI,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
		})

		if ww.Status() >= http.StatusInternalServerError {
			l.Warn("request failed")
			return
		}
		l.Debug("request served")
	})
}

// BodyLimiter limits request body size with n bytes.
func BodyLimiter(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
