package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one structured line per request.
func RequestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				entry := log.WithFields(logrus.Fields{
					"request_id": chimw.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     status,
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
				})
				if principal := PrincipalFrom(r.Context()); principal.Authenticated() {
					entry = entry.WithField("user_id", principal.UserID)
				}
				switch {
				case status >= http.StatusInternalServerError:
					entry.Error("request failed")
				case status >= http.StatusBadRequest:
					entry.Warn("request rejected")
				default:
					entry.Info("request served")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
