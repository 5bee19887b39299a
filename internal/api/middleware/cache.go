package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ResponseStore keeps whole response bodies for a limited time.
type ResponseStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
}

// CacheResponse marks GET responses as publicly cacheable for ttl and, when store is not
// nil, serves repeated requests for the same scheme, host and URI from it. Only 200 responses
// are stored. Store failures fall through to the handler.
func CacheResponse(store ResponseStore, ttl time.Duration, log *logrus.Logger) func(http.Handler) http.Handler {
	cacheControl := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Cache-Control", cacheControl)

			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := RequestScheme(r) + "://" + r.Host + r.URL.RequestURI()
			if body, ok, err := store.Get(r.Context(), key); err != nil {
				log.WithError(err).Warn("response cache read failed")
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.Write(body)
				return
			}

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK {
				if err := store.Set(r.Context(), key, rec.body.Bytes(), ttl); err != nil {
					log.WithError(err).Warn("response cache write failed")
				}
			}
		})
	}
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

// RequestScheme is the scheme the client used, honouring X-Forwarded-Proto from a proxy.
func RequestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
