package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/ncobase/ncore/net/cookie"
	"github.com/sirupsen/logrus"
)

const (
	// CSRFFieldName is the hidden form field carrying the token back.
	CSRFFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

type csrfContextKey struct{}

// CSRFTokenFrom returns the token that forms on the current page must echo.
func CSRFTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey{}).(string)
	return token
}

// VerifyCSRF issues a token cookie on first visit and requires every state-changing
// request to send the same value in the csrf_token form field or X-CSRF-Token header.
// Mismatches are answered with 403.
func VerifyCSRF(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cookie.GetCSRFToken(r)
			if err != nil {
				token = ""
			}

			if !safeMethod(r.Method) {
				sent := r.Header.Get(csrfHeaderName)
				if sent == "" {
					sent = r.FormValue(CSRFFieldName)
				}
				if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sent)) != 1 {
					log.WithFields(logrus.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
					}).Warn("csrf token mismatch")
					http.Error(w, "invalid CSRF token", http.StatusForbidden)
					return
				}
			}

			if token == "" {
				token = uuid.NewString()
				if err := cookie.SetCSRFToken(w, token); err != nil {
					log.WithError(err).Error("failed to issue csrf token")
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
