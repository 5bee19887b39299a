package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/sirupsen/logrus"
)

const accessTokenCookie = "access_token"

type principalContextKey struct{}

// TokenValidator turns a bearer token into the acting principal.
type TokenValidator interface {
	ValidateAccessToken(token string) (*entity.Principal, error)
}

func WithPrincipal(ctx context.Context, principal entity.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFrom returns the zero principal for anonymous requests.
func PrincipalFrom(ctx context.Context) entity.Principal {
	principal, _ := ctx.Value(principalContextKey{}).(entity.Principal)
	return principal
}

// Authenticate attaches the principal of a valid token to the request context.
// Requests without a token or with an invalid one continue anonymously.
func Authenticate(validator TokenValidator, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := validator.ValidateAccessToken(token)
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Debug("rejected access token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), *principal)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// RequirePrincipal answers 401 for anonymous requests.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFrom(r.Context()).Authenticated() {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLogin redirects anonymous requests to the login page with a returnUrl.
func RequireLogin(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFrom(r.Context()).Authenticated() {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, LoginRedirect(loginURL, r.URL.RequestURI()), http.StatusSeeOther)
		})
	}
}

func LoginRedirect(loginURL, returnURL string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "returnUrl=" + url.QueryEscape(returnURL)
}
