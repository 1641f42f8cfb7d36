package middleware

import (
	"context"
	"net/http"
	"strings"

	"appraisal/internal/domain/auth"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
)

type ctxKey string

const ctxKeySession ctxKey = "session"

// Authenticator resolves a bearer token into a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Session, error)
}

// Auth attaches the session for a valid bearer token. Requests without one
// continue anonymously; RequireAuth decides whether that is allowed.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			session, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			requestctx.SetOrgID(r.Context(), session.OrgID)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, session auth.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, session)
}

func GetSession(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(ctxKeySession).(auth.Session)
	return session, ok
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
