package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is package-private so no other package can read or shadow the
// subject stored in a request context.
type contextKey string

const subjectKey contextKey = "subject"

// CookieName is checked when the request has no Authorization header, so a
// browser holding the token in a cookie can use the HTML pages' refresh form.
const CookieName = "token"

// RequireAuth rejects requests without a valid token with 401 and stores the
// token's subject in the context of those it lets through.
//
// A nil TokenService disables the check entirely; that's how the server runs
// when JWT_SECRET is unset.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := extractSubject(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="github-users"`)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated subject, or ("", false) for
// an anonymous request.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok && s != ""
}

// extractSubject prefers "Authorization: Bearer <jwt>" and falls back to the
// token cookie.
func extractSubject(r *http.Request, tokens *TokenService) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", errMalformedHeader
		}
		return tokens.Validate(strings.TrimSpace(token))
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
