package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/sakif/heartline/internal/model"
)

// TokenCookie is the cookie name set at login and read as a fallback.
const TokenCookie = "token"

// contextKey is unexported so no other package can read or overwrite our value.
type contextKey string

const principalKey contextKey = "principal"

// RequireAuth rejects requests without a valid token with 401 and otherwise
// stores the caller's model.Principal in the request context.
//
// The Authorization header is checked first; the "token" cookie is a fallback
// for browser clients.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := extractPrincipal(r, tokens)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole only lets principals with one of the roles through (403 otherwise).
// It must run after RequireAuth.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if !slices.Contains(roles, p.Role) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "this action is not available for your role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BootstrapHeader carries the ADMIN_REGISTRATION_TOKEN on admin registration.
const BootstrapHeader = "X-Admin-Registration-Token"

// RequireAdminOrBootstrap admits an authenticated admin, or any caller that
// presents the bootstrap secret in BootstrapHeader. An empty secret disables
// the bootstrap path. Anonymous callers get 401, wrong secrets and other
// roles get 403.
func RequireAdminOrBootstrap(tokens *TokenService, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if presented := r.Header.Get(BootstrapHeader); presented != "" {
				if secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
					writeAuthError(w, http.StatusForbidden, "forbidden", "invalid admin registration token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			p, err := extractPrincipal(r, tokens)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "admin registration requires an admin token or the registration secret")
				return
			}
			if p.Role != model.RoleAdmin {
				writeAuthError(w, http.StatusForbidden, "forbidden", "only admins can register admins")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated caller, or false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok && p.ID != ""
}

func extractPrincipal(r *http.Request, tokens *TokenService) (model.Principal, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return model.Principal{}, errors.New("auth: malformed Authorization header")
		}
		return tokens.Validate(strings.TrimSpace(token))
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return model.Principal{}, err
	}
	return tokens.Validate(cookie.Value)
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
