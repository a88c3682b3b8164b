package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/membergate/api/internal/domain"
)

type contextKey string

const (
	identityKey    contextKey = "identity"
	accessTokenKey contextKey = "access_token"
)

// Identity is the caller established by the auth pipeline.
type Identity struct {
	MemberID int64
	Email    string
	Nickname string
}

// TokenVerifier is the codec surface the pipeline needs.
type TokenVerifier interface {
	Verify(token string) bool
	MemberID(token string) (int64, error)
}

// BlacklistChecker answers whether an access token was revoked.
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, accessToken string) (bool, error)
}

// MemberLoader resolves the caller's attributes from the member store.
type MemberLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
}

// Authenticate is the ordered request authentication pipeline:
//
//  1. extract the bearer token; absence (or a malformed prefix) means the
//     request proceeds as anonymous, never an error
//  2. reject blacklisted tokens with a hard 401 before any signature check —
//     a revoked token must never authenticate no matter how valid it looks
//  3. validate the token and load the member; on success attach the identity
//     to the request context, on failure continue as anonymous
//
// A store outage fails closed: the request is denied rather than silently
// downgraded to anonymous.
func Authenticate(codec TokenVerifier, sessions BlacklistChecker, members MemberLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			blacklisted, err := sessions.IsBlacklisted(r.Context(), tokenStr)
			if err != nil {
				slog.Error("blacklist check failed", "trace_id", TraceIDFromContext(r.Context()), "err", err)
				writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "session store unavailable")
				return
			}
			if blacklisted {
				slog.Warn("blacklisted token rejected", "trace_id", TraceIDFromContext(r.Context()))
				writeJSONError(w, http.StatusUnauthorized, "blacklisted_token", "This token has been logged out.")
				return
			}

			if !codec.Verify(tokenStr) {
				next.ServeHTTP(w, r)
				return
			}
			memberID, err := codec.MemberID(tokenStr)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			m, err := members.GetByID(r.Context(), memberID)
			if errors.Is(err, domain.ErrNotFound) {
				// account withdrawn after the token was issued
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("member load failed", "trace_id", TraceIDFromContext(r.Context()), "member_id", memberID, "err", err)
				writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "member store unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, &Identity{
				MemberID: m.ID,
				Email:    m.Email,
				Nickname: m.Nickname,
			})
			ctx = context.WithValue(ctx, accessTokenKey, tokenStr)
			slog.Info("caller authenticated", "trace_id", TraceIDFromContext(ctx), "member_id", m.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous callers. It runs after Authenticate on routes
// that need an established identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext extracts the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// AccessTokenFromContext returns the raw bearer token the caller presented.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(accessTokenKey).(string)
	return t, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
