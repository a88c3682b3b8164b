package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/membergate/api/internal/domain"
	"github.com/membergate/api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic success wrapper.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ErrorEnvelope is the standard error body: a stable machine-readable code
// plus human text.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MemberResponse is the public view of a member.
type MemberResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthEnvelope wraps login responses.
type AuthEnvelope struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Member       *MemberResponse `json:"member"`
}

func toMemberResponse(m *domain.Member) *MemberResponse {
	return &MemberResponse{
		ID:        m.ID,
		Email:     m.Email,
		Nickname:  m.Nickname,
		CreatedAt: m.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: code, Message: msg})
}

// writeDomainError maps service errors to HTTP statuses and stable error
// codes. Token-protocol failures keep the codes the clients key off of;
// everything unrecognised becomes an opaque 500 without internal detail.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTokenBlacklisted):
		writeError(w, http.StatusUnauthorized, "blacklisted_token", "This token has been logged out.")
	case errors.Is(err, domain.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "invalid_token", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrCooldownActive):
		writeError(w, http.StatusTooManyRequests, "too_many_requests", "verification code already sent; wait before retrying")
	case errors.Is(err, domain.ErrCodeInvalid):
		writeError(w, http.StatusBadRequest, "invalid_code", "verification code is missing, expired or wrong")
	case errors.Is(err, domain.ErrEmailNotVerified):
		writeError(w, http.StatusBadRequest, "email_not_verified", "verify the email address before signing up")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrMailDelivery):
		writeError(w, http.StatusBadGateway, "mail_delivery_failed", "could not deliver the verification email")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "session store unavailable")
	default:
		slog.Error("unhandled error", "trace_id", middleware.TraceIDFromContext(ctx), "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
