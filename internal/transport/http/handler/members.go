package handler

import (
	"encoding/json"
	"net/http"

	"github.com/membergate/api/internal/application/member"
	"github.com/membergate/api/internal/application/session"
	"github.com/membergate/api/internal/pkg/validate"
	"github.com/membergate/api/internal/transport/http/middleware"
)

// MemberHandler handles signup, login and account lifecycle endpoints.
type MemberHandler struct {
	members  member.Service
	sessions session.Service
}

func NewMemberHandler(members member.Service, sessions session.Service) *MemberHandler {
	return &MemberHandler{members: members, sessions: sessions}
}

func (h *MemberHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req member.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	m, err := h.members.Signup(r.Context(), req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(m))
}

func (h *MemberHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req member.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	result, err := h.members.Login(r.Context(), req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Member:       toMemberResponse(result.Member),
	})
}

func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}
	m, err := h.members.Get(r.Context(), identity.MemberID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

func (h *MemberHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, token, ok := callerWithToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}
	if err := h.sessions.Logout(r.Context(), token, identity.MemberID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func (h *MemberHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, token, ok := callerWithToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}
	if err := h.members.Withdraw(r.Context(), token, identity.MemberID); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "account withdrawn"})
}

func (h *MemberHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}
	var req member.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	m, err := h.members.ChangePassword(r.Context(), identity.MemberID, req)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

func (h *MemberHandler) ChangeNickname(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
		return
	}
	var req struct {
		Nickname string `json:"nickname" validate:"required,min=2,max=20"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	m, err := h.members.ChangeNickname(r.Context(), identity.MemberID, req.Nickname)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

func callerWithToken(r *http.Request) (*middleware.Identity, string, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil, "", false
	}
	token, ok := middleware.AccessTokenFromContext(r.Context())
	if !ok {
		return nil, "", false
	}
	return identity, token, true
}
