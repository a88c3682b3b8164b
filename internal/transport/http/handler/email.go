package handler

import (
	"encoding/json"
	"net/http"

	"github.com/membergate/api/internal/application/verification"
	"github.com/membergate/api/internal/pkg/validate"
)

// EmailHandler handles the email verification flow.
type EmailHandler struct {
	svc verification.Service
}

func NewEmailHandler(svc verification.Service) *EmailHandler {
	return &EmailHandler{svc: svc}
}

type sendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (h *EmailHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := h.svc.RequestCode(r.Context(), req.Email); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

// VerifyCode checks the submitted code and, on success, marks the address
// verified for the signup window.
func (h *EmailHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := h.svc.CheckCode(r.Context(), req.Email, req.Code); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	if err := h.svc.MarkVerified(r.Context(), req.Email); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified"})
}
