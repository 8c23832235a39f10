package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roomly/bookings/internal/domain"
	"github.com/roomly/bookings/internal/http/response"
)

// Register handles new user registration
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.ToUserInfo())
}

// Login handles email/password authentication
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	res, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		// Bad credentials come back as a 401 rather than the 403 the
		// authorization kind normally maps to.
		if errors.Is(err, domain.ErrForbidden) {
			response.Unauthorized(w, "Invalid email or password")
			return
		}
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Refresh exchanges a refresh token for a fresh access token
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.RefreshToken == "" {
		response.BadRequest(w, "refresh_token is required")
		return
	}

	res, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			response.Unauthorized(w, "Invalid refresh token")
			return
		}
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Me returns the authenticated user's profile
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.Sub)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
