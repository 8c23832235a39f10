package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomly/bookings/internal/domain"
	"github.com/roomly/bookings/internal/http/response"
)

// ListRoomBookings handles listing all bookings for a room
func (h *Handlers) ListRoomBookings(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	bookings, err := h.bookingService.ListByRoom(r.Context(), roomID)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}

	writeJSON(w, http.StatusOK, bookings)
}

// CreateRoomBooking handles booking a room for the authenticated user
func (h *Handlers) CreateRoomBooking(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	roomID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body, times must be RFC 3339")
		return
	}

	booking, err := h.bookingService.Create(r.Context(), roomID, claims.Sub, claims.Email, &req)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// ListMyBookings handles listing the caller's participations
func (h *Handlers) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.bookingService.ListForParticipant(r.Context(), claims.Email)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}

	writeJSON(w, http.StatusOK, bookings)
}

// GetBooking handles fetching a single booking
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	booking, err := h.bookingService.Get(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// UpdateBooking handles rescheduling or re-describing a booking.
// Only the booking's owner or an admin may update it.
func (h *Handlers) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var patch domain.BookingPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "Invalid request body, times must be RFC 3339")
		return
	}

	booking, err := h.bookingService.Get(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}
	if !booking.IsOwner(claims.Sub) && claims.Role != "admin" {
		response.Forbidden(w, "Only the booking owner may update it")
		return
	}

	updated, err := h.bookingService.Update(r.Context(), id, patch)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// CancelBooking handles cancellation. The owner, any participant, or an
// admin may cancel.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	booking, err := h.bookingService.Get(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}
	if !booking.IsOwner(claims.Sub) && !booking.HasParticipant(claims.Email) && claims.Role != "admin" {
		response.Forbidden(w, "Only the booking owner or a participant may cancel it")
		return
	}

	result, err := h.bookingService.Cancel(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AddBookingParticipant handles appending a participant email to a booking
func (h *Handlers) AddBookingParticipant(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req domain.AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	booking, err := h.bookingService.Get(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}
	if !booking.IsOwner(claims.Sub) && !booking.HasParticipant(claims.Email) && claims.Role != "admin" {
		response.Forbidden(w, "Only the booking owner or a participant may invite others")
		return
	}

	if err := h.bookingService.AddParticipant(r.Context(), id, req.Email); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
