package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomly/bookings/internal/domain"
	"github.com/roomly/bookings/internal/http/response"
)

// ListRooms handles listing all rooms
func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	rooms, err := h.roomService.List(r.Context(), limit, offset)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}

	writeJSON(w, http.StatusOK, rooms)
}

// CreateRoom handles room creation (admin only, enforced by the route)
func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	room, err := h.roomService.Create(r.Context(), &req, claims.Sub)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// GetRoom handles fetching a single room
func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	room, err := h.roomService.Get(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// UpdateRoom handles merge-patching a room
func (h *Handlers) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var patch domain.RoomPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	room, err := h.roomService.Update(r.Context(), id, patch)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// DeleteRoom handles cascading room deletion
func (h *Handlers) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	result, err := h.roomService.Delete(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AddRoomMember handles adding a user to a room's member set
func (h *Handlers) AddRoomMember(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req domain.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if !domain.IsValidEmail(domain.NormalizeEmail(req.Email)) {
		response.BadRequest(w, "Invalid email format")
		return
	}

	if err := h.roomService.AddUser(r.Context(), id, req.Email, claims.Sub); err != nil {
		response.WriteDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
