package domain

import (
	"strings"
	"time"
)

// RoomMember grants room-level participation beyond the creator. The members
// list is a set keyed by UserID.
type RoomMember struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

type Room struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	ImageURL    string       `json:"image_url"`
	CreatedBy   int64        `json:"created_by"`
	Members     []RoomMember `json:"members"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// RoomPatch enumerates the fields a room update may touch. Nil means leave
// unchanged.
type RoomPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

type AddMemberRequest struct {
	Email string `json:"email"`
}

// RoomDeleteResult summarizes a cascading room deletion so callers can see
// how much was swept away with the room.
type RoomDeleteResult struct {
	RoomID          int64           `json:"room_id"`
	BookingsDeleted int             `json:"bookings_deleted"`
	Cleanup         []*CancelResult `json:"cleanup,omitempty"`
}

func (r *CreateRoomRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
}

func (r *CreateRoomRequest) Validate() error {
	if r.Name == "" {
		return Validationf("room name is required")
	}
	return nil
}

func (r *RoomPatch) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return Validationf("room name cannot be empty")
	}
	return nil
}

// HasMember reports whether userID is already in the member set.
func (r *Room) HasMember(userID int64) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
