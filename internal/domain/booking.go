package domain

import (
	"strings"
	"time"
)

// Booking holds a room for the half-open interval [StartTime, EndTime).
// Participants are lower-cased emails and always include the creator's.
type Booking struct {
	ID           int64     `json:"id"`
	RoomID       int64     `json:"room_id"`
	UserID       int64     `json:"user_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Description  string    `json:"description"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateBookingRequest struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
}

// BookingPatch enumerates the fields an update may touch. Nil means leave
// unchanged.
type BookingPatch struct {
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description *string    `json:"description,omitempty"`
}

type AddParticipantRequest struct {
	Email string `json:"email"`
}

// ParticipantFailure records a participant whose booking back-reference could
// not be cleaned up during cancellation.
type ParticipantFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// CancelResult reports the per-participant outcome of a cancellation so
// callers can reconcile instead of losing failures silently.
type CancelResult struct {
	BookingID int64                `json:"booking_id"`
	Removed   []string             `json:"removed"`
	Failed    []ParticipantFailure `json:"failed,omitempty"`
}

func (r *CreateBookingRequest) Validate() error {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return Validationf("start and end times are required")
	}
	if !r.StartTime.Before(r.EndTime) {
		return Validationf("end time must be after start time")
	}
	return nil
}

// Overlaps reports whether the booking's interval intersects [start, end).
// Touching endpoints do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// HasParticipant checks participation by normalized email.
func (b *Booking) HasParticipant(email string) bool {
	email = NormalizeEmail(email)
	for _, p := range b.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// IsOwner checks whether the given user created this booking.
func (b *Booking) IsOwner(userID int64) bool {
	return b.UserID == userID
}

// Changed lists the fields a patch would alter, for event payloads.
func (b *Booking) Changed(patch BookingPatch) []string {
	var changes []string
	if patch.StartTime != nil && !patch.StartTime.Equal(b.StartTime) {
		changes = append(changes, "start_time")
	}
	if patch.EndTime != nil && !patch.EndTime.Equal(b.EndTime) {
		changes = append(changes, "end_time")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != b.Description {
		changes = append(changes, "description")
	}
	return changes
}
