package service

import (
	"context"
	"errors"
	"time"

	"github.com/roomly/bookings/internal/domain"
	"github.com/roomly/bookings/internal/repository"
	"github.com/roomly/bookings/pkg/events"
	"github.com/roomly/bookings/pkg/logger"
)

type BookingService interface {
	Create(ctx context.Context, roomID, userID int64, email string, req *domain.CreateBookingRequest) (*domain.Booking, error)
	Get(ctx context.Context, id int64) (*domain.Booking, error)
	ListByRoom(ctx context.Context, roomID int64) ([]domain.Booking, error)
	ListForParticipant(ctx context.Context, email string) ([]domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) (*domain.CancelResult, error)
	AddParticipant(ctx context.Context, id int64, email string) error
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
	eventBus    events.Publisher
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	eventBus events.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		eventBus:    eventBus,
	}
}

// Create admits a booking for the room iff its half-open interval
// [start, end) does not intersect any existing booking on that room. The
// check here is not atomic with the insert; the store's exclusion constraint
// closes the race and surfaces as the same conflict error.
func (s *bookingService) Create(ctx context.Context, roomID, userID int64, email string, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, domain.StoreErr("load room", err)
	}
	if room == nil {
		return nil, domain.NotFoundf("room %d not found", roomID)
	}

	overlapping, err := s.bookingRepo.ListOverlapping(ctx, roomID, req.StartTime, req.EndTime, 0)
	if err != nil {
		return nil, domain.StoreErr("check conflicts", err)
	}
	if len(overlapping) > 0 {
		return nil, domain.Conflictf("time conflict detected")
	}

	booking := &domain.Booking{
		RoomID:       roomID,
		UserID:       userID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Description:  req.Description,
		Participants: []string{domain.NormalizeEmail(email)},
	}

	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, domain.StoreErr("create booking", err)
	}

	// Back-reference on the creator's profile is best-effort: the booking
	// stands even if this write fails.
	if err := s.userRepo.AddBookingRef(ctx, userID, created.ID); err != nil {
		logger.WarnContext(ctx, "Failed to register booking on user profile",
			"error", err, "booking_id", created.ID, "user_id", userID)
	}

	event := events.BookingCreatedEvent{
		BookingID:    created.ID,
		RoomID:       created.RoomID,
		RoomName:     room.Name,
		OwnerEmail:   created.Participants[0],
		StartTime:    created.StartTime,
		EndTime:      created.EndTime,
		Description:  created.Description,
		Participants: created.Participants,
		CreatedAt:    created.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", created.ID)
	}

	return created, nil
}

func (s *bookingService) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("load booking", err)
	}
	if booking == nil {
		return nil, domain.NotFoundf("booking %d not found", id)
	}
	return booking, nil
}

func (s *bookingService) ListByRoom(ctx context.Context, roomID int64) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, domain.StoreErr("list bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) ListForParticipant(ctx context.Context, email string) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListByParticipant(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, domain.StoreErr("list bookings", err)
	}
	return bookings, nil
}

// Update re-validates the overlap invariant against the effective interval,
// excluding the booking's own prior state.
func (s *bookingService) Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	existing, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("load booking", err)
	}
	if existing == nil {
		return nil, domain.NotFoundf("booking %d not found", id)
	}

	start, end := existing.StartTime, existing.EndTime
	if patch.StartTime != nil {
		start = *patch.StartTime
	}
	if patch.EndTime != nil {
		end = *patch.EndTime
	}
	if !start.Before(end) {
		return nil, domain.Validationf("end time must be after start time")
	}

	if patch.StartTime != nil || patch.EndTime != nil {
		overlapping, err := s.bookingRepo.ListOverlapping(ctx, existing.RoomID, start, end, id)
		if err != nil {
			return nil, domain.StoreErr("check conflicts", err)
		}
		if len(overlapping) > 0 {
			return nil, domain.Conflictf("time conflict detected")
		}
	}

	updated, err := s.bookingRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, domain.StoreErr("update booking", err)
	}
	if updated == nil {
		return nil, domain.NotFoundf("booking %d not found", id)
	}

	if changes := existing.Changed(patch); len(changes) > 0 {
		event := events.BookingUpdatedEvent{
			BookingID:    updated.ID,
			RoomID:       updated.RoomID,
			Changes:      changes,
			StartTime:    updated.StartTime,
			EndTime:      updated.EndTime,
			Participants: updated.Participants,
			UpdatedAt:    updated.UpdatedAt,
		}
		if err := s.eventBus.Publish(ctx, events.BookingUpdated, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish booking updated event", "error", err, "booking_id", updated.ID)
		}
	}

	return updated, nil
}

// Cancel removes the booking and sweeps its id out of each participant's
// bookings list. Each per-participant update is best-effort: failures land in
// the result instead of aborting the cancellation.
func (s *bookingService) Cancel(ctx context.Context, id int64) (*domain.CancelResult, error) {
	existing, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("load booking", err)
	}
	if existing == nil {
		return nil, domain.NotFoundf("booking %d not found", id)
	}

	result := s.removeParticipantRefs(ctx, existing)

	deleted, err := s.bookingRepo.Delete(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("delete booking", err)
	}
	if !deleted {
		return nil, domain.NotFoundf("booking %d not found", id)
	}

	event := events.BookingCanceledEvent{
		BookingID:    existing.ID,
		RoomID:       existing.RoomID,
		StartTime:    existing.StartTime,
		EndTime:      existing.EndTime,
		Participants: existing.Participants,
		CanceledAt:   time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingCanceled, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", existing.ID)
	}

	return result, nil
}

// AddParticipant appends a lower-cased email to the booking's participant
// set. Adding an email that is already present is a no-op.
func (s *bookingService) AddParticipant(ctx context.Context, id int64, email string) error {
	email = domain.NormalizeEmail(email)
	if !domain.IsValidEmail(email) {
		return domain.Validationf("invalid email format")
	}

	existing, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return domain.StoreErr("load booking", err)
	}
	if existing == nil {
		return domain.NotFoundf("booking %d not found", id)
	}
	if existing.HasParticipant(email) {
		return nil
	}

	if _, err := s.bookingRepo.AddParticipant(ctx, id, email); err != nil {
		return domain.StoreErr("add participant", err)
	}

	event := events.BookingParticipantAddedEvent{
		BookingID:        existing.ID,
		RoomID:           existing.RoomID,
		ParticipantEmail: email,
		StartTime:        existing.StartTime,
		EndTime:          existing.EndTime,
		AddedAt:          time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.BookingParticipantAdded, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish participant added event", "error", err, "booking_id", existing.ID)
	}

	return nil
}

// removeParticipantRefs drops the booking id from each participant's
// bookings list. Participants without a user record (invited by email only)
// have no back-reference and are skipped.
func (s *bookingService) removeParticipantRefs(ctx context.Context, b *domain.Booking) *domain.CancelResult {
	result := &domain.CancelResult{BookingID: b.ID}

	for _, email := range b.Participants {
		removed, err := s.userRepo.RemoveBookingRefByEmail(ctx, email, b.ID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to remove booking from user profile",
				"error", err, "booking_id", b.ID, "participant", email)
			result.Failed = append(result.Failed, domain.ParticipantFailure{
				Email:  email,
				Reason: err.Error(),
			})
			continue
		}
		if !removed {
			logger.DebugContext(ctx, "No user record for participant",
				"booking_id", b.ID, "participant", email)
			continue
		}
		result.Removed = append(result.Removed, email)
	}

	return result
}
