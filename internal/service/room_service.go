package service

import (
	"context"
	"time"

	"github.com/roomly/bookings/internal/domain"
	"github.com/roomly/bookings/internal/repository"
	"github.com/roomly/bookings/pkg/events"
	"github.com/roomly/bookings/pkg/logger"
)

type RoomService interface {
	Create(ctx context.Context, req *domain.CreateRoomRequest, ownerID int64) (*domain.Room, error)
	Get(ctx context.Context, id int64) (*domain.Room, error)
	List(ctx context.Context, limit, offset int) ([]domain.Room, error)
	Update(ctx context.Context, id int64, patch domain.RoomPatch) (*domain.Room, error)
	Delete(ctx context.Context, id int64) (*domain.RoomDeleteResult, error)
	AddUser(ctx context.Context, roomID int64, targetEmail string, requesterID int64) error
}

type roomService struct {
	roomRepo    repository.RoomRepository
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	eventBus    events.Publisher
}

func NewRoomService(
	roomRepo repository.RoomRepository,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	eventBus events.Publisher,
) RoomService {
	return &roomService{
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		eventBus:    eventBus,
	}
}

func (s *roomService) Create(ctx context.Context, req *domain.CreateRoomRequest, ownerID int64) (*domain.Room, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	room, err := s.roomRepo.Create(ctx, req, ownerID)
	if err != nil {
		return nil, domain.StoreErr("create room", err)
	}
	return room, nil
}

func (s *roomService) Get(ctx context.Context, id int64) (*domain.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("load room", err)
	}
	if room == nil {
		return nil, domain.NotFoundf("room %d not found", id)
	}
	return room, nil
}

func (s *roomService) List(ctx context.Context, limit, offset int) ([]domain.Room, error) {
	rooms, err := s.roomRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, domain.StoreErr("list rooms", err)
	}
	return rooms, nil
}

func (s *roomService) Update(ctx context.Context, id int64, patch domain.RoomPatch) (*domain.Room, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	room, err := s.roomRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, domain.StoreErr("update room", err)
	}
	if room == nil {
		return nil, domain.NotFoundf("room %d not found", id)
	}
	return room, nil
}

// Delete cascades: every booking on the room is removed first, with the same
// per-participant back-reference sweep a cancellation performs, so no booking
// ever references a nonexistent room.
func (s *roomService) Delete(ctx context.Context, id int64) (*domain.RoomDeleteResult, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("load room", err)
	}
	if room == nil {
		return nil, domain.NotFoundf("room %d not found", id)
	}

	bookings, err := s.bookingRepo.ListByRoom(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("list bookings", err)
	}

	result := &domain.RoomDeleteResult{RoomID: id}
	var notified []string
	for i := range bookings {
		b := &bookings[i]
		cleanup := s.sweepBookingRefs(ctx, b)
		result.Cleanup = append(result.Cleanup, cleanup)

		deleted, err := s.bookingRepo.Delete(ctx, b.ID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to delete booking during room cascade",
				"error", err, "room_id", id, "booking_id", b.ID)
			continue
		}
		if deleted {
			result.BookingsDeleted++
			notified = append(notified, b.Participants...)
		}
	}

	deleted, err := s.roomRepo.Delete(ctx, id)
	if err != nil {
		return nil, domain.StoreErr("delete room", err)
	}
	if !deleted {
		return nil, domain.NotFoundf("room %d not found", id)
	}

	event := events.RoomDeletedEvent{
		RoomID:          id,
		RoomName:        room.Name,
		BookingsDeleted: result.BookingsDeleted,
		NotifiedEmails:  notified,
		DeletedAt:       time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.RoomDeleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish room deleted event", "error", err, "room_id", id)
	}

	return result, nil
}

// AddUser adds the user with targetEmail to the room's member set. The
// requester must be an admin, or appear in the participants of at least one
// booking on the room. Adding an existing member is a no-op.
func (s *roomService) AddUser(ctx context.Context, roomID int64, targetEmail string, requesterID int64) error {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return domain.StoreErr("load requester", err)
	}
	if requester == nil {
		return domain.NotFoundf("requester %d not found", requesterID)
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return domain.StoreErr("load room", err)
	}
	if room == nil {
		return domain.NotFoundf("room %d not found", roomID)
	}

	authorized := requester.IsAdmin()
	if !authorized {
		authorized, err = s.bookingRepo.ExistsForRoomWithParticipant(ctx, roomID, domain.NormalizeEmail(requester.Email))
		if err != nil {
			return domain.StoreErr("check room participation", err)
		}
	}
	if !authorized {
		return domain.Forbiddenf("requester may not add members to this room")
	}

	target, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(targetEmail))
	if err != nil {
		return domain.StoreErr("resolve member email", err)
	}
	if target == nil {
		return domain.NotFoundf("user not found")
	}

	added, err := s.roomRepo.AddMember(ctx, roomID, domain.RoomMember{UserID: target.ID, Role: target.Role})
	if err != nil {
		return domain.StoreErr("add member", err)
	}
	if !added {
		// Already a member. Set semantics make the second add a no-op.
		return nil
	}

	event := events.RoomMemberAddedEvent{
		RoomID:      roomID,
		RoomName:    room.Name,
		MemberID:    target.ID,
		MemberEmail: target.Email,
		AddedAt:     time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.RoomMemberAdded, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish room member added event", "error", err, "room_id", roomID)
	}

	return nil
}

// sweepBookingRefs mirrors the cancellation cleanup for cascade deletion.
func (s *roomService) sweepBookingRefs(ctx context.Context, b *domain.Booking) *domain.CancelResult {
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
		if removed {
			result.Removed = append(result.Removed, email)
		}
	}

	return result
}
