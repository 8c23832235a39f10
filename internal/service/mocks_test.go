package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/roomly/bookings/internal/domain"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID    int64
	users     map[int64]*domain.User
	byEmail   map[string]int64
	removeErr error // forced error for RemoveBookingRefByEmail
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		nextID:  1,
		users:   make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
	}
}

func (m *mockUserRepo) add(email, role string) *domain.User {
	user := &domain.User{
		ID:        m.nextID,
		Role:      role,
		Email:     domain.NormalizeEmail(email),
		Name:      "Test User",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	m.nextID++
	return user
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	user := m.add(req.Email, req.Role)
	user.Name = req.Name
	user.PasswordHash = passwordHash
	return user, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	id, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return m.users[id], nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (m *mockUserRepo) AddBookingRef(_ context.Context, userID, bookingID int64) error {
	user, ok := m.users[userID]
	if !ok {
		return nil
	}
	for _, id := range user.Bookings {
		if id == bookingID {
			return nil
		}
	}
	user.Bookings = append(user.Bookings, bookingID)
	return nil
}

func (m *mockUserRepo) RemoveBookingRefByEmail(_ context.Context, email string, bookingID int64) (bool, error) {
	if m.removeErr != nil {
		return false, m.removeErr
	}
	id, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return false, nil
	}
	user := m.users[id]
	kept := user.Bookings[:0]
	for _, b := range user.Bookings {
		if b != bookingID {
			kept = append(kept, b)
		}
	}
	user.Bookings = kept
	return true, nil
}

type mockRoomRepo struct {
	nextID int64
	rooms  map[int64]*domain.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{
		nextID: 1,
		rooms:  make(map[int64]*domain.Room),
	}
}

func (m *mockRoomRepo) add(name string, ownerID int64) *domain.Room {
	room := &domain.Room{
		ID:        m.nextID,
		Name:      name,
		CreatedBy: ownerID,
		Members:   []domain.RoomMember{{UserID: ownerID, Role: domain.RoleAdmin}},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.rooms[room.ID] = room
	m.nextID++
	return room
}

func (m *mockRoomRepo) Create(_ context.Context, req *domain.CreateRoomRequest, ownerID int64) (*domain.Room, error) {
	room := m.add(req.Name, ownerID)
	room.Description = req.Description
	room.ImageURL = req.ImageURL
	return room, nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id int64) (*domain.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, nil
	}
	return room, nil
}

func (m *mockRoomRepo) List(_ context.Context, limit, offset int) ([]domain.Room, error) {
	var rooms []domain.Room
	for _, room := range m.rooms {
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (m *mockRoomRepo) Update(_ context.Context, id int64, patch domain.RoomPatch) (*domain.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		room.Name = *patch.Name
	}
	if patch.Description != nil {
		room.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		room.ImageURL = *patch.ImageURL
	}
	room.UpdatedAt = time.Now()
	return room, nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.rooms[id]; !ok {
		return false, nil
	}
	delete(m.rooms, id)
	return true, nil
}

func (m *mockRoomRepo) AddMember(_ context.Context, roomID int64, member domain.RoomMember) (bool, error) {
	room, ok := m.rooms[roomID]
	if !ok {
		return false, nil
	}
	if room.HasMember(member.UserID) {
		return false, nil
	}
	room.Members = append(room.Members, member)
	return true, nil
}

type mockBookingRepo struct {
	nextID   int64
	bookings map[int64]*domain.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{
		nextID:   1,
		bookings: make(map[int64]*domain.Booking),
	}
}

func (m *mockBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	stored := *b
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.bookings[stored.ID] = &stored
	m.nextID++
	return &stored, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (m *mockBookingRepo) ListByRoom(_ context.Context, roomID int64) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockBookingRepo) ListByParticipant(_ context.Context, email string) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range m.bookings {
		if b.HasParticipant(email) {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockBookingRepo) ListOverlapping(_ context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range m.bookings {
		if b.RoomID != roomID || b.ID == excludeID {
			continue
		}
		if b.Overlaps(start, end) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) Update(_ context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	if patch.StartTime != nil {
		b.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		b.EndTime = *patch.EndTime
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	b.UpdatedAt = time.Now()
	return b, nil
}

func (m *mockBookingRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := m.bookings[id]; !ok {
		return false, nil
	}
	delete(m.bookings, id)
	return true, nil
}

func (m *mockBookingRepo) AddParticipant(_ context.Context, id int64, email string) (bool, error) {
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	email = domain.NormalizeEmail(email)
	if b.HasParticipant(email) {
		return false, nil
	}
	b.Participants = append(b.Participants, email)
	return true, nil
}

func (m *mockBookingRepo) ExistsForRoomWithParticipant(_ context.Context, roomID int64, email string) (bool, error) {
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.HasParticipant(email) {
			return true, nil
		}
	}
	return false, nil
}

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	published []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.published = append(m.published, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	var subjects []string
	for _, e := range m.published {
		subjects = append(subjects, e.subject)
	}
	return subjects
}
