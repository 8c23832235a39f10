package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roomly/bookings/internal/domain"
	"github.com/roomly/bookings/internal/http/handlers"
	"github.com/roomly/bookings/internal/service"
	"github.com/roomly/bookings/pkg/auth"
	"github.com/roomly/bookings/pkg/config"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID  int64
	users   map[int64]*domain.User
	byEmail map[string]int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: make(map[int64]*domain.User), byEmail: make(map[string]int64)}
}

func (m *mockUserRepo) add(email, role string) *domain.User {
	user := &domain.User{ID: m.nextID, Role: role, Email: domain.NormalizeEmail(email), Name: "Test User"}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	m.nextID++
	return user
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, hash string) (*domain.User, error) {
	user := m.add(req.Email, req.Role)
	user.Name = req.Name
	user.PasswordHash = hash
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
	return m.users[id], nil
}

func (m *mockUserRepo) AddBookingRef(_ context.Context, userID, bookingID int64) error {
	if user, ok := m.users[userID]; ok {
		user.Bookings = append(user.Bookings, bookingID)
	}
	return nil
}

func (m *mockUserRepo) RemoveBookingRefByEmail(_ context.Context, email string, bookingID int64) (bool, error) {
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
	return &mockRoomRepo{nextID: 1, rooms: make(map[int64]*domain.Room)}
}

func (m *mockRoomRepo) add(name string, ownerID int64) *domain.Room {
	room := &domain.Room{
		ID:        m.nextID,
		Name:      name,
		CreatedBy: ownerID,
		Members:   []domain.RoomMember{{UserID: ownerID, Role: domain.RoleAdmin}},
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
	return m.rooms[id], nil
}

func (m *mockRoomRepo) List(_ context.Context, limit, offset int) ([]domain.Room, error) {
	var rooms []domain.Room
	for _, room := range m.rooms {
		rooms = append(rooms, *room)
	}
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
	if !ok || room.HasMember(member.UserID) {
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
	return &mockBookingRepo{nextID: 1, bookings: make(map[int64]*domain.Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	stored := *b
	stored.ID = m.nextID
	m.bookings[stored.ID] = &stored
	m.nextID++
	return &stored, nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	return m.bookings[id], nil
}

func (m *mockBookingRepo) ListByRoom(_ context.Context, roomID int64) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListByParticipant(_ context.Context, email string) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range m.bookings {
		if b.HasParticipant(email) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListOverlapping(_ context.Context, roomID int64, start, end time.Time, excludeID int64) ([]domain.Booking, error) {
	var result []domain.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.ID != excludeID && b.Overlaps(start, end) {
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
	if !ok || b.HasParticipant(email) {
		return false, nil
	}
	b.Participants = append(b.Participants, domain.NormalizeEmail(email))
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

type mockPublisher struct{}

func (m *mockPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (m *mockPublisher) Close() error                                       { return nil }

// ---------- Test Setup ----------

const testSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *mockUserRepo, *mockRoomRepo, *mockBookingRepo) {
	t.Helper()

	userRepo := newMockUserRepo()
	roomRepo := newMockRoomRepo()
	bookingRepo := newMockBookingRepo()
	bus := &mockPublisher{}

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       testSecret,
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}

	h := handlers.New(
		service.NewAuthService(userRepo, cfg),
		service.NewRoomService(roomRepo, bookingRepo, userRepo, bus),
		service.NewBookingService(bookingRepo, roomRepo, userRepo, bus),
		cfg,
	)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.With(h.RequireJWT).Get("/me", h.Me)
	})
	r.Route("/rooms", func(r chi.Router) {
		r.Use(h.RequireJWT)
		r.Get("/", h.ListRooms)
		r.With(h.RequireAdmin).Post("/", h.CreateRoom)
		r.Get("/{id}", h.GetRoom)
		r.With(h.RequireAdmin).Patch("/{id}", h.UpdateRoom)
		r.With(h.RequireAdmin).Delete("/{id}", h.DeleteRoom)
		r.Post("/{id}/members", h.AddRoomMember)
		r.Get("/{id}/bookings", h.ListRoomBookings)
		r.Post("/{id}/bookings", h.CreateRoomBooking)
	})
	r.Route("/bookings", func(r chi.Router) {
		r.Use(h.RequireJWT)
		r.Get("/", h.ListMyBookings)
		r.Get("/{id}", h.GetBooking)
		r.Patch("/{id}", h.UpdateBooking)
		r.Delete("/{id}", h.CancelBooking)
		r.Post("/{id}/participants", h.AddBookingParticipant)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, userRepo, roomRepo, bookingRepo
}

func tokenFor(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, url, token string, body interface{}, wantStatus int) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	return resp
}

func slot(hour int) (time.Time, time.Time) {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(hour) * time.Hour), day.Add(time.Duration(hour+1) * time.Hour)
}

// ---------- Tests ----------

func TestRegisterAndLogin_Flow(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	register := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "correct-horse"}
	resp := doJSON(t, http.MethodPost, server.URL+"/auth/register", "", register, http.StatusCreated)
	resp.Body.Close()

	login := map[string]string{"email": "alice@example.com", "password": "correct-horse"}
	resp = doJSON(t, http.MethodPost, server.URL+"/auth/login", "", login, http.StatusOK)
	var loginResult domain.LoginResponse
	json.NewDecoder(resp.Body).Decode(&loginResult)
	resp.Body.Close()

	if loginResult.AccessToken == "" {
		t.Fatal("Expected an access token")
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/auth/me", loginResult.AccessToken, nil, http.StatusOK)
	var me domain.User
	json.NewDecoder(resp.Body).Decode(&me)
	resp.Body.Close()

	if me.Email != "alice@example.com" {
		t.Fatalf("Wrong profile: %+v", me)
	}
}

func TestLogin_BadPassword_Unauthorized(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	register := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "correct-horse"}
	doJSON(t, http.MethodPost, server.URL+"/auth/register", "", register, http.StatusCreated).Body.Close()

	login := map[string]string{"email": "alice@example.com", "password": "wrong"}
	doJSON(t, http.MethodPost, server.URL+"/auth/login", "", login, http.StatusUnauthorized).Body.Close()
}

func TestRooms_RequireAuth(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	doJSON(t, http.MethodGet, server.URL+"/rooms/", "", nil, http.StatusUnauthorized).Body.Close()
}

func TestCreateRoom_AdminOnly(t *testing.T) {
	server, userRepo, _, _ := setupTestServer(t)

	user := userRepo.add("user@example.com", domain.RoleUser)
	admin := userRepo.add("admin@example.com", domain.RoleAdmin)

	body := map[string]string{"name": "Boardroom"}
	doJSON(t, http.MethodPost, server.URL+"/rooms/", tokenFor(t, user), body, http.StatusForbidden).Body.Close()

	resp := doJSON(t, http.MethodPost, server.URL+"/rooms/", tokenFor(t, admin), body, http.StatusCreated)
	var room domain.Room
	json.NewDecoder(resp.Body).Decode(&room)
	resp.Body.Close()

	if room.Name != "Boardroom" || !room.HasMember(admin.ID) {
		t.Fatalf("Unexpected room: %+v", room)
	}
}

func TestCreateBooking_ConflictStatus(t *testing.T) {
	server, userRepo, roomRepo, _ := setupTestServer(t)

	user := userRepo.add("user@example.com", domain.RoleUser)
	roomRepo.add("Boardroom", user.ID)
	token := tokenFor(t, user)
	url := server.URL + "/rooms/1/bookings"

	start, end := slot(10)
	body := map[string]interface{}{"start_time": start, "end_time": end, "description": "standup"}
	resp := doJSON(t, http.MethodPost, url, token, body, http.StatusCreated)
	var created domain.Booking
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if len(created.Participants) != 1 || created.Participants[0] != "user@example.com" {
		t.Fatalf("Creator not a participant: %v", created.Participants)
	}

	// Same slot again: 409.
	doJSON(t, http.MethodPost, url, token, body, http.StatusConflict).Body.Close()

	// Inverted interval: 400.
	bad := map[string]interface{}{"start_time": end, "end_time": start}
	doJSON(t, http.MethodPost, url, token, bad, http.StatusBadRequest).Body.Close()
}

func TestUpdateBooking_OwnerOnly(t *testing.T) {
	server, userRepo, roomRepo, _ := setupTestServer(t)

	owner := userRepo.add("owner@example.com", domain.RoleUser)
	other := userRepo.add("other@example.com", domain.RoleUser)
	roomRepo.add("Boardroom", owner.ID)

	start, end := slot(10)
	body := map[string]interface{}{"start_time": start, "end_time": end}
	resp := doJSON(t, http.MethodPost, server.URL+"/rooms/1/bookings", tokenFor(t, owner), body, http.StatusCreated)
	var booking domain.Booking
	json.NewDecoder(resp.Body).Decode(&booking)
	resp.Body.Close()

	patch := map[string]string{"description": "moved"}
	doJSON(t, http.MethodPatch, server.URL+"/bookings/1", tokenFor(t, other), patch, http.StatusForbidden).Body.Close()
	doJSON(t, http.MethodPatch, server.URL+"/bookings/1", tokenFor(t, owner), patch, http.StatusOK).Body.Close()
}

func TestCancelBooking_ParticipantAllowed(t *testing.T) {
	server, userRepo, roomRepo, bookingRepo := setupTestServer(t)

	owner := userRepo.add("owner@example.com", domain.RoleUser)
	participant := userRepo.add("guest@example.com", domain.RoleUser)
	roomRepo.add("Boardroom", owner.ID)

	start, end := slot(10)
	body := map[string]interface{}{"start_time": start, "end_time": end}
	doJSON(t, http.MethodPost, server.URL+"/rooms/1/bookings", tokenFor(t, owner), body, http.StatusCreated).Body.Close()

	invite := map[string]string{"email": participant.Email}
	doJSON(t, http.MethodPost, server.URL+"/bookings/1/participants", tokenFor(t, owner), invite, http.StatusNoContent).Body.Close()

	resp := doJSON(t, http.MethodDelete, server.URL+"/bookings/1", tokenFor(t, participant), nil, http.StatusOK)
	var result domain.CancelResult
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()

	if result.BookingID != 1 {
		t.Fatalf("Unexpected result: %+v", result)
	}
	if len(bookingRepo.bookings) != 0 {
		t.Fatal("Booking not deleted")
	}
}

func TestCancelBooking_StrangerForbidden(t *testing.T) {
	server, userRepo, roomRepo, _ := setupTestServer(t)

	owner := userRepo.add("owner@example.com", domain.RoleUser)
	stranger := userRepo.add("stranger@example.com", domain.RoleUser)
	roomRepo.add("Boardroom", owner.ID)

	start, end := slot(10)
	body := map[string]interface{}{"start_time": start, "end_time": end}
	doJSON(t, http.MethodPost, server.URL+"/rooms/1/bookings", tokenFor(t, owner), body, http.StatusCreated).Body.Close()

	doJSON(t, http.MethodDelete, server.URL+"/bookings/1", tokenFor(t, stranger), nil, http.StatusForbidden).Body.Close()
}

func TestAddRoomMember_ForbiddenMapsTo403(t *testing.T) {
	server, userRepo, roomRepo, _ := setupTestServer(t)

	admin := userRepo.add("admin@example.com", domain.RoleAdmin)
	outsider := userRepo.add("outsider@example.com", domain.RoleUser)
	userRepo.add("target@example.com", domain.RoleUser)
	roomRepo.add("Boardroom", admin.ID)

	body := map[string]string{"email": "target@example.com"}
	doJSON(t, http.MethodPost, server.URL+"/rooms/1/members", tokenFor(t, outsider), body, http.StatusForbidden).Body.Close()
	doJSON(t, http.MethodPost, server.URL+"/rooms/1/members", tokenFor(t, admin), body, http.StatusNoContent).Body.Close()

	bad := map[string]string{"email": "not-an-email"}
	doJSON(t, http.MethodPost, server.URL+"/rooms/1/members", tokenFor(t, admin), bad, http.StatusBadRequest).Body.Close()
}

func TestGetBooking_NotFoundStatus(t *testing.T) {
	server, userRepo, _, _ := setupTestServer(t)

	user := userRepo.add("user@example.com", domain.RoleUser)
	doJSON(t, http.MethodGet, server.URL+"/bookings/404", tokenFor(t, user), nil, http.StatusNotFound).Body.Close()
}

func TestRefreshToken_RejectedAsAccessToken(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	register := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "correct-horse"}
	doJSON(t, http.MethodPost, server.URL+"/auth/register", "", register, http.StatusCreated).Body.Close()

	login := map[string]string{"email": "alice@example.com", "password": "correct-horse"}
	resp := doJSON(t, http.MethodPost, server.URL+"/auth/login", "", login, http.StatusOK)
	var loginResult domain.LoginResponse
	json.NewDecoder(resp.Body).Decode(&loginResult)
	resp.Body.Close()

	// A refresh token must not pass the access-token gate.
	doJSON(t, http.MethodGet, server.URL+"/auth/me", loginResult.RefreshToken, nil, http.StatusUnauthorized).Body.Close()
}
