package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/roomly/bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	BookingCreated          = "booking.created"
	BookingUpdated          = "booking.updated"
	BookingCanceled         = "booking.canceled"
	BookingParticipantAdded = "booking.participant_added"

	RoomMemberAdded = "room.member_added"
	RoomDeleted     = "room.deleted"
)

// Event payloads
type BookingCreatedEvent struct {
	BookingID    int64     `json:"booking_id"`
	RoomID       int64     `json:"room_id"`
	RoomName     string    `json:"room_name"`
	OwnerEmail   string    `json:"owner_email"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Description  string    `json:"description"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingUpdatedEvent struct {
	BookingID    int64     `json:"booking_id"`
	RoomID       int64     `json:"room_id"`
	Changes      []string  `json:"changes"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Participants []string  `json:"participants"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BookingCanceledEvent struct {
	BookingID    int64     `json:"booking_id"`
	RoomID       int64     `json:"room_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Participants []string  `json:"participants"`
	CanceledAt   time.Time `json:"canceled_at"`
}

type BookingParticipantAddedEvent struct {
	BookingID        int64     `json:"booking_id"`
	RoomID           int64     `json:"room_id"`
	ParticipantEmail string    `json:"participant_email"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	AddedAt          time.Time `json:"added_at"`
}

type RoomMemberAddedEvent struct {
	RoomID      int64     `json:"room_id"`
	RoomName    string    `json:"room_name"`
	MemberID    int64     `json:"member_id"`
	MemberEmail string    `json:"member_email"`
	AddedAt     time.Time `json:"added_at"`
}

type RoomDeletedEvent struct {
	RoomID          int64     `json:"room_id"`
	RoomName        string    `json:"room_name"`
	BookingsDeleted int       `json:"bookings_deleted"`
	NotifiedEmails  []string  `json:"notified_emails"`
	DeletedAt       time.Time `json:"deleted_at"`
}
