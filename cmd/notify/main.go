package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/roomly/bookings/internal/mailer"
	"github.com/roomly/bookings/pkg/config"
	"github.com/roomly/bookings/pkg/events"
	"github.com/roomly/bookings/pkg/logger"
)

const queueGroup = "notify"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	bus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	mail := selectMailer(cfg.Email)

	w := &worker{mail: mail}

	subscriptions := map[string]func(msg *events.Message){
		events.BookingCreated:          w.onBookingCreated,
		events.BookingCanceled:         w.onBookingCanceled,
		events.BookingParticipantAdded: w.onParticipantAdded,
		events.RoomMemberAdded:         w.onRoomMemberAdded,
		events.RoomDeleted:             w.onRoomDeleted,
	}

	for subject, handler := range subscriptions {
		if err := bus.QueueSubscribe(subject, queueGroup, handler); err != nil {
			logger.Error("Failed to subscribe", "subject", subject, "error", err)
			os.Exit(1)
		}
		logger.Info("Subscribed", "subject", subject, "queue", queueGroup)
	}

	logger.Info("Notify worker running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down notify worker...")
}

func selectMailer(cfg config.EmailConfig) mailer.Service {
	switch {
	case cfg.DevMode:
		logger.Info("Using dev mailer (emails printed to log)")
		return mailer.NewDevMailer()
	case cfg.MailerSendKey != "":
		logger.Info("Using MailerSend")
		return mailer.NewMailerSend(cfg.MailerSendKey, "Roomly", cfg.SMTPFrom)
	default:
		logger.Info("Using SMTP", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
		return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
	}
}

type worker struct {
	mail mailer.Service
}

func (w *worker) onBookingCreated(msg *events.Message) {
	var event events.BookingCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode event", "subject", msg.Subject, "error", err)
		return
	}

	for _, email := range event.Participants {
		var sendErr error
		if email == event.OwnerEmail {
			sendErr = w.mail.SendBookingConfirmation(email, event.RoomName, event.StartTime, event.EndTime)
		} else {
			sendErr = w.mail.SendBookingInvitation(email, event.RoomName, event.StartTime, event.EndTime)
		}
		if sendErr != nil {
			logger.Error("Failed to send booking email", "to", email, "booking_id", event.BookingID, "error", sendErr)
		}
	}
}

func (w *worker) onBookingCanceled(msg *events.Message) {
	var event events.BookingCanceledEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode event", "subject", msg.Subject, "error", err)
		return
	}

	room := fmt.Sprintf("room %d", event.RoomID)
	for _, email := range event.Participants {
		if err := w.mail.SendBookingCanceled(email, room, event.StartTime, event.EndTime); err != nil {
			logger.Error("Failed to send cancellation email", "to", email, "booking_id", event.BookingID, "error", err)
		}
	}
}

func (w *worker) onParticipantAdded(msg *events.Message) {
	var event events.BookingParticipantAddedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode event", "subject", msg.Subject, "error", err)
		return
	}

	room := fmt.Sprintf("room %d", event.RoomID)
	if err := w.mail.SendBookingInvitation(event.ParticipantEmail, room, event.StartTime, event.EndTime); err != nil {
		logger.Error("Failed to send invitation email", "to", event.ParticipantEmail, "booking_id", event.BookingID, "error", err)
	}
}

func (w *worker) onRoomMemberAdded(msg *events.Message) {
	var event events.RoomMemberAddedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode event", "subject", msg.Subject, "error", err)
		return
	}

	if err := w.mail.SendRoomMemberAdded(event.MemberEmail, event.RoomName); err != nil {
		logger.Error("Failed to send membership email", "to", event.MemberEmail, "room_id", event.RoomID, "error", err)
	}
}

func (w *worker) onRoomDeleted(msg *events.Message) {
	var event events.RoomDeletedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to decode event", "subject", msg.Subject, "error", err)
		return
	}

	for _, email := range event.NotifiedEmails {
		if err := w.mail.SendRoomClosed(email, event.RoomName); err != nil {
			logger.Error("Failed to send room closure email", "to", email, "room_id", event.RoomID, "error", err)
		}
	}

	logger.Info("Room deleted",
		"room_id", event.RoomID,
		"room", event.RoomName,
		"bookings_deleted", event.BookingsDeleted,
		"notified", len(event.NotifiedEmails),
	)
}
