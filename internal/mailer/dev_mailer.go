package mailer

import (
	"fmt"
	"time"

	"github.com/roomly/bookings/pkg/logger"
)

// DevMailer prints emails to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendBookingConfirmation(toEmail, roomName string, start, end time.Time) error {
	d.print("Booking confirmed", toEmail, roomName, start, end)
	return nil
}

func (d *DevMailer) SendBookingInvitation(toEmail, roomName string, start, end time.Time) error {
	d.print("You have been added to a booking", toEmail, roomName, start, end)
	return nil
}

func (d *DevMailer) SendBookingCanceled(toEmail, roomName string, start, end time.Time) error {
	d.print("Booking canceled", toEmail, roomName, start, end)
	return nil
}

func (d *DevMailer) SendRoomMemberAdded(toEmail, roomName string) error {
	logger.Info("📧 [DEV MAIL] Room membership",
		"to", toEmail,
		"room", roomName,
	)
	return nil
}

func (d *DevMailer) SendRoomClosed(toEmail, roomName string) error {
	logger.Info("📧 [DEV MAIL] Room closed, booking removed",
		"to", toEmail,
		"room", roomName,
	)
	return nil
}

func (d *DevMailer) print(subject, toEmail, roomName string, start, end time.Time) {
	logger.Info("📧 [DEV MAIL] "+subject,
		"to", toEmail,
		"room", roomName,
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339),
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 %s (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"Room: %s\n"+
		"When: %s — %s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		subject, toEmail, roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))
}
