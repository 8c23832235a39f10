package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

type SMTPMailer struct {
	Host string
	Port int
	From string
	User string
	Pass string
}

func NewSMTPMailer(host string, port int, from, user, pass string) *SMTPMailer {
	return &SMTPMailer{
		Host: strings.TrimSpace(host),
		Port: port,
		From: strings.TrimSpace(from),
		User: strings.TrimSpace(user),
		Pass: strings.TrimSpace(pass),
	}
}

func (s *SMTPMailer) SendBookingConfirmation(toEmail, roomName string, start, end time.Time) error {
	subject := fmt.Sprintf("Booking confirmed: %s", roomName)
	text := fmt.Sprintf("Your booking of %s from %s to %s is confirmed.",
		roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))
	return s.sendEmail(toEmail, subject, text)
}

func (s *SMTPMailer) SendBookingInvitation(toEmail, roomName string, start, end time.Time) error {
	subject := fmt.Sprintf("You have been added to a booking: %s", roomName)
	text := fmt.Sprintf("You were added as a participant of a booking of %s from %s to %s.",
		roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))
	return s.sendEmail(toEmail, subject, text)
}

func (s *SMTPMailer) SendBookingCanceled(toEmail, roomName string, start, end time.Time) error {
	subject := fmt.Sprintf("Booking canceled: %s", roomName)
	text := fmt.Sprintf("The booking of %s from %s to %s has been canceled.",
		roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))
	return s.sendEmail(toEmail, subject, text)
}

func (s *SMTPMailer) SendRoomMemberAdded(toEmail, roomName string) error {
	subject := fmt.Sprintf("You were added to room: %s", roomName)
	text := fmt.Sprintf("You are now a member of the room %s.", roomName)
	return s.sendEmail(toEmail, subject, text)
}

func (s *SMTPMailer) SendRoomClosed(toEmail, roomName string) error {
	subject := fmt.Sprintf("Room closed: %s", roomName)
	text := fmt.Sprintf("The room %s has been closed and your booking in it was removed.", roomName)
	return s.sendEmail(toEmail, subject, text)
}

func (s *SMTPMailer) sendEmail(toEmail, subject, text string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n", text)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth)
	if s.User == "" {
		return smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	return smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes())
}
