package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendBookingConfirmation(toEmail, roomName string, start, end time.Time) error {
	subject := fmt.Sprintf("Booking confirmed: %s", roomName)
	text := fmt.Sprintf("Your booking of %s from %s to %s is confirmed.",
		roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))
	html := fmt.Sprintf(`
		<h2>Booking confirmed</h2>
		<p>Your booking of <strong>%s</strong> is confirmed.</p>
		<p>From: %s<br>To: %s</p>
	`, roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) SendBookingInvitation(toEmail, roomName string, start, end time.Time) error {
	subject := fmt.Sprintf("You have been added to a booking: %s", roomName)
	text := fmt.Sprintf("You were added as a participant of a booking of %s from %s to %s.",
		roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))
	html := fmt.Sprintf(`
		<h2>You have been added to a booking</h2>
		<p>You were added as a participant of a booking of <strong>%s</strong>.</p>
		<p>From: %s<br>To: %s</p>
	`, roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) SendBookingCanceled(toEmail, roomName string, start, end time.Time) error {
	subject := fmt.Sprintf("Booking canceled: %s", roomName)
	text := fmt.Sprintf("The booking of %s from %s to %s has been canceled.",
		roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))
	html := fmt.Sprintf(`
		<h2>Booking canceled</h2>
		<p>The booking of <strong>%s</strong> has been canceled.</p>
		<p>From: %s<br>To: %s</p>
	`, roomName, start.Format(time.RFC1123), end.Format(time.RFC1123))

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) SendRoomMemberAdded(toEmail, roomName string) error {
	subject := fmt.Sprintf("You were added to room: %s", roomName)
	text := fmt.Sprintf("You are now a member of the room %s.", roomName)
	html := fmt.Sprintf(`
		<h2>New room membership</h2>
		<p>You are now a member of the room <strong>%s</strong>.</p>
	`, roomName)

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) SendRoomClosed(toEmail, roomName string) error {
	subject := fmt.Sprintf("Room closed: %s", roomName)
	text := fmt.Sprintf("The room %s has been closed and your booking in it was removed.", roomName)
	html := fmt.Sprintf(`
		<h2>Room closed</h2>
		<p>The room <strong>%s</strong> has been closed and your booking in it was removed.</p>
	`, roomName)

	return m.sendEmail(toEmail, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, subject, text, html string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
