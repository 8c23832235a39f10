package mailer

import "time"

type Service interface {
	SendBookingConfirmation(toEmail, roomName string, start, end time.Time) error
	SendBookingInvitation(toEmail, roomName string, start, end time.Time) error
	SendBookingCanceled(toEmail, roomName string, start, end time.Time) error
	SendRoomMemberAdded(toEmail, roomName string) error
	SendRoomClosed(toEmail, roomName string) error
}
