package domain

import "time"

// ChatSender identifies which side of the inbox authored a message.
type ChatSender string

const (
	ChatSenderUser  ChatSender = "USER"
	ChatSenderAdmin ChatSender = "ADMIN"
)

// ChatMessage is one append-only entry in a user's inbox thread.
type ChatMessage struct {
	ID        string
	UserID    string
	Sender    ChatSender
	SenderID  string
	Body      string
	CreatedAt time.Time
}
