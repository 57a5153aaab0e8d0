package chat

import "time"

// Session captures one visitor's intake conversation.
type Session struct {
	ID           string    `json:"id"`
	Stage        Stage     `json:"stage"`
	UserName     string    `json:"userName,omitempty"`
	UserEmail    string    `json:"userEmail,omitempty"`
	Pending      bool      `json:"pending"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}
