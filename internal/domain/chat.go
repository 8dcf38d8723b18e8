package domain

import "time"

// ChatExchange is one user message and the assistant reply to it.
type ChatExchange struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}
