package entity

import "time"

type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	TelegramChatID *int64    `json:"telegramChatId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CreateUserRequest struct {
	Username       string `json:"username" validate:"required,min=1,max=256"`
	TelegramChatID *int64 `json:"telegramChatId"`
}

type SetTelegramChatRequest struct {
	TelegramChatID *int64 `json:"telegramChatId"`
}

// Principal is the authenticated identity behind a request.
type Principal struct {
	UserID   int
	Username string
}

// Authenticated reports whether the principal carries a usable user id.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}
