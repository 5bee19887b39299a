package entity

import "time"

type Comment struct {
	ID             int       `json:"id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	TaskID         int       `json:"taskId"`
	AuthorID       int       `json:"authorId"`
	AuthorUsername string    `json:"authorUserName,omitempty"`
	Version        int       `json:"-"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateCommentRequest struct {
	TaskID  int    `json:"taskId"`
	Content string `json:"content" validate:"required,max=4000"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}
