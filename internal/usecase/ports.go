package usecase

import (
	"context"

	"github.com/St1cky1/task-tracker/internal/entity"
)

// ImageStore keeps project images and hands back a reference that can later be deleted.
type ImageStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, reference string) error
}

// ProjectIndex is the external full-text index over projects.
type ProjectIndex interface {
	Search(ctx context.Context, query string) ([]entity.ProjectDocument, error)
	Upsert(ctx context.Context, doc entity.ProjectDocument) error
	Remove(ctx context.Context, id int) error
}

// Notifier delivers a text message to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// AuditPublisher интерфейс для публикации аудита
type AuditPublisher interface {
	PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error
}
