package repository

import (
	"context"

	"github.com/St1cky1/task-tracker/internal/entity"
)

// Lookups return (nil, nil) when the row does not exist.

// IUserRepository - интерфейс для UserRepository
type IUserRepository interface {
	Create(ctx context.Context, user *entity.CreateUserRequest) (*entity.User, error)
	GetById(ctx context.Context, id int) (*entity.User, error)
	Exists(ctx context.Context, id int) (bool, error)
	SetTelegramChatID(ctx context.Context, id int, chatID *int64) (*entity.User, error)
	CountAssignedTasks(ctx context.Context, id int) (int, error)
	Delete(ctx context.Context, id int) error
}

// IProjectRepository - интерфейс для ProjectRepository
type IProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) (*entity.Project, error)
	GetById(ctx context.Context, id int) (*entity.Project, error)
	Exists(ctx context.Context, id int) (bool, error)
	Count(ctx context.Context) (int, error)
	ListPage(ctx context.Context, offset, limit int) ([]entity.ProjectSummary, error)
	GetSummary(ctx context.Context, id int) (*entity.ProjectSummary, error)
	ListByOwner(ctx context.Context, ownerID int) ([]entity.Project, error)
	// Update writes name, description and image path if project.Version still matches.
	Update(ctx context.Context, project *entity.Project) (*entity.Project, error)
	// DeleteWithTasks removes the project's tasks and then the project in one transaction
	// and reports how many tasks were removed.
	DeleteWithTasks(ctx context.Context, id int) (int, error)
}

// ITaskRepository - интерфейс для TaskRepository
type ITaskRepository interface {
	Create(ctx context.Context, task *entity.Task) (*entity.Task, error)
	GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error)
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)
	// Update writes title, description, status and project if task.Version still matches.
	Update(ctx context.Context, task *entity.Task) (*entity.Task, error)
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context, projectID int) (entity.TaskStatistics, error)
	CountByAssignee(ctx context.Context, projectID int) (entity.TaskStatistics, error)
}

// ICommentRepository - интерфейс для CommentRepository
type ICommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) (*entity.Comment, error)
	GetById(ctx context.Context, id int) (*entity.Comment, error)
	ListAll(ctx context.Context) ([]entity.Comment, error)
	ListByTask(ctx context.Context, taskID int) ([]entity.Comment, error)
	Update(ctx context.Context, comment *entity.Comment) (*entity.Comment, error)
	Delete(ctx context.Context, id int) error
}

// IAuditRepository - интерфейс для AuditRepository
type IAuditRepository interface {
	Create(ctx context.Context, audit *entity.AuditRecord) error
	ListByEntity(ctx context.Context, entityType string, entityID int) ([]entity.AuditRecord, error)
}
