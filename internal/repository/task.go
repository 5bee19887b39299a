package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

const taskColumns = `id, title, description, created_at, deadline, status, project_id, assignee_id, version, updated_at`

func scanTask(row pgx.Row) (*entity.Task, error) {
	var task entity.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.CreatedAt,
		&task.Deadline,
		&task.Status,
		&task.ProjectID,
		&task.AssigneeID,
		&task.Version,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	INSERT INTO task (title, description, deadline, status, project_id, assignee_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + taskColumns

	created, err := scanTask(r.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Deadline,
		task.Status,
		task.ProjectID,
		task.AssigneeID,
	))
	if err != nil {
		// гонка с удалением проекта или пользователя после предварительной проверки
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, fmt.Errorf("%w: project or assignee was removed", entity.ErrMissingReference)
		}
		return nil, err
	}

	return created, nil
}

func (r *TaskRepository) GetByTaskId(ctx context.Context, taskId int) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM task WHERE id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, taskId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return task, nil
}

func (r *TaskRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM task WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// List - список задач с фильтрацией
func (r *TaskRepository) List(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM task WHERE 1 = 1`
	args := []interface{}{}

	if filter.ProjectID != 0 {
		args = append(args, filter.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if filter.AssigneeID != 0 {
		args = append(args, filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}

	query += " ORDER BY id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]entity.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

// Update - обновление задачи с проверкой версии
func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	query := `
	UPDATE task
	SET title = $1, description = $2, status = $3, project_id = $4,
	    version = version + 1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $5 AND version = $6
	RETURNING ` + taskColumns

	updated, err := scanTask(r.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.ProjectID,
		task.ID,
		task.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrConcurrencyConflict
		}
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, entity.MissingReference("Project")
		}
		return nil, err
	}

	return updated, nil
}

// Delete - удаление задачи, комментарии удаляются каскадом
func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM task WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return entity.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) CountByStatus(ctx context.Context, projectID int) (entity.TaskStatistics, error) {
	query := `
	SELECT status, COUNT(*)
	FROM task
	WHERE project_id = $1
	GROUP BY status
	`
	return r.collectStatistics(ctx, query, projectID)
}

func (r *TaskRepository) CountByAssignee(ctx context.Context, projectID int) (entity.TaskStatistics, error) {
	query := `
	SELECT u.username, COUNT(*)
	FROM task t
	JOIN "user" u ON u.id = t.assignee_id
	WHERE t.project_id = $1
	GROUP BY u.username
	`
	return r.collectStatistics(ctx, query, projectID)
}

func (r *TaskRepository) collectStatistics(ctx context.Context, query string, projectID int) (entity.TaskStatistics, error) {
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := entity.TaskStatistics{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		stats[key] = count
	}

	return stats, rows.Err()
}
