package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectRepository struct {
	db *pgxpool.Pool
}

func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{
		db: db,
	}
}

const projectColumns = `id, name, description, image_path, owner_id, version, created_at, updated_at`

func scanProject(row pgx.Row) (*entity.Project, error) {
	var project entity.Project
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ImagePath,
		&project.OwnerID,
		&project.Version,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) (*entity.Project, error) {
	query := `
	INSERT INTO project (name, description, image_path, owner_id)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + projectColumns

	created, err := scanProject(r.db.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.ImagePath,
		project.OwnerID,
	))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, entity.MissingReference("User")
		}
		return nil, err
	}

	return created, nil
}

func (r *ProjectRepository) GetById(ctx context.Context, id int) (*entity.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project WHERE id = $1`

	project, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return project, nil
}

func (r *ProjectRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM project WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM project`).Scan(&count)
	return count, err
}

// ListPage - страница проектов с количеством задач, по возрастанию id
func (r *ProjectRepository) ListPage(ctx context.Context, offset, limit int) ([]entity.ProjectSummary, error) {
	query := `
	SELECT p.id, p.name, p.description, COUNT(t.id)
	FROM project p
	LEFT JOIN task t ON t.project_id = p.id
	GROUP BY p.id
	ORDER BY p.id ASC
	OFFSET $1 LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]entity.ProjectSummary, 0, limit)
	for rows.Next() {
		var s entity.ProjectSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.TaskCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (r *ProjectRepository) GetSummary(ctx context.Context, id int) (*entity.ProjectSummary, error) {
	query := `
	SELECT p.id, p.name, p.description, COUNT(t.id)
	FROM project p
	LEFT JOIN task t ON t.project_id = p.id
	WHERE p.id = $1
	GROUP BY p.id
	`

	var s entity.ProjectSummary
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Description, &s.TaskCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID int) ([]entity.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project WHERE owner_id = $1 ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]entity.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}

	return projects, rows.Err()
}

// Update - обновление проекта с проверкой версии
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) (*entity.Project, error) {
	query := `
	UPDATE project
	SET name = $1, description = $2, image_path = $3,
	    version = version + 1, updated_at = CURRENT_TIMESTAMP
	WHERE id = $4 AND version = $5
	RETURNING ` + projectColumns

	updated, err := scanProject(r.db.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.ImagePath,
		project.ID,
		project.Version,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrConcurrencyConflict
		}
		return nil, err
	}

	return updated, nil
}

// DeleteWithTasks - удаляем задачи проекта и сам проект в одной транзакции
func (r *ProjectRepository) DeleteWithTasks(ctx context.Context, id int) (int, error) {
	var removed int

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var locked int
		err := tx.QueryRow(ctx, `SELECT id FROM project WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return entity.ErrProjectNotFound
			}
			return err
		}

		rows, err := tx.Query(ctx, `SELECT id FROM task WHERE project_id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		taskIDs, err := pgx.CollectRows(rows, pgx.RowTo[int])
		if err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			tag, err := tx.Exec(ctx, `DELETE FROM task WHERE id = ANY($1)`, taskIDs)
			if err != nil {
				return err
			}
			removed = int(tag.RowsAffected())
		}

		if _, err := tx.Exec(ctx, `DELETE FROM project WHERE id = $1`, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete project %d: %w", id, err)
	}

	return removed, nil
}
