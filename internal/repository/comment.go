package repository

import (
	"context"
	"errors"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommentRepository struct {
	db *pgxpool.Pool
}

func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{
		db: db,
	}
}

const commentSelect = `
	SELECT c.id, c.content, c.created_at, c.task_id, c.author_id, u.username, c.version, c.updated_at
	FROM comment c
	JOIN "user" u ON u.id = c.author_id
	`

func scanComment(row pgx.Row) (*entity.Comment, error) {
	var comment entity.Comment
	err := row.Scan(
		&comment.ID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.TaskID,
		&comment.AuthorID,
		&comment.AuthorUsername,
		&comment.Version,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *entity.Comment) (*entity.Comment, error) {
	query := `
	WITH inserted AS (
		INSERT INTO comment (content, task_id, author_id)
		VALUES ($1, $2, $3)
		RETURNING id, content, created_at, task_id, author_id, version, updated_at
	)
	SELECT i.id, i.content, i.created_at, i.task_id, i.author_id, u.username, i.version, i.updated_at
	FROM inserted i
	JOIN "user" u ON u.id = i.author_id
	`

	created, err := scanComment(r.db.QueryRow(ctx, query, comment.Content, comment.TaskID, comment.AuthorID))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, entity.MissingReference("Task")
		}
		return nil, err
	}

	return created, nil
}

func (r *CommentRepository) GetById(ctx context.Context, id int) (*entity.Comment, error) {
	comment, err := scanComment(r.db.QueryRow(ctx, commentSelect+`WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return comment, nil
}

func (r *CommentRepository) ListAll(ctx context.Context) ([]entity.Comment, error) {
	return r.list(ctx, commentSelect+`ORDER BY c.created_at DESC, c.id DESC`)
}

// ListByTask - комментарии задачи, новые сверху
func (r *CommentRepository) ListByTask(ctx context.Context, taskID int) ([]entity.Comment, error) {
	return r.list(ctx, commentSelect+`WHERE c.task_id = $1 ORDER BY c.created_at DESC, c.id DESC`, taskID)
}

func (r *CommentRepository) list(ctx context.Context, query string, args ...interface{}) ([]entity.Comment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]entity.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}

	return comments, rows.Err()
}

func (r *CommentRepository) Update(ctx context.Context, comment *entity.Comment) (*entity.Comment, error) {
	query := `
	WITH updated AS (
		UPDATE comment
		SET content = $1, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND version = $3
		RETURNING id, content, created_at, task_id, author_id, version, updated_at
	)
	SELECT c.id, c.content, c.created_at, c.task_id, c.author_id, u.username, c.version, c.updated_at
	FROM updated c
	JOIN "user" u ON u.id = c.author_id
	`

	updated, err := scanComment(r.db.QueryRow(ctx, query, comment.Content, comment.ID, comment.Version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrConcurrencyConflict
		}
		return nil, err
	}

	return updated, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM comment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return entity.ErrCommentNotFound
	}
	return nil
}
