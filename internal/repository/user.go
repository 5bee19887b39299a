package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// создаем пользователя
func (r *UserRepository) Create(ctx context.Context, user *entity.CreateUserRequest) (*entity.User, error) {
	query := `
	INSERT INTO "user" (username, telegram_chat_id)
	VALUES ($1, $2)
	RETURNING id, username, telegram_chat_id, created_at
	`

	var createdUser entity.User

	err := r.db.QueryRow(ctx, query, user.Username, user.TelegramChatID).Scan(
		&createdUser.ID,
		&createdUser.Username,
		&createdUser.TelegramChatID,
		&createdUser.CreatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, entity.ErrUsernameTaken
		}
		return nil, err
	}

	return &createdUser, nil
}

// получаем данные по id
func (r *UserRepository) GetById(ctx context.Context, id int) (*entity.User, error) {
	query := `
	SELECT id, username, telegram_chat_id, created_at
	FROM "user"
	WHERE id = $1
	`
	var user entity.User

	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.TelegramChatID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM "user" WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// SetTelegramChatID - привязываем (или отвязываем) чат Telegram
func (r *UserRepository) SetTelegramChatID(ctx context.Context, id int, chatID *int64) (*entity.User, error) {
	query := `
	UPDATE "user"
	SET telegram_chat_id = $1
	WHERE id = $2
	RETURNING id, username, telegram_chat_id, created_at
	`

	var user entity.User
	err := r.db.QueryRow(ctx, query, chatID, id).Scan(
		&user.ID,
		&user.Username,
		&user.TelegramChatID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) CountAssignedTasks(ctx context.Context, id int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM task WHERE assignee_id = $1`, id).Scan(&count)
	return count, err
}

// Delete - удаляем пользователя. Проекты и комментарии уходят каскадом,
// назначенные задачи блокируют удаление.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return entity.ErrUserHasAssignedTasks
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return entity.ErrUserNotFound
	}
	return nil
}
