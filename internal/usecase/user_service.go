package usecase

import (
	"context"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

type UserService struct {
	userRepo repository.IUserRepository
	log      *logrus.Logger
}

func NewUserService(userRepo repository.IUserRepository, log *logrus.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		log:      log,
	}
}

// CreateUser создает нового пользователя
func (s *UserService) CreateUser(ctx context.Context, req *entity.CreateUserRequest) (*entity.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user created")

	return user, nil
}

// GetUser получает пользователя по ID
func (s *UserService) GetUser(ctx context.Context, userID int) (*entity.User, error) {
	user, err := s.userRepo.GetById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entity.ErrUserNotFound
	}

	return user, nil
}

// SetTelegramChatID привязывает чат Telegram; пользователь меняет только себя.
// nil отвязывает чат.
func (s *UserService) SetTelegramChatID(ctx context.Context, principal entity.Principal, userID int, chatID *int64) (*entity.User, error) {
	if !principal.Authenticated() {
		return nil, entity.ErrUnauthenticated
	}
	if principal.UserID != userID {
		return nil, entity.ErrForbidden
	}

	user, err := s.userRepo.SetTelegramChatID(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entity.ErrUserNotFound
	}

	return user, nil
}

// DeleteUser удаляет пользователя вместе с его проектами и комментариями.
// Пока на пользователя назначены задачи, удаление запрещено.
func (s *UserService) DeleteUser(ctx context.Context, principal entity.Principal, userID int) error {
	if !principal.Authenticated() {
		return entity.ErrUnauthenticated
	}
	if principal.UserID != userID {
		return entity.ErrForbidden
	}

	// Проверяем что пользователь существует
	user, err := s.userRepo.GetById(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return entity.ErrUserNotFound
	}

	assigned, err := s.userRepo.CountAssignedTasks(ctx, userID)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return entity.ErrUserHasAssignedTasks
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Info("user deleted")

	return nil
}
