package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

type CommentService struct {
	commentRepo repository.ICommentRepository
	taskRepo    repository.ITaskRepository
	userRepo    repository.IUserRepository
	audit       *auditor
	log         *logrus.Logger
}

func NewCommentService(
	commentRepo repository.ICommentRepository,
	taskRepo repository.ITaskRepository,
	userRepo repository.IUserRepository,
	publisher AuditPublisher,
	log *logrus.Logger,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		audit:       newAuditor(publisher, log),
		log:         log,
	}
}

func (s *CommentService) ListAll(ctx context.Context) ([]entity.Comment, error) {
	return s.commentRepo.ListAll(ctx)
}

func (s *CommentService) ListByTask(ctx context.Context, taskID int) ([]entity.Comment, error) {
	exists, err := s.taskRepo.Exists(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, entity.ErrTaskNotFound
	}
	return s.commentRepo.ListByTask(ctx, taskID)
}

func (s *CommentService) GetComment(ctx context.Context, commentID int) (*entity.Comment, error) {
	comment, err := s.commentRepo.GetById(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, entity.ErrCommentNotFound
	}
	return comment, nil
}

// CreateComment пишет комментарий от имени текущего пользователя.
// Комментировать может только исполнитель задачи.
func (s *CommentService) CreateComment(ctx context.Context, principal entity.Principal, req *entity.CreateCommentRequest) (*entity.Comment, error) {
	if !principal.Authenticated() {
		return nil, entity.ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByTaskId(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, entity.MissingReference("Task")
	}

	exists, err := s.userRepo.Exists(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, entity.MissingReference("User")
	}

	if err := AuthorizeTask(principal, task); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.Create(ctx, &entity.Comment{
		Content:  req.Content,
		TaskID:   req.TaskID,
		AuthorID: principal.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, entity.ActionCreate, principal.UserID, entity.EntityComment, comment.ID, nil, commentValues(comment))

	return comment, nil
}

// UpdateComment меняет только текст. Только автор.
func (s *CommentService) UpdateComment(ctx context.Context, principal entity.Principal, commentID int, req *entity.UpdateCommentRequest) (*entity.Comment, error) {
	current, err := s.commentRepo.GetById(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeComment(principal, current); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	next := *current
	next.Content = req.Content

	updated, err := s.commentRepo.Update(ctx, &next)
	if err != nil {
		if !errors.Is(err, entity.ErrConcurrencyConflict) {
			return nil, err
		}
		again, getErr := s.commentRepo.GetById(ctx, commentID)
		if getErr != nil {
			return nil, getErr
		}
		if again == nil {
			return nil, entity.ErrCommentNotFound
		}
		return nil, fmt.Errorf("update comment %d: %w", commentID, err)
	}

	s.audit.record(ctx, entity.ActionUpdate, principal.UserID, entity.EntityComment, commentID, commentValues(current), commentValues(updated))

	return updated, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, principal entity.Principal, commentID int) error {
	comment, err := s.commentRepo.GetById(ctx, commentID)
	if err != nil {
		return err
	}
	if err := AuthorizeComment(principal, comment); err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	s.audit.record(ctx, entity.ActionDelete, principal.UserID, entity.EntityComment, commentID, commentValues(comment), nil)

	return nil
}
