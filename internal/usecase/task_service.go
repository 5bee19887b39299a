package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/repository"
	"github.com/sirupsen/logrus"
)

type TaskService struct {
	taskRepo    repository.ITaskRepository
	projectRepo repository.IProjectRepository
	userRepo    repository.IUserRepository
	commentRepo repository.ICommentRepository
	auditRepo   repository.IAuditRepository
	notifier    Notifier
	audit       *auditor
	log         *logrus.Logger
}

func NewTaskService(
	taskRepo repository.ITaskRepository,
	projectRepo repository.IProjectRepository,
	userRepo repository.IUserRepository,
	commentRepo repository.ICommentRepository,
	auditRepo repository.IAuditRepository,
	notifier Notifier,
	publisher AuditPublisher,
	log *logrus.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		audit:       newAuditor(publisher, log),
		log:         log,
	}
}

// AssignmentMessage is the Telegram text sent to a new assignee.
func AssignmentMessage(username, taskTitle, projectName string) string {
	return fmt.Sprintf(
		"Hello, %s! A new task has been assigned to you:\n\n*Task:* %s\n*Project:* %s",
		username, taskTitle, projectName,
	)
}

func (s *TaskService) CreateTask(ctx context.Context, principal entity.Principal, req *entity.CreateTaskRequest) (*entity.Task, error) {
	if !principal.Authenticated() {
		return nil, entity.ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	// 1. Проверяем что проект существует
	project, err := s.projectRepo.GetById(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, entity.MissingReference("Project")
	}

	// 2. Проверяем что исполнитель существует
	assignee, err := s.userRepo.GetById(ctx, req.AssigneeID)
	if err != nil {
		return nil, err
	}
	if assignee == nil {
		return nil, entity.MissingReference("User")
	}

	// 3. Задачи в проект добавляет только владелец
	if err := AuthorizeProject(principal, project); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Create(ctx, &entity.Task{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      req.Status,
		ProjectID:   req.ProjectID,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, entity.ActionCreate, principal.UserID, entity.EntityTask, task.ID, nil, taskValues(task))
	s.notifyAssignee(ctx, assignee, task, project)

	return task, nil
}

func (s *TaskService) notifyAssignee(ctx context.Context, assignee *entity.User, task *entity.Task, project *entity.Project) {
	if s.notifier == nil || assignee.TelegramChatID == nil {
		return
	}
	text := AssignmentMessage(assignee.Username, task.Title, project.Name)
	if err := s.notifier.Send(ctx, *assignee.TelegramChatID, text); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"task_id":     task.ID,
			"assignee_id": assignee.ID,
		}).Warn("task assignment notification failed")
	}
}

// GetTask is the public read used by the JSON API.
func (s *TaskService) GetTask(ctx context.Context, taskID int) (*entity.Task, error) {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}
	return task, nil
}

// GetTaskDetail returns the task with project, assignee and comments (newest first).
// Assignee only.
func (s *TaskService) GetTaskDetail(ctx context.Context, principal entity.Principal, taskID int) (*entity.TaskDetail, error) {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeTask(principal, task); err != nil {
		return nil, err
	}

	detail := &entity.TaskDetail{Task: *task}

	project, err := s.projectRepo.GetById(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if project != nil {
		detail.ProjectName = project.Name
	}

	assignee, err := s.userRepo.GetById(ctx, task.AssigneeID)
	if err != nil {
		return nil, err
	}
	if assignee != nil {
		detail.AssigneeUsername = assignee.Username
	}

	detail.Comments, err = s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	return s.taskRepo.List(ctx, filter)
}

func (s *TaskService) ListAssignedTasks(ctx context.Context, principal entity.Principal) ([]entity.Task, error) {
	if !principal.Authenticated() {
		return nil, entity.ErrUnauthenticated
	}
	return s.taskRepo.List(ctx, entity.TaskFilter{AssigneeID: principal.UserID})
}

// UpdateTask заменяет название, описание, статус и проект. Только исполнитель.
// Нулевой projectId оставляет задачу в текущем проекте.
func (s *TaskService) UpdateTask(ctx context.Context, principal entity.Principal, taskID int, req *entity.UpdateTaskRequest) (*entity.Task, error) {
	// 1. Получаем текущую задачу и проверяем права
	current, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeTask(principal, current); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	next := *current
	next.Title = req.Title
	next.Description = req.Description
	next.Status = req.Status

	// 2. Новый проект должен существовать
	if req.ProjectID != 0 && req.ProjectID != current.ProjectID {
		exists, err := s.projectRepo.Exists(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, entity.MissingReference("Project")
		}
		next.ProjectID = req.ProjectID
	}

	// 3. Обновляем задачу
	updated, err := s.taskRepo.Update(ctx, &next)
	if err != nil {
		return nil, s.resolveConflict(ctx, taskID, err)
	}

	s.audit.record(ctx, entity.ActionUpdate, principal.UserID, entity.EntityTask, taskID, taskValues(current), taskValues(updated))

	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, principal entity.Principal, taskID int) error {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return err
	}
	if err := AuthorizeTask(principal, task); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.audit.record(ctx, entity.ActionDelete, principal.UserID, entity.EntityTask, taskID, taskValues(task), nil)

	return nil
}

// TaskHistory returns the audit trail of a task, newest first. Assignee only.
func (s *TaskService) TaskHistory(ctx context.Context, principal entity.Principal, taskID int) ([]entity.AuditRecord, error) {
	task, err := s.taskRepo.GetByTaskId(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeTask(principal, task); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByEntity(ctx, entity.EntityTask, taskID)
}

func (s *TaskService) resolveConflict(ctx context.Context, taskID int, err error) error {
	if !errors.Is(err, entity.ErrConcurrencyConflict) {
		return err
	}
	exists, existsErr := s.taskRepo.Exists(ctx, taskID)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return entity.ErrTaskNotFound
	}
	return fmt.Errorf("update task %d: %w", taskID, err)
}
