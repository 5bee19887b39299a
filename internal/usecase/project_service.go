package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ProjectService struct {
	projectRepo repository.IProjectRepository
	taskRepo    repository.ITaskRepository
	userRepo    repository.IUserRepository
	images      ImageStore
	index       ProjectIndex
	audit       *auditor
	log         *logrus.Logger
}

func NewProjectService(
	projectRepo repository.IProjectRepository,
	taskRepo repository.ITaskRepository,
	userRepo repository.IUserRepository,
	images ImageStore,
	index ProjectIndex,
	publisher AuditPublisher,
	log *logrus.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		images:      images,
		index:       index,
		audit:       newAuditor(publisher, log),
		log:         log,
	}
}

// CreateProject создает проект; владелец всегда текущий пользователь.
// Изображение необязательно: ошибка загрузки не мешает созданию проекта.
func (s *ProjectService) CreateProject(
	ctx context.Context,
	principal entity.Principal,
	req *entity.CreateProjectRequest,
	image *entity.ProjectImage,
) (*entity.Project, error) {
	if !principal.Authenticated() {
		return nil, entity.ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, entity.MissingReference("User")
	}

	project := &entity.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     principal.UserID,
	}

	if image != nil && len(image.Data) > 0 {
		ref, err := s.uploadImage(ctx, image)
		if err != nil {
			s.log.WithError(err).WithField("owner_id", principal.UserID).Warn("project image upload failed, creating project without image")
		} else {
			project.ImagePath = &ref
		}
	}

	created, err := s.projectRepo.Create(ctx, project)
	if err != nil {
		if project.ImagePath != nil {
			s.deleteImage(ctx, *project.ImagePath)
		}
		return nil, err
	}

	s.indexProject(ctx, created)
	s.audit.record(ctx, entity.ActionCreate, principal.UserID, entity.EntityProject, created.ID, nil, projectValues(created))

	return created, nil
}

// GetProject is the public read used by the JSON API; same shape as the list items.
func (s *ProjectService) GetProject(ctx context.Context, projectID int) (*entity.ProjectSummary, error) {
	summary, err := s.projectRepo.GetSummary(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, entity.ErrProjectNotFound
	}
	return summary, nil
}

// GetProjectDetail returns the project with its owner name and tasks. Owner only.
func (s *ProjectService) GetProjectDetail(ctx context.Context, principal entity.Principal, projectID int) (*entity.ProjectDetail, error) {
	project, err := s.projectRepo.GetById(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeProject(principal, project); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetById(ctx, project.OwnerID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.List(ctx, entity.TaskFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	detail := &entity.ProjectDetail{Project: *project, Tasks: tasks}
	if owner != nil {
		detail.OwnerUsername = owner.Username
	}
	return detail, nil
}

func (s *ProjectService) ListOwnedProjects(ctx context.Context, principal entity.Principal) ([]entity.Project, error) {
	if !principal.Authenticated() {
		return nil, entity.ErrUnauthenticated
	}
	return s.projectRepo.ListByOwner(ctx, principal.UserID)
}

// ListProjects returns one page of project summaries ordered by id.
func (s *ProjectService) ListProjects(ctx context.Context, req PageRequest) (*entity.ProjectPage, error) {
	req = req.normalize()

	total, err := s.projectRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	var data []entity.ProjectSummary
	if req.offset() < total {
		data, err = s.projectRepo.ListPage(ctx, req.offset(), req.PageSize)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
	}

	return buildPage(req, total, data), nil
}

// SearchProjects passes the query to the index verbatim. Hits carry no task counts.
func (s *ProjectService) SearchProjects(ctx context.Context, query string) ([]entity.ProjectSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", entity.ErrInvalidInput)
	}
	if s.index == nil {
		return nil, fmt.Errorf("%w: search index is not configured", entity.ErrUpstream)
	}

	docs, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUpstream, err)
	}

	results := make([]entity.ProjectSummary, 0, len(docs))
	for _, doc := range docs {
		results = append(results, entity.ProjectSummary{
			ID:          doc.ID,
			Name:        doc.Name,
			Description: doc.Description,
		})
	}
	return results, nil
}

// UpdateProject заменяет имя и описание. Только владелец.
func (s *ProjectService) UpdateProject(
	ctx context.Context,
	principal entity.Principal,
	projectID int,
	req *entity.UpdateProjectRequest,
) (*entity.Project, error) {
	current, err := s.loadOwned(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	next := *current
	next.Name = req.Name
	next.Description = req.Description

	updated, err := s.save(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.indexProject(ctx, updated)
	s.audit.record(ctx, entity.ActionUpdate, principal.UserID, entity.EntityProject, projectID, projectValues(current), projectValues(updated))

	return updated, nil
}

// SetProjectImage uploads a new image and then drops the previous blob.
func (s *ProjectService) SetProjectImage(
	ctx context.Context,
	principal entity.Principal,
	projectID int,
	image *entity.ProjectImage,
) (*entity.Project, error) {
	current, err := s.loadOwned(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	if image == nil || len(image.Data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", entity.ErrInvalidInput)
	}

	ref, err := s.uploadImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: image upload: %v", entity.ErrUpstream, err)
	}

	next := *current
	next.ImagePath = &ref

	updated, err := s.save(ctx, &next)
	if err != nil {
		s.deleteImage(ctx, ref)
		return nil, err
	}

	if current.ImagePath != nil {
		s.deleteImage(ctx, *current.ImagePath)
	}
	s.audit.record(ctx, entity.ActionUpdate, principal.UserID, entity.EntityProject, projectID, projectValues(current), projectValues(updated))

	return updated, nil
}

func (s *ProjectService) RemoveProjectImage(ctx context.Context, principal entity.Principal, projectID int) (*entity.Project, error) {
	current, err := s.loadOwned(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	if current.ImagePath == nil {
		return current, nil
	}

	next := *current
	next.ImagePath = nil

	updated, err := s.save(ctx, &next)
	if err != nil {
		return nil, err
	}

	s.deleteImage(ctx, *current.ImagePath)
	s.audit.record(ctx, entity.ActionUpdate, principal.UserID, entity.EntityProject, projectID, projectValues(current), projectValues(updated))

	return updated, nil
}

// DeleteProject удаляет проект вместе с задачами и возвращает число удаленных задач.
func (s *ProjectService) DeleteProject(ctx context.Context, principal entity.Principal, projectID int) (int, error) {
	project, err := s.loadOwned(ctx, principal, projectID)
	if err != nil {
		return 0, err
	}

	removed, err := s.projectRepo.DeleteWithTasks(ctx, projectID)
	if err != nil {
		return 0, err
	}

	if project.ImagePath != nil {
		s.deleteImage(ctx, *project.ImagePath)
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, projectID); err != nil {
			s.log.WithError(err).WithField("project_id", projectID).Warn("search index remove failed")
		}
	}
	s.audit.record(ctx, entity.ActionDelete, principal.UserID, entity.EntityProject, projectID, projectValues(project), nil)

	s.log.WithFields(logrus.Fields{"project_id": projectID, "tasks_removed": removed}).Info("project deleted")

	return removed, nil
}

// StatusStatistics counts the project's tasks per status label.
func (s *ProjectService) StatusStatistics(ctx context.Context, projectID int) (entity.TaskStatistics, error) {
	if err := s.ensureExists(ctx, projectID); err != nil {
		return nil, err
	}
	return s.taskRepo.CountByStatus(ctx, projectID)
}

// AssigneeStatistics counts the project's tasks per assignee username.
func (s *ProjectService) AssigneeStatistics(ctx context.Context, projectID int) (entity.TaskStatistics, error) {
	if err := s.ensureExists(ctx, projectID); err != nil {
		return nil, err
	}
	return s.taskRepo.CountByAssignee(ctx, projectID)
}

func (s *ProjectService) ensureExists(ctx context.Context, projectID int) error {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return err
	}
	if !exists {
		return entity.ErrProjectNotFound
	}
	return nil
}

func (s *ProjectService) loadOwned(ctx context.Context, principal entity.Principal, projectID int) (*entity.Project, error) {
	project, err := s.projectRepo.GetById(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := AuthorizeProject(principal, project); err != nil {
		return nil, err
	}
	return project, nil
}

// save writes the project and turns a lost version race on a deleted row into not-found.
func (s *ProjectService) save(ctx context.Context, project *entity.Project) (*entity.Project, error) {
	updated, err := s.projectRepo.Update(ctx, project)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, entity.ErrConcurrencyConflict) {
		return nil, err
	}

	exists, existsErr := s.projectRepo.Exists(ctx, project.ID)
	if existsErr != nil {
		return nil, existsErr
	}
	if !exists {
		return nil, entity.ErrProjectNotFound
	}
	return nil, fmt.Errorf("update project %d: %w", project.ID, err)
}

func (s *ProjectService) uploadImage(ctx context.Context, image *entity.ProjectImage) (string, error) {
	if s.images == nil {
		return "", errors.New("image storage is not configured")
	}
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	name := uuid.NewString() + strings.ToLower(path.Ext(image.FileName))
	return s.images.Put(ctx, name, contentType, image.Data)
}

func (s *ProjectService) deleteImage(ctx context.Context, ref string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.log.WithError(err).WithField("image", ref).Warn("project image delete failed")
	}
}

func (s *ProjectService) indexProject(ctx context.Context, project *entity.Project) {
	if s.index == nil {
		return
	}
	doc := entity.ProjectDocument{ID: project.ID, Name: project.Name, Description: project.Description}
	if err := s.index.Upsert(ctx, doc); err != nil {
		s.log.WithError(err).WithField("project_id", project.ID).Warn("search index upsert failed")
	}
}
