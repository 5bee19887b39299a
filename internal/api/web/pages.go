package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/St1cky1/task-tracker/internal/api/handlers"
	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/sirupsen/logrus"
)

// Pages serves the server-rendered UI. Every route expects middleware.RequireLogin in front.
type Pages struct {
	renderer
	projectService *usecase.ProjectService
	taskService    *usecase.TaskService
	commentService *usecase.CommentService
}

func NewPages(
	projectService *usecase.ProjectService,
	taskService *usecase.TaskService,
	commentService *usecase.CommentService,
	loginURL string,
	log *logrus.Logger,
) *Pages {
	return &Pages{
		renderer:       renderer{loginURL: loginURL, log: log},
		projectService: projectService,
		taskService:    taskService,
		commentService: commentService,
	}
}

type projectsView struct {
	Principal entity.Principal
	CSRFToken string
	Projects  []entity.Project
}

type projectView struct {
	Principal entity.Principal
	CSRFToken string
	Project   *entity.ProjectDetail
}

type statisticsView struct {
	Principal entity.Principal
	CSRFToken string
	ProjectID int
	Title     string
	Stats     entity.TaskStatistics
}

type tasksView struct {
	Principal entity.Principal
	CSRFToken string
	Tasks     []entity.Task
}

type taskView struct {
	Principal entity.Principal
	CSRFToken string
	Task      *entity.TaskDetail
}

func (p *Pages) MyProjects(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFrom(r.Context())
	projects, err := p.projectService.ListOwnedProjects(r.Context(), principal)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.render(w, http.StatusOK, "projects", projectsView{Principal: principal, CSRFToken: middleware.CSRFTokenFrom(r.Context()), Projects: projects})
}

func (p *Pages) ProjectDetail(w http.ResponseWriter, r *http.Request) {
	projectID, ok := p.pathID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(r.Context())

	detail, err := p.projectService.GetProjectDetail(r.Context(), principal, projectID)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.render(w, http.StatusOK, "project", projectView{Principal: principal, CSRFToken: middleware.CSRFTokenFrom(r.Context()), Project: detail})
}

func (p *Pages) CreateProject(w http.ResponseWriter, r *http.Request) {
	image, err := handlers.ReadImage(r)
	if err != nil {
		p.fail(w, r, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
		return
	}

	req := &entity.CreateProjectRequest{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
	}
	project, err := p.projectService.CreateProject(r.Context(), middleware.PrincipalFrom(r.Context()), req, image)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/projects/%d", project.ID), http.StatusSeeOther)
}

func (p *Pages) EditProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := p.pathID(w, r)
	if !ok {
		return
	}

	req := &entity.UpdateProjectRequest{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
	}
	if _, err := p.projectService.UpdateProject(r.Context(), middleware.PrincipalFrom(r.Context()), projectID, req); err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/projects/%d", projectID), http.StatusSeeOther)
}

func (p *Pages) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := p.pathID(w, r)
	if !ok {
		return
	}

	if _, err := p.projectService.DeleteProject(r.Context(), middleware.PrincipalFrom(r.Context()), projectID); err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/projects", http.StatusSeeOther)
}

func (p *Pages) StatusStatistics(w http.ResponseWriter, r *http.Request) {
	projectID, ok := p.pathID(w, r)
	if !ok {
		return
	}

	stats, err := p.projectService.StatusStatistics(r.Context(), projectID)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.render(w, http.StatusOK, "statistics", statisticsView{
		Principal: middleware.PrincipalFrom(r.Context()),
		CSRFToken: middleware.CSRFTokenFrom(r.Context()),
		ProjectID: projectID,
		Title:     "Tasks by status",
		Stats:     stats,
	})
}

func (p *Pages) AssigneeStatistics(w http.ResponseWriter, r *http.Request) {
	projectID, ok := p.pathID(w, r)
	if !ok {
		return
	}

	stats, err := p.projectService.AssigneeStatistics(r.Context(), projectID)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.render(w, http.StatusOK, "statistics", statisticsView{
		Principal: middleware.PrincipalFrom(r.Context()),
		CSRFToken: middleware.CSRFTokenFrom(r.Context()),
		ProjectID: projectID,
		Title:     "Tasks by assignee",
		Stats:     stats,
	})
}

func (p *Pages) MyTasks(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFrom(r.Context())
	tasks, err := p.taskService.ListAssignedTasks(r.Context(), principal)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.render(w, http.StatusOK, "tasks", tasksView{Principal: principal, CSRFToken: middleware.CSRFTokenFrom(r.Context()), Tasks: tasks})
}

func (p *Pages) TaskDetail(w http.ResponseWriter, r *http.Request) {
	taskID, ok := p.pathID(w, r)
	if !ok {
		return
	}
	principal := middleware.PrincipalFrom(r.Context())

	detail, err := p.taskService.GetTaskDetail(r.Context(), principal, taskID)
	if err != nil {
		p.fail(w, r, err)
		return
	}
	p.render(w, http.StatusOK, "task", taskView{Principal: principal, CSRFToken: middleware.CSRFTokenFrom(r.Context()), Task: detail})
}

// CreateTask добавляет задачу в проект из формы на странице проекта
func (p *Pages) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := p.pathID(w, r)
	if !ok {
		return
	}
	deadline, err := formDate(r, "deadline")
	if err != nil {
		p.fail(w, r, err)
		return
	}

	req := &entity.CreateTaskRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Deadline:    deadline,
		Status:      entity.TaskStatus(r.FormValue("status")),
		ProjectID:   projectID,
		AssigneeID:  formInt(r, "assigneeId"),
	}
	if _, err := p.taskService.CreateTask(r.Context(), middleware.PrincipalFrom(r.Context()), req); err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/projects/%d", projectID), http.StatusSeeOther)
}

func (p *Pages) EditTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := p.pathID(w, r)
	if !ok {
		return
	}

	req := &entity.UpdateTaskRequest{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Status:      entity.TaskStatus(r.FormValue("status")),
		ProjectID:   formInt(r, "projectId"),
	}
	if _, err := p.taskService.UpdateTask(r.Context(), middleware.PrincipalFrom(r.Context()), taskID, req); err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/tasks/%d", taskID), http.StatusSeeOther)
}

func (p *Pages) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := p.pathID(w, r)
	if !ok {
		return
	}

	if err := p.taskService.DeleteTask(r.Context(), middleware.PrincipalFrom(r.Context()), taskID); err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (p *Pages) AddComment(w http.ResponseWriter, r *http.Request) {
	taskID, ok := p.pathID(w, r)
	if !ok {
		return
	}

	req := &entity.CreateCommentRequest{
		TaskID:  taskID,
		Content: strings.TrimSpace(r.FormValue("content")),
	}
	if _, err := p.commentService.CreateComment(r.Context(), middleware.PrincipalFrom(r.Context()), req); err != nil {
		p.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/tasks/%d", taskID), http.StatusSeeOther)
}
