package api

import (
	"net/http"
	"time"

	"github.com/St1cky1/task-tracker/internal/api/handlers"
	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/api/web"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const responseCacheTTL = 60 * time.Second

type Services struct {
	Projects *usecase.ProjectService
	Tasks    *usecase.TaskService
	Comments *usecase.CommentService
	Users    *usecase.UserService
}

type RouterConfig struct {
	Tokens   middleware.TokenValidator
	DB       handlers.Pinger
	Cache    middleware.ResponseStore // nil disables the shared response cache
	LoginURL string
	Log      *logrus.Logger
}

func NewRouter(services Services, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Authenticate(cfg.Tokens, cfg.Log))

	projectHandler := handlers.NewProjectHandler(services.Projects, cfg.Log)
	taskHandler := handlers.NewTaskHandler(services.Tasks, cfg.Log)
	commentHandler := handlers.NewCommentHandler(services.Comments, cfg.Log)
	userHandler := handlers.NewUserHandler(services.Users, cfg.Log)
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Log)
	pages := web.NewPages(services.Projects, services.Tasks, services.Comments, cfg.LoginURL, cfg.Log)

	r.Get("/healthz", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.With(middleware.CacheResponse(cfg.Cache, responseCacheTTL, cfg.Log)).Get("/", projectHandler.ListProjects)
			r.Get("/search", projectHandler.SearchProjects)
			r.Get("/{id}", projectHandler.GetProject)
			r.Get("/{id}/statistics/status", projectHandler.StatusStatistics)
			r.Get("/{id}/statistics/assignees", projectHandler.AssigneeStatistics)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal)
				r.Post("/", projectHandler.CreateProject)
				r.Put("/{id}", projectHandler.UpdateProject)
				r.Delete("/{id}", projectHandler.DeleteProject)
				r.Put("/{id}/image", projectHandler.SetImage)
				r.Delete("/{id}/image", projectHandler.RemoveImage)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Get("/{id}", taskHandler.GetTask)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal)
				r.Post("/", taskHandler.CreateTask)
				r.Put("/{id}", taskHandler.UpdateTask)
				r.Delete("/{id}", taskHandler.DeleteTask)
				r.Get("/{id}/history", taskHandler.History)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", commentHandler.ListByTask)
			r.Get("/all", commentHandler.ListAll)
			r.Get("/{id}", commentHandler.GetComment)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal)
				r.Post("/", commentHandler.CreateComment)
				r.Put("/{id}", commentHandler.UpdateComment)
				r.Delete("/{id}", commentHandler.DeleteComment)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.CreateUser)
			r.Get("/{id}", userHandler.GetUser)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal)
				r.Put("/{id}/telegram", userHandler.SetTelegramChat)
				r.Delete("/{id}", userHandler.DeleteUser)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin(cfg.LoginURL))
		r.Use(middleware.VerifyCSRF(cfg.Log))

		r.Get("/projects", pages.MyProjects)
		r.Post("/projects", pages.CreateProject)
		r.Get("/projects/{id}", pages.ProjectDetail)
		r.Post("/projects/{id}/edit", pages.EditProject)
		r.Post("/projects/{id}/delete", pages.DeleteProject)
		r.Get("/projects/{id}/statistics/status", pages.StatusStatistics)
		r.Get("/projects/{id}/statistics/assignees", pages.AssigneeStatistics)
		r.Post("/projects/{id}/tasks", pages.CreateTask)

		r.Get("/tasks", pages.MyTasks)
		r.Get("/tasks/{id}", pages.TaskDetail)
		r.Post("/tasks/{id}/edit", pages.EditTask)
		r.Post("/tasks/{id}/delete", pages.DeleteTask)
		r.Post("/tasks/{id}/comments", pages.AddComment)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/projects", http.StatusFound)
	})

	return r
}
