package handlers

import (
	"net/http"
	"strconv"

	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/sirupsen/logrus"
)

type TaskHandler struct {
	taskService *usecase.TaskService
	log         *logrus.Logger
}

func NewTaskHandler(taskService *usecase.TaskService, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// создаем новую задачу, исполнитель получит уведомление
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), middleware.PrincipalFrom(r.Context()), &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), taskID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var filter entity.TaskFilter
	if raw := r.URL.Query().Get("projectId"); raw != "" {
		projectID, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid projectId", http.StatusBadRequest)
			return
		}
		filter.ProjectID = projectID
	}

	tasks, err := h.taskService.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req entity.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), middleware.PrincipalFrom(r.Context()), taskID, &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), middleware.PrincipalFrom(r.Context()), taskID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) History(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	history, err := h.taskService.TaskHistory(r.Context(), middleware.PrincipalFrom(r.Context()), taskID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
