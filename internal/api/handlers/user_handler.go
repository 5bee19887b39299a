package handlers

import (
	"net/http"

	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService *usecase.UserService
	log         *logrus.Logger
}

func NewUserHandler(userService *usecase.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.CreateUser(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SetTelegramChat привязывает (или отвязывает при null) чат для уведомлений
func (h *UserHandler) SetTelegramChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req entity.SetTelegramChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.SetTelegramChatID(r.Context(), middleware.PrincipalFrom(r.Context()), userID, req.TelegramChatID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), middleware.PrincipalFrom(r.Context()), userID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
