package handlers

import (
	"net/http"
	"strconv"

	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/sirupsen/logrus"
)

type CommentHandler struct {
	commentService *usecase.CommentService
	log            *logrus.Logger
}

func NewCommentHandler(commentService *usecase.CommentService, log *logrus.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		log:            log,
	}
}

func (h *CommentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	comments, err := h.commentService.ListAll(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) ListByTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.Atoi(r.URL.Query().Get("taskId"))
	if err != nil {
		http.Error(w, "Invalid taskId", http.StatusBadRequest)
		return
	}

	comments, err := h.commentService.ListByTask(r.Context(), taskID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	comment, err := h.commentService.GetComment(r.Context(), commentID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), middleware.PrincipalFrom(r.Context()), &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req entity.UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.commentService.UpdateComment(r.Context(), middleware.PrincipalFrom(r.Context()), commentID, &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), middleware.PrincipalFrom(r.Context()), commentID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
