package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/sirupsen/logrus"
)

const maxImageSize = 10 << 20

type ProjectHandler struct {
	projectService *usecase.ProjectService
	log            *logrus.Logger
}

func NewProjectHandler(projectService *usecase.ProjectService, log *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		log:            log,
	}
}

// ListProjects отдает страницу проектов со ссылками на соседние страницы
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageNumber, _ := strconv.Atoi(query.Get("pageNumber"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	page, err := h.projectService.ListProjects(r.Context(), usecase.PageRequest{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		Base:       requestBase(r),
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ProjectHandler) SearchProjects(w http.ResponseWriter, r *http.Request) {
	results, err := h.projectService.SearchProjects(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		if errors.Is(err, entity.ErrUpstream) {
			h.log.WithError(err).Error("project search failed")
			http.Error(w, "Error searching: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req entity.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := h.projectService.CreateProject(r.Context(), middleware.PrincipalFrom(r.Context()), &req, nil)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req entity.UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	project, err := h.projectService.UpdateProject(r.Context(), middleware.PrincipalFrom(r.Context()), projectID, &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	removed, err := h.projectService.DeleteProject(r.Context(), middleware.PrincipalFrom(r.Context()), projectID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"id": projectID, "tasksRemoved": removed})
}

func (h *ProjectHandler) SetImage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	image, err := ReadImage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if image == nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}

	project, err := h.projectService.SetProjectImage(r.Context(), middleware.PrincipalFrom(r.Context()), projectID, image)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projectService.RemoveProjectImage(r.Context(), middleware.PrincipalFrom(r.Context()), projectID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) StatusStatistics(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.projectService.StatusStatistics(r.Context(), projectID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ProjectHandler) AssigneeStatistics(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.projectService.AssigneeStatistics(r.Context(), projectID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ReadImage extracts the optional multipart "image" file. It returns nil when the
// request carries no file.
func ReadImage(r *http.Request) (*entity.ProjectImage, error) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.New("invalid multipart form")
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, errors.New("invalid image upload")
	}
	if len(data) > maxImageSize {
		return nil, errors.New("image is too large")
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &entity.ProjectImage{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// requestBase is the absolute URL of the current path, used for page links.
func requestBase(r *http.Request) *url.URL {
	return &url.URL{Scheme: middleware.RequestScheme(r), Host: r.Host, Path: r.URL.Path}
}
