package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/St1cky1/task-tracker/internal/api/middleware"
	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"statuses": func() []entity.TaskStatus { return entity.TaskStatuses },
}

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"projects", "project", "statistics", "tasks", "task", "error"} {
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(
			templateFS, "templates/layout.html", "templates/"+name+".html",
		))
	}
}

type renderer struct {
	loginURL string
	log      *logrus.Logger
}

func (rn *renderer) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].Execute(&buf, data); err != nil {
		rn.log.WithError(err).WithField("page", page).Error("template execution failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

type errorPage struct {
	Status  int
	Title   string
	Message string
}

// fail renders the error page matching err. Unauthenticated requests go to the login page.
func (rn *renderer) fail(w http.ResponseWriter, r *http.Request, err error) {
	page := errorPage{Message: err.Error()}
	switch {
	case errors.Is(err, entity.ErrUnauthenticated):
		http.Redirect(w, r, middleware.LoginRedirect(rn.loginURL, r.URL.RequestURI()), http.StatusSeeOther)
		return
	case entity.IsNotFound(err):
		page.Status = http.StatusNotFound
	case errors.Is(err, entity.ErrForbidden):
		page.Status = http.StatusForbidden
		page.Message = "You do not have access to this resource."
	case errors.Is(err, entity.ErrMissingReference), errors.Is(err, entity.ErrInvalidInput):
		page.Status = http.StatusBadRequest
	default:
		rn.log.WithError(err).WithField("path", r.URL.Path).Error("page request failed")
		page.Status = http.StatusInternalServerError
		page.Message = "Something went wrong."
	}
	page.Title = http.StatusText(page.Status)
	rn.render(w, page.Status, "error", page)
}

func (rn *renderer) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		rn.render(w, http.StatusNotFound, "error", errorPage{
			Status:  http.StatusNotFound,
			Title:   http.StatusText(http.StatusNotFound),
			Message: "Page not found.",
		})
		return 0, false
	}
	return id, true
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	return n
}

func formDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: The field 'deadline' must be a date.", entity.ErrInvalidInput)
	}
	return &t, nil
}
