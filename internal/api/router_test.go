package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/infrastructure/auth"
	"github.com/St1cky1/task-tracker/internal/infrastructure/client"
	"github.com/St1cky1/task-tracker/internal/repository/repotest"
	"github.com/St1cky1/task-tracker/internal/usecase"
	"github.com/sirupsen/logrus"
)

type fakePinger struct{ err error }

func (p fakePinger) HealthCheck(context.Context) error { return p.err }

type testServer struct {
	handler http.Handler
	store   *repotest.Store
	tokens  *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)
	noop := client.Noop{Log: log, Name: "test"}

	store := repotest.NewStore()
	tokens := auth.NewJWTManager("test-secret")
	services := Services{
		Projects: usecase.NewProjectService(store.Projects(), store.Tasks(), store.Users(), noop, noop, noop, log),
		Tasks:    usecase.NewTaskService(store.Tasks(), store.Projects(), store.Users(), store.Comments(), store.Audits(), noop, noop, log),
		Comments: usecase.NewCommentService(store.Comments(), store.Tasks(), store.Users(), noop, log),
		Users:    usecase.NewUserService(store.Users(), log),
	}

	return &testServer{
		handler: NewRouter(services, RouterConfig{
			Tokens:   tokens,
			DB:       fakePinger{},
			LoginURL: "/login",
			Log:      log,
		}),
		store:  store,
		tokens: tokens,
	}
}

func (s *testServer) user(t *testing.T, name string) (*entity.User, string) {
	t.Helper()
	u, err := s.store.Users().Create(context.Background(), &entity.CreateUserRequest{Username: name})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := s.tokens.GenerateAccessToken(u.ID, u.Username)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return u, token
}

func (s *testServer) do(method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

const testCSRFToken = "csrf-test-token"

// form posts like a browser that loaded the page first: the csrf cookie and the hidden
// field carry the same value.
func (s *testServer) form(target, token string, values url.Values) *httptest.ResponseRecorder {
	if values == nil {
		values = url.Values{}
	}
	values.Set("csrf_token", testCSRFToken)
	return s.rawForm(target, token, testCSRFToken, values)
}

func (s *testServer) rawForm(target, token, csrfCookie string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	if csrfCookie != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrfCookie})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createProject(t *testing.T, token, name string) entity.Project {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/projects", token, `{"name":"`+name+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: status %d body %q", rec.Code, rec.Body.String())
	}
	var project entity.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	return project
}

func TestAPIMutationsRequireToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/api/projects", `{"name":"A"}`},
		{http.MethodPut, "/api/projects/1", `{"name":"A"}`},
		{http.MethodDelete, "/api/projects/1", ""},
		{http.MethodPost, "/api/tasks", `{"title":"T"}`},
		{http.MethodDelete, "/api/comments/1", ""},
		{http.MethodDelete, "/api/users/1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := s.do(tt.method, tt.target, "", tt.body)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestCreateProjectOwnedByCaller(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")

	project := s.createProject(t, token, "Apollo")
	if project.OwnerID != alice.ID {
		t.Errorf("expected owner %d, got %d", alice.ID, project.OwnerID)
	}

	rec := s.do(http.MethodGet, "/api/projects/"+strconv.Itoa(project.ID), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/projects/999",
		"/api/projects/abc",
		"/api/projects/abc/statistics/status",
		"/api/projects/999/statistics/status",
		"/api/projects/999/statistics/assignees",
	} {
		rec := s.do(http.MethodGet, target, "", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", target, rec.Code)
		}
	}
}

func TestCreateTaskMissingProject(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")

	body := `{"title":"T","status":"To Do","projectId":77,"assigneeId":` + strconv.Itoa(alice.ID) + `}`
	rec := s.do(http.MethodPost, "/api/tasks", token, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "Project with this ID does not exist." {
		t.Errorf("unexpected body %q", got)
	}
	if _, tasks, _ := s.store.Counts(); tasks != 0 {
		t.Errorf("expected no tasks persisted, got %d", tasks)
	}
}

func TestCreateTaskInvalidStatus(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	project := s.createProject(t, token, "Apollo")

	body := `{"title":"T","status":"Blocked","projectId":` + strconv.Itoa(project.ID) +
		`,"assigneeId":` + strconv.Itoa(alice.ID) + `}`
	rec := s.do(http.MethodPost, "/api/tasks", token, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "status") {
		t.Errorf("expected status message, got %q", rec.Body.String())
	}
}

func TestDeleteProjectByStrangerForbidden(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user(t, "alice")
	_, strangerToken := s.user(t, "mallory")
	project := s.createProject(t, ownerToken, "Apollo")

	rec := s.do(http.MethodDelete, "/api/projects/"+strconv.Itoa(project.ID), strangerToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if projects, _, _ := s.store.Counts(); projects != 1 {
		t.Errorf("expected project to survive, got %d projects", projects)
	}
}

func TestDeleteProjectReportsRemovedTasks(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	project := s.createProject(t, token, "Apollo")

	for _, title := range []string{"a", "b", "c"} {
		body := `{"title":"` + title + `","status":"To Do","projectId":` + strconv.Itoa(project.ID) +
			`,"assigneeId":` + strconv.Itoa(alice.ID) + `}`
		if rec := s.do(http.MethodPost, "/api/tasks", token, body); rec.Code != http.StatusCreated {
			t.Fatalf("create task: %d %q", rec.Code, rec.Body.String())
		}
	}

	rec := s.do(http.MethodDelete, "/api/projects/"+strconv.Itoa(project.ID), token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result map[string]int
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result["tasksRemoved"] != 3 {
		t.Errorf("expected 3 removed tasks, got %v", result)
	}
	if _, tasks, _ := s.store.Counts(); tasks != 0 {
		t.Errorf("expected no tasks left, got %d", tasks)
	}
}

func TestListProjectsPagination(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice")
	for i := 1; i <= 25; i++ {
		s.createProject(t, token, "P"+strconv.Itoa(i))
	}

	rec := s.do(http.MethodGet, "/api/projects?pageNumber=3&pageSize=10", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=60" {
		t.Errorf("unexpected Cache-Control %q", got)
	}

	var page entity.ProjectPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalRecords != 25 || page.TotalPages != 3 || len(page.Data) != 5 {
		t.Errorf("unexpected page %+v", page)
	}
	if page.NextPage != nil {
		t.Errorf("expected no next page, got %q", *page.NextPage)
	}
	if page.PreviousPage == nil || *page.PreviousPage != "http://example.com/api/projects?pageNumber=2&pageSize=10" {
		t.Errorf("unexpected previous page %v", page.PreviousPage)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/projects/search?query=apollo", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "Error searching: ") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/api/projects/search?query=", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank query, got %d", rec.Code)
	}
}

func TestDeleteUserWithAssignedTasksConflict(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	project := s.createProject(t, token, "Apollo")
	body := `{"title":"T","status":"Done","projectId":` + strconv.Itoa(project.ID) +
		`,"assigneeId":` + strconv.Itoa(alice.ID) + `}`
	s.do(http.MethodPost, "/api/tasks", token, body)

	rec := s.do(http.MethodDelete, "/api/users/"+strconv.Itoa(alice.ID), token, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	down := newTestServer(t)
	down.handler = NewRouter(Services{}, RouterConfig{
		Tokens:   down.tokens,
		DB:       fakePinger{err: errors.New("connection refused")},
		LoginURL: "/login",
		Log:      logrus.New(),
	})
	if rec := down.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestPagesRedirectToLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/projects?x=1", "", "")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login?returnUrl=%2Fprojects%3Fx%3D1" {
		t.Errorf("unexpected Location %q", got)
	}
}

func TestProjectPageOwnerOnly(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user(t, "alice")
	_, strangerToken := s.user(t, "mallory")
	project := s.createProject(t, ownerToken, "Apollo")
	target := "/projects/" + strconv.Itoa(project.ID)

	if rec := s.do(http.MethodGet, target, strangerToken, ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for stranger, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, target, ownerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Apollo") {
		t.Errorf("expected project name in page")
	}
}

func TestTaskPageFlow(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	project := s.createProject(t, token, "Apollo")

	rec := s.form("/projects/"+strconv.Itoa(project.ID)+"/tasks", token, url.Values{
		"title":      {"Write docs"},
		"status":     {"In Progress"},
		"assigneeId": {strconv.Itoa(alice.ID)},
		"deadline":   {"2026-12-01"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create task: expected 303, got %d %q", rec.Code, rec.Body.String())
	}

	tasks, _ := s.store.Tasks().List(context.Background(), entity.TaskFilter{ProjectID: project.ID})
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	taskPath := "/tasks/" + strconv.Itoa(tasks[0].ID)

	for _, content := range []string{"first", "second"} {
		rec = s.form(taskPath+"/comments", token, url.Values{"content": {content}})
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("comment: expected 303, got %d", rec.Code)
		}
	}

	rec = s.do(http.MethodGet, taskPath, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Index(body, "second") > strings.Index(body, "first") {
		t.Errorf("expected newest comment first")
	}

	rec = s.form(taskPath+"/delete", token, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/tasks" {
		t.Errorf("delete: unexpected %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, remaining, comments := s.store.Counts(); remaining != 0 || comments != 0 {
		t.Errorf("expected task and comments removed, got %d tasks %d comments", remaining, comments)
	}
}

func TestPageFormsRequireCSRFToken(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice")
	project := s.createProject(t, token, "Apollo")
	target := "/projects/" + strconv.Itoa(project.ID) + "/delete"

	tests := []struct {
		name   string
		cookie string
		field  string
	}{
		{"no token at all", "", ""},
		{"cookie without field", "abc", ""},
		{"field without cookie", "", "abc"},
		{"mismatch", "abc", "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			if tt.field != "" {
				values.Set("csrf_token", tt.field)
			}
			rec := s.rawForm(target, token, tt.cookie, values)
			if rec.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", rec.Code)
			}
		})
	}

	if rec := s.do(http.MethodGet, "/api/projects/"+strconv.Itoa(project.ID), "", ""); rec.Code != http.StatusOK {
		t.Errorf("expected project to survive, got %d", rec.Code)
	}
}

func TestPagesIssueCSRFToken(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice")

	rec := s.do(http.MethodGet, "/projects", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var issued string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrf_token" {
			issued = c.Value
		}
	}
	if issued == "" {
		t.Fatalf("expected csrf_token cookie to be issued")
	}
	if !strings.Contains(rec.Body.String(), `name="csrf_token" value="`+issued+`"`) {
		t.Errorf("expected form to carry the issued token")
	}

	rec = s.rawForm("/projects", token, issued, url.Values{"name": {"Gemini"}, "csrf_token": {issued}})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected 303 with the issued token, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGetProjectIncludesTaskCount(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	project := s.createProject(t, token, "Apollo")
	for _, title := range []string{"a", "b"} {
		body := `{"title":"` + title + `","status":"To Do","projectId":` + strconv.Itoa(project.ID) +
			`,"assigneeId":` + strconv.Itoa(alice.ID) + `}`
		s.do(http.MethodPost, "/api/tasks", token, body)
	}

	rec := s.do(http.MethodGet, "/api/projects/"+strconv.Itoa(project.ID), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["taskCount"] != float64(2) || got["name"] != "Apollo" {
		t.Errorf("unexpected project body %v", got)
	}
}

func TestEmptyListsAreArrays(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	project := s.createProject(t, token, "Empty")
	id := strconv.Itoa(project.ID)

	for _, target := range []string{
		"/api/tasks",
		"/api/tasks?projectId=" + id,
		"/api/comments/all",
	} {
		rec := s.do(http.MethodGet, target, "", "")
		if got := strings.TrimSpace(rec.Body.String()); rec.Code != http.StatusOK || got != "[]" {
			t.Errorf("%s: expected 200 [], got %d %q", target, rec.Code, got)
		}
	}

	rec := s.do(http.MethodPost, "/api/tasks", token, `{"title":"T","status":"To Do","projectId":`+id+`,"assigneeId":`+strconv.Itoa(alice.ID)+`}`)
	var task entity.Task
	json.Unmarshal(rec.Body.Bytes(), &task)
	rec = s.do(http.MethodGet, "/api/comments?taskId="+strconv.Itoa(task.ID), "", "")
	if got := strings.TrimSpace(rec.Body.String()); rec.Code != http.StatusOK || got != "[]" {
		t.Errorf("comments by task: expected 200 [], got %d %q", rec.Code, got)
	}
}

func TestListProjectsHugePageNumber(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice")
	s.createProject(t, token, "Apollo")

	rec := s.do(http.MethodGet, "/api/projects?pageNumber=922337203685477582&pageSize=10", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %q", rec.Code, rec.Body.String())
	}
	var page entity.ProjectPage
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.TotalRecords != 1 || len(page.Data) != 0 || page.NextPage != nil {
		t.Errorf("unexpected page %+v", page)
	}
}
