package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/St1cky1/task-tracker/internal/repository/repotest"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// MockAuditPublisher - мок для AuditPublisher
type MockAuditPublisher struct {
	mu       sync.Mutex
	Messages []*entity.AuditMessage
	Err      error
}

func (m *MockAuditPublisher) PublishAuditMessage(_ context.Context, message *entity.AuditMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, message)
	return m.Err
}

// MockNotifier - мок для Notifier
type MockNotifier struct {
	SendFunc func(ctx context.Context, chatID int64, text string) error
	Sent     []string
}

func (m *MockNotifier) Send(ctx context.Context, chatID int64, text string) error {
	m.Sent = append(m.Sent, text)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, chatID, text)
	}
	return nil
}

// MockImageStore - мок для ImageStore
type MockImageStore struct {
	PutErr  error
	Stored  map[string][]byte
	Deleted []string
}

func (m *MockImageStore) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	if m.PutErr != nil {
		return "", m.PutErr
	}
	if m.Stored == nil {
		m.Stored = map[string][]byte{}
	}
	ref := "https://blobs.test/images/" + name
	m.Stored[ref] = data
	return ref, nil
}

func (m *MockImageStore) Delete(_ context.Context, reference string) error {
	m.Deleted = append(m.Deleted, reference)
	delete(m.Stored, reference)
	return nil
}

// MockProjectIndex - мок для ProjectIndex
type MockProjectIndex struct {
	SearchFunc func(ctx context.Context, query string) ([]entity.ProjectDocument, error)
	Docs       map[int]entity.ProjectDocument
}

func (m *MockProjectIndex) Search(ctx context.Context, query string) ([]entity.ProjectDocument, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockProjectIndex) Upsert(_ context.Context, doc entity.ProjectDocument) error {
	if m.Docs == nil {
		m.Docs = map[int]entity.ProjectDocument{}
	}
	m.Docs[doc.ID] = doc
	return nil
}

func (m *MockProjectIndex) Remove(_ context.Context, id int) error {
	if _, ok := m.Docs[id]; !ok {
		return errors.New("document not found")
	}
	delete(m.Docs, id)
	return nil
}

// fixture wires every service over one in-memory store.
type fixture struct {
	store     *repotest.Store
	projects  *ProjectService
	tasks     *TaskService
	comments  *CommentService
	users     *UserService
	notifier  *MockNotifier
	images    *MockImageStore
	index     *MockProjectIndex
	publisher *MockAuditPublisher
}

func newFixture() *fixture {
	store := repotest.NewStore()
	log := quietLogger()
	f := &fixture{
		store:     store,
		notifier:  &MockNotifier{},
		images:    &MockImageStore{},
		index:     &MockProjectIndex{},
		publisher: &MockAuditPublisher{},
	}
	f.projects = NewProjectService(store.Projects(), store.Tasks(), store.Users(), f.images, f.index, f.publisher, log)
	f.tasks = NewTaskService(store.Tasks(), store.Projects(), store.Users(), store.Comments(), store.Audits(), f.notifier, f.publisher, log)
	f.comments = NewCommentService(store.Comments(), store.Tasks(), store.Users(), f.publisher, log)
	f.users = NewUserService(store.Users(), log)
	return f
}

func (f *fixture) user(name string, chatID *int64) entity.Principal {
	u, err := f.store.Users().Create(context.Background(), &entity.CreateUserRequest{Username: name, TelegramChatID: chatID})
	if err != nil {
		panic(err)
	}
	return entity.Principal{UserID: u.ID, Username: u.Username}
}

func (f *fixture) project(owner entity.Principal, name string) *entity.Project {
	p, err := f.projects.CreateProject(context.Background(), owner, &entity.CreateProjectRequest{Name: name}, nil)
	if err != nil {
		panic(err)
	}
	return p
}

func (f *fixture) task(owner entity.Principal, projectID, assigneeID int, title string, status entity.TaskStatus) *entity.Task {
	t, err := f.tasks.CreateTask(context.Background(), owner, &entity.CreateTaskRequest{
		Title:      title,
		Status:     status,
		ProjectID:  projectID,
		AssigneeID: assigneeID,
	})
	if err != nil {
		panic(err)
	}
	return t
}

func int64Ptr(v int64) *int64 { return &v }
