// Package repotest provides in-memory repositories with the same lookup, versioning and
// cascade behaviour as the Postgres implementations. It backs service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/St1cky1/task-tracker/internal/entity"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	seq      int
	users    map[int]entity.User
	projects map[int]entity.Project
	tasks    map[int]entity.Task
	comments map[int]entity.Comment
	audits   []entity.AuditRecord
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    map[int]entity.User{},
		projects: map[int]entity.Project{},
		tasks:    map[int]entity.Task{},
		comments: map[int]entity.Comment{},
	}
}

func (s *Store) nextID() int {
	s.seq++
	return s.seq
}

// tick returns strictly increasing timestamps so ordering by time is deterministic.
func (s *Store) tick() time.Time {
	return s.now().Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s} }
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s} }
func (s *Store) Tasks() *TaskRepository       { return &TaskRepository{s} }
func (s *Store) Comments() *CommentRepository { return &CommentRepository{s} }
func (s *Store) Audits() *AuditRepository     { return &AuditRepository{s} }

// Counts reports the number of stored projects, tasks and comments.
func (s *Store) Counts() (projects, tasks, comments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projects), len(s.tasks), len(s.comments)
}

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, req *entity.CreateUserRequest) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, req.Username) {
			return nil, entity.ErrUsernameTaken
		}
	}
	u := entity.User{
		ID:             r.s.nextID(),
		Username:       req.Username,
		TelegramChatID: req.TelegramChatID,
		CreatedAt:      r.s.tick(),
	}
	r.s.users[u.ID] = u
	return &u, nil
}

func (r *UserRepository) GetById(_ context.Context, id int) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) Exists(_ context.Context, id int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.users[id]
	return ok, nil
}

func (r *UserRepository) SetTelegramChatID(_ context.Context, id int, chatID *int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u.TelegramChatID = chatID
	r.s.users[id] = u
	return &u, nil
}

func (r *UserRepository) CountAssignedTasks(_ context.Context, id int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.assignedTasks(id), nil
}

func (s *Store) assignedTasks(userID int) int {
	n := 0
	for _, t := range s.tasks {
		if t.AssigneeID == userID {
			n++
		}
	}
	return n
}

func (r *UserRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return entity.ErrUserNotFound
	}

	if r.s.assignedTasks(id) > 0 {
		return entity.ErrUserHasAssignedTasks
	}

	for pid, p := range r.s.projects {
		if p.OwnerID == id {
			r.s.deleteProject(pid)
		}
	}
	for cid, c := range r.s.comments {
		if c.AuthorID == id {
			delete(r.s.comments, cid)
		}
	}
	delete(r.s.users, id)
	return nil
}

func (s *Store) deleteProject(id int) int {
	removed := 0
	for tid, t := range s.tasks {
		if t.ProjectID == id {
			s.deleteTask(tid)
			removed++
		}
	}
	delete(s.projects, id)
	return removed
}

func (s *Store) deleteTask(id int) {
	for cid, c := range s.comments {
		if c.TaskID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.tasks, id)
}

type ProjectRepository struct{ s *Store }

func (r *ProjectRepository) Create(_ context.Context, project *entity.Project) (*entity.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[project.OwnerID]; !ok {
		return nil, entity.MissingReference("User")
	}
	p := *project
	p.ID = r.s.nextID()
	p.Version = 1
	p.CreatedAt = r.s.tick()
	p.UpdatedAt = p.CreatedAt
	r.s.projects[p.ID] = p
	return &p, nil
}

func (r *ProjectRepository) GetById(_ context.Context, id int) (*entity.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProjectRepository) Exists(_ context.Context, id int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.projects[id]
	return ok, nil
}

func (r *ProjectRepository) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return len(r.s.projects), nil
}

func (r *ProjectRepository) ListPage(_ context.Context, offset, limit int) ([]entity.ProjectSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]int, 0, len(r.s.projects))
	for id := range r.s.projects {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := []entity.ProjectSummary{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, r.s.summary(ids[i]))
	}
	return out, nil
}

func (s *Store) summary(id int) entity.ProjectSummary {
	p := s.projects[id]
	count := 0
	for _, t := range s.tasks {
		if t.ProjectID == id {
			count++
		}
	}
	return entity.ProjectSummary{ID: p.ID, Name: p.Name, Description: p.Description, TaskCount: count}
}

func (r *ProjectRepository) GetSummary(_ context.Context, id int) (*entity.ProjectSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return nil, nil
	}
	summary := r.s.summary(id)
	return &summary, nil
}

func (r *ProjectRepository) ListByOwner(_ context.Context, ownerID int) ([]entity.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]entity.Project, 0)
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ProjectRepository) Update(_ context.Context, project *entity.Project) (*entity.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.projects[project.ID]
	if !ok || current.Version != project.Version {
		return nil, entity.ErrConcurrencyConflict
	}
	current.Name = project.Name
	current.Description = project.Description
	current.ImagePath = project.ImagePath
	current.Version++
	current.UpdatedAt = r.s.tick()
	r.s.projects[current.ID] = current
	return &current, nil
}

func (r *ProjectRepository) DeleteWithTasks(_ context.Context, id int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return 0, entity.ErrProjectNotFound
	}
	return r.s.deleteProject(id), nil
}

type TaskRepository struct{ s *Store }

func (r *TaskRepository) Create(_ context.Context, task *entity.Task) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[task.ProjectID]; !ok {
		return nil, entity.MissingReference("Project")
	}
	if _, ok := r.s.users[task.AssigneeID]; !ok {
		return nil, entity.MissingReference("User")
	}
	t := *task
	t.ID = r.s.nextID()
	t.Version = 1
	t.CreatedAt = r.s.tick()
	t.UpdatedAt = t.CreatedAt
	r.s.tasks[t.ID] = t
	return &t, nil
}

func (r *TaskRepository) GetByTaskId(_ context.Context, taskId int) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[taskId]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TaskRepository) Exists(_ context.Context, id int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.tasks[id]
	return ok, nil
}

func (r *TaskRepository) List(_ context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]entity.Task, 0)
	for _, t := range r.s.tasks {
		if filter.ProjectID != 0 && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.AssigneeID != 0 && t.AssigneeID != filter.AssigneeID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TaskRepository) Update(_ context.Context, task *entity.Task) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.tasks[task.ID]
	if !ok || current.Version != task.Version {
		return nil, entity.ErrConcurrencyConflict
	}
	if _, ok := r.s.projects[task.ProjectID]; !ok {
		return nil, entity.MissingReference("Project")
	}
	current.Title = task.Title
	current.Description = task.Description
	current.Status = task.Status
	current.ProjectID = task.ProjectID
	current.Version++
	current.UpdatedAt = r.s.tick()
	r.s.tasks[current.ID] = current
	return &current, nil
}

func (r *TaskRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return entity.ErrTaskNotFound
	}
	r.s.deleteTask(id)
	return nil
}

func (r *TaskRepository) CountByStatus(_ context.Context, projectID int) (entity.TaskStatistics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := entity.TaskStatistics{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			stats[string(t.Status)]++
		}
	}
	return stats, nil
}

func (r *TaskRepository) CountByAssignee(_ context.Context, projectID int) (entity.TaskStatistics, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := entity.TaskStatistics{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			stats[r.s.users[t.AssigneeID].Username]++
		}
	}
	return stats, nil
}

type CommentRepository struct{ s *Store }

func (r *CommentRepository) Create(_ context.Context, comment *entity.Comment) (*entity.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[comment.TaskID]; !ok {
		return nil, entity.MissingReference("Task")
	}
	author, ok := r.s.users[comment.AuthorID]
	if !ok {
		return nil, entity.MissingReference("User")
	}
	c := *comment
	c.ID = r.s.nextID()
	c.Version = 1
	c.AuthorUsername = author.Username
	c.CreatedAt = r.s.tick()
	c.UpdatedAt = c.CreatedAt
	r.s.comments[c.ID] = c
	return &c, nil
}

func (r *CommentRepository) GetById(_ context.Context, id int) (*entity.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CommentRepository) ListAll(_ context.Context) ([]entity.Comment, error) {
	return r.list(func(entity.Comment) bool { return true }), nil
}

func (r *CommentRepository) ListByTask(_ context.Context, taskID int) ([]entity.Comment, error) {
	return r.list(func(c entity.Comment) bool { return c.TaskID == taskID }), nil
}

func (r *CommentRepository) list(keep func(entity.Comment) bool) []entity.Comment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]entity.Comment, 0)
	for _, c := range r.s.comments {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *CommentRepository) Update(_ context.Context, comment *entity.Comment) (*entity.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.comments[comment.ID]
	if !ok || current.Version != comment.Version {
		return nil, entity.ErrConcurrencyConflict
	}
	current.Content = comment.Content
	current.Version++
	current.UpdatedAt = r.s.tick()
	r.s.comments[current.ID] = current
	return &current, nil
}

func (r *CommentRepository) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return entity.ErrCommentNotFound
	}
	delete(r.s.comments, id)
	return nil
}

type AuditRepository struct{ s *Store }

func (r *AuditRepository) Create(_ context.Context, audit *entity.AuditRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	audit.ID = r.s.nextID()
	if audit.ChangedAt.IsZero() {
		audit.ChangedAt = r.s.tick()
	}
	r.s.audits = append(r.s.audits, *audit)
	return nil
}

func (r *AuditRepository) ListByEntity(_ context.Context, entityType string, entityID int) ([]entity.AuditRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]entity.AuditRecord, 0)
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		a := r.s.audits[i]
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}
