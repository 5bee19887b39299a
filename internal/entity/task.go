package entity

import "time"

type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

var TaskStatuses = []TaskStatus{StatusToDo, StatusInProgress, StatusDone}

func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      TaskStatus `json:"status"`
	ProjectID   int        `json:"projectId"`
	AssigneeID  int        `json:"assigneeId"`
	Version     int        `json:"-"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskFilter narrows task listings; zero fields are ignored.
type TaskFilter struct {
	ProjectID  int
	AssigneeID int
}

type TaskDetail struct {
	Task
	ProjectName      string    `json:"projectName"`
	AssigneeUsername string    `json:"assigneeUsername"`
	Comments         []Comment `json:"comments"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	Deadline    *time.Time `json:"deadline"`
	Status      TaskStatus `json:"status" validate:"required,taskstatus"`
	ProjectID   int        `json:"projectId"`
	AssigneeID  int        `json:"assigneeId"`
}

// UpdateTaskRequest replaces every client-settable field of a task.
type UpdateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	Status      TaskStatus `json:"status" validate:"required,taskstatus"`
	ProjectID   int        `json:"projectId"`
}
