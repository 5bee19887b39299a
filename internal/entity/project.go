package entity

import "time"

type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImagePath   *string   `json:"imagePath,omitempty"`
	OwnerID     int       `json:"ownerId"`
	Version     int       `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectSummary is the list/search representation of a project.
type ProjectSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TaskCount   int    `json:"taskCount"`
}

type ProjectPage struct {
	PageNumber   int              `json:"pageNumber"`
	PageSize     int              `json:"pageSize"`
	TotalRecords int              `json:"totalRecords"`
	TotalPages   int              `json:"totalPages"`
	NextPage     *string          `json:"nextPage,omitempty"`
	PreviousPage *string          `json:"previousPage,omitempty"`
	Data         []ProjectSummary `json:"data"`
}

// ProjectDetail is what the owner sees on the project page.
type ProjectDetail struct {
	Project
	OwnerUsername string `json:"ownerUsername"`
	Tasks         []Task `json:"tasks"`
}

// ProjectDocument is the shape stored in the search index.
type ProjectDocument struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=4000"`
}

type ProjectImage struct {
	FileName    string
	ContentType string
	Data        []byte
}

// TaskStatistics maps a group key (status label or assignee username) to a task count.
type TaskStatistics map[string]int
