package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"testing"

	"github.com/St1cky1/task-tracker/internal/entity"
)

func TestListProjectsPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	for i := 1; i <= 25; i++ {
		f.project(owner, fmt.Sprintf("Project %02d", i))
	}
	base, _ := url.Parse("https://tracker.test/api/projects?pageNumber=3&pageSize=10")

	tests := []struct {
		name         string
		pageNumber   int
		wantItems    int
		wantNext     string
		wantPrevious string
	}{
		{"first page", 1, 10, "https://tracker.test/api/projects?pageNumber=2&pageSize=10", ""},
		{"middle page", 2, 10, "https://tracker.test/api/projects?pageNumber=3&pageSize=10", "https://tracker.test/api/projects?pageNumber=1&pageSize=10"},
		{"last page", 3, 5, "", "https://tracker.test/api/projects?pageNumber=2&pageSize=10"},
		{"beyond last page", 4, 0, "", "https://tracker.test/api/projects?pageNumber=3&pageSize=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.projects.ListProjects(ctx, PageRequest{PageNumber: tt.pageNumber, PageSize: 10, Base: base})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if page.TotalRecords != 25 || page.TotalPages != 3 {
				t.Errorf("Expected 25 records in 3 pages, got %d in %d", page.TotalRecords, page.TotalPages)
			}
			if len(page.Data) != tt.wantItems {
				t.Errorf("Expected %d items, got %d", tt.wantItems, len(page.Data))
			}
			if got := deref(page.NextPage); got != tt.wantNext {
				t.Errorf("Expected next %q, got %q", tt.wantNext, got)
			}
			if got := deref(page.PreviousPage); got != tt.wantPrevious {
				t.Errorf("Expected previous %q, got %q", tt.wantPrevious, got)
			}
		})
	}
}

func TestListProjectsOrderAndTaskCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	first := f.project(owner, "First")
	f.project(owner, "Second")
	f.task(owner, first.ID, owner.UserID, "a", entity.StatusToDo)
	f.task(owner, first.ID, owner.UserID, "b", entity.StatusDone)

	page, err := f.projects.ListProjects(ctx, PageRequest{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.PageNumber != 1 || page.PageSize != DefaultPageSize {
		t.Errorf("Expected defaults 1/%d, got %d/%d", DefaultPageSize, page.PageNumber, page.PageSize)
	}
	if len(page.Data) != 2 || page.Data[0].Name != "First" || page.Data[0].TaskCount != 2 || page.Data[1].TaskCount != 0 {
		t.Errorf("unexpected data %+v", page.Data)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		in         PageRequest
		wantNumber int
		wantSize   int
	}{
		{PageRequest{PageNumber: 0, PageSize: 0}, 1, 10},
		{PageRequest{PageNumber: -3, PageSize: -1}, 1, 10},
		{PageRequest{PageNumber: 2, PageSize: 500}, 2, 100},
		{PageRequest{PageNumber: 7, PageSize: 25}, 7, 25},
		{PageRequest{PageNumber: math.MaxInt, PageSize: 10}, maxPageNumber, 10},
	}

	for _, tt := range tests {
		got := tt.in.normalize()
		if got.PageNumber != tt.wantNumber || got.PageSize != tt.wantSize {
			t.Errorf("normalize(%+v) = %d/%d, want %d/%d", tt.in, got.PageNumber, got.PageSize, tt.wantNumber, tt.wantSize)
		}
	}
}

func TestListProjectsHugePageNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	f.project(owner, "Only")

	for _, pageNumber := range []int{922337203685477582, math.MaxInt} {
		page, err := f.projects.ListProjects(ctx, PageRequest{PageNumber: pageNumber, PageSize: 10})
		if err != nil {
			t.Fatalf("pageNumber %d: Expected no error, got %v", pageNumber, err)
		}
		if page.TotalRecords != 1 || len(page.Data) != 0 || page.NextPage != nil {
			t.Errorf("pageNumber %d: unexpected page %+v", pageNumber, page)
		}
		if page.PageNumber <= 0 {
			t.Errorf("pageNumber %d: expected positive page number, got %d", pageNumber, page.PageNumber)
		}
	}
}

func TestGetProjectCountsTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	project := f.project(owner, "Counted")
	f.task(owner, project.ID, owner.UserID, "one", entity.StatusToDo)
	f.task(owner, project.ID, owner.UserID, "two", entity.StatusDone)

	summary, err := f.projects.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.ID != project.ID || summary.Name != "Counted" || summary.TaskCount != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}

	if _, err := f.projects.GetProject(ctx, 999); !errors.Is(err, entity.ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestDeleteProjectForbiddenForOtherUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.user("alice", nil)
	bob := f.user("bob", nil)
	project := f.project(alice, "Alice's")
	f.task(alice, project.ID, alice.UserID, "keep me", entity.StatusToDo)

	if _, err := f.projects.DeleteProject(ctx, bob, project.ID); !errors.Is(err, entity.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
	if projects, tasks, _ := f.store.Counts(); projects != 1 || tasks != 1 {
		t.Errorf("Expected project and task to survive, got %d projects and %d tasks", projects, tasks)
	}
}

func TestDeleteProjectRemovesItsTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	doomed := f.project(owner, "Doomed")
	other := f.project(owner, "Other")
	for i := 0; i < 3; i++ {
		f.task(owner, doomed.ID, owner.UserID, fmt.Sprintf("t%d", i), entity.StatusToDo)
	}
	f.task(owner, other.ID, owner.UserID, "survivor", entity.StatusToDo)

	removed, err := f.projects.DeleteProject(ctx, owner, doomed.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed != 3 {
		t.Errorf("Expected 3 removed tasks, got %d", removed)
	}
	if projects, tasks, _ := f.store.Counts(); projects != 1 || tasks != 1 {
		t.Errorf("Expected 1 project and 1 task left, got %d and %d", projects, tasks)
	}
	if _, ok := f.index.Docs[doomed.ID]; ok {
		t.Error("Expected project to be removed from the search index")
	}
}

func TestDeleteProjectUnknown(t *testing.T) {
	f := newFixture()
	owner := f.user("owner", nil)

	if _, err := f.projects.DeleteProject(context.Background(), owner, 404); !errors.Is(err, entity.ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestUpdateProjectIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	project := f.project(owner, "Name")
	req := &entity.UpdateProjectRequest{Name: "Renamed", Description: "desc"}

	first, err := f.projects.UpdateProject(ctx, owner, project.ID, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := f.projects.UpdateProject(ctx, owner, project.ID, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if first.Name != second.Name || first.Description != second.Description || first.OwnerID != second.OwnerID {
		t.Errorf("Expected identical content, got %+v vs %+v", first, second)
	}
	if f.index.Docs[project.ID].Name != "Renamed" {
		t.Errorf("Expected index to follow rename, got %+v", f.index.Docs[project.ID])
	}
}

func TestUpdateProjectForbiddenForOtherUser(t *testing.T) {
	f := newFixture()
	owner := f.user("owner", nil)
	other := f.user("other", nil)
	project := f.project(owner, "Name")

	_, err := f.projects.UpdateProject(context.Background(), other, project.ID, &entity.UpdateProjectRequest{Name: "Stolen"})
	if !errors.Is(err, entity.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestCreateProjectOwnerIsPrincipal(t *testing.T) {
	f := newFixture()
	owner := f.user("owner", nil)

	project := f.project(owner, "Mine")
	if project.OwnerID != owner.UserID {
		t.Errorf("Expected owner %d, got %d", owner.UserID, project.OwnerID)
	}

	_, err := f.projects.CreateProject(context.Background(), entity.Principal{UserID: 999}, &entity.CreateProjectRequest{Name: "Ghost"}, nil)
	if !errors.Is(err, entity.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference for unknown owner, got %v", err)
	}
	if projects, _, _ := f.store.Counts(); projects != 1 {
		t.Errorf("Expected 1 project, got %d", projects)
	}
}

func TestCreateProjectWithImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)

	project, err := f.projects.CreateProject(ctx, owner, &entity.CreateProjectRequest{Name: "Pictured"},
		&entity.ProjectImage{FileName: "logo.PNG", ContentType: "image/png", Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if project.ImagePath == nil || f.images.Stored[*project.ImagePath] == nil {
		t.Fatalf("Expected stored image, got %v", project.ImagePath)
	}

	f.images.PutErr = errors.New("blob storage down")
	plain, err := f.projects.CreateProject(ctx, owner, &entity.CreateProjectRequest{Name: "Plain"},
		&entity.ProjectImage{FileName: "logo.png", Data: []byte{1}})
	if err != nil {
		t.Fatalf("Expected upload failure to be ignored, got %v", err)
	}
	if plain.ImagePath != nil {
		t.Errorf("Expected no image, got %v", *plain.ImagePath)
	}
}

func TestSetAndRemoveProjectImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	project := f.project(owner, "Pictured")

	first, err := f.projects.SetProjectImage(ctx, owner, project.ID, &entity.ProjectImage{FileName: "a.png", Data: []byte{1}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := f.projects.SetProjectImage(ctx, owner, project.ID, &entity.ProjectImage{FileName: "b.png", Data: []byte{2}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(f.images.Deleted) != 1 || f.images.Deleted[0] != *first.ImagePath {
		t.Errorf("Expected old image to be deleted, got %v", f.images.Deleted)
	}

	cleared, err := f.projects.RemoveProjectImage(ctx, owner, project.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cleared.ImagePath != nil || len(f.images.Stored) != 0 {
		t.Errorf("Expected image removed, got %v and %d stored", cleared.ImagePath, len(f.images.Stored))
	}
	if f.images.Deleted[len(f.images.Deleted)-1] != *second.ImagePath {
		t.Errorf("Expected second image deleted, got %v", f.images.Deleted)
	}
}

func TestSearchProjects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.projects.SearchProjects(ctx, "   "); !errors.Is(err, entity.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank query, got %v", err)
	}

	var gotQuery string
	f.index.SearchFunc = func(ctx context.Context, query string) ([]entity.ProjectDocument, error) {
		gotQuery = query
		return []entity.ProjectDocument{{ID: 3, Name: "Apollo", Description: "moon"}}, nil
	}
	results, err := f.projects.SearchProjects(ctx, "apo moon")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if gotQuery != "apo moon" {
		t.Errorf("Expected verbatim query, got %q", gotQuery)
	}
	if len(results) != 1 || results[0].ID != 3 || results[0].TaskCount != 0 {
		t.Errorf("unexpected results %+v", results)
	}

	f.index.SearchFunc = func(ctx context.Context, query string) ([]entity.ProjectDocument, error) {
		return nil, errors.New("meili down")
	}
	if _, err := f.projects.SearchProjects(ctx, "apollo"); !errors.Is(err, entity.ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

func TestStatusStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	project := f.project(owner, "Stats")
	f.task(owner, project.ID, owner.UserID, "done", entity.StatusDone)

	stats, err := f.projects.StatusStatistics(ctx, project.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(stats) != 1 || stats["Done"] != 1 {
		t.Errorf(`Expected {"Done":1}, got %v`, stats)
	}

	if _, err := f.projects.StatusStatistics(ctx, 999); !errors.Is(err, entity.ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestAssigneeStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	alice := f.user("alice", nil)
	project := f.project(owner, "Stats")
	f.task(owner, project.ID, alice.UserID, "a", entity.StatusToDo)
	f.task(owner, project.ID, alice.UserID, "b", entity.StatusDone)
	f.task(owner, project.ID, owner.UserID, "c", entity.StatusDone)

	stats, err := f.projects.AssigneeStatistics(ctx, project.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats["alice"] != 2 || stats["owner"] != 1 {
		t.Errorf("unexpected statistics %v", stats)
	}
}

func TestGetProjectDetailOwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.user("owner", nil)
	other := f.user("other", nil)
	project := f.project(owner, "Mine")
	f.task(owner, project.ID, other.UserID, "a", entity.StatusToDo)

	detail, err := f.projects.GetProjectDetail(ctx, owner, project.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if detail.OwnerUsername != "owner" || len(detail.Tasks) != 1 {
		t.Errorf("unexpected detail %+v", detail)
	}

	if _, err := f.projects.GetProjectDetail(ctx, other, project.ID); !errors.Is(err, entity.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if _, err := f.projects.GetProjectDetail(ctx, owner, 999); !errors.Is(err, entity.ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
