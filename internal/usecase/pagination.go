package usecase

import (
	"math"
	"net/url"
	"strconv"

	"github.com/St1cky1/task-tracker/internal/entity"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// maxPageNumber keeps (PageNumber-1)*PageSize within int.
	maxPageNumber = math.MaxInt / MaxPageSize
)

// PageRequest is a project listing request. Base carries scheme, host and path used to
// build the navigation links; a nil Base yields a page without links.
type PageRequest struct {
	PageNumber int
	PageSize   int
	Base       *url.URL
}

func (r PageRequest) normalize() PageRequest {
	if r.PageNumber < 1 {
		r.PageNumber = 1
	}
	if r.PageNumber > maxPageNumber {
		r.PageNumber = maxPageNumber
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	return r
}

func (r PageRequest) offset() int {
	return (r.PageNumber - 1) * r.PageSize
}

func totalPages(totalRecords, pageSize int) int {
	if totalRecords == 0 {
		return 0
	}
	return (totalRecords + pageSize - 1) / pageSize
}

func (r PageRequest) link(pageNumber int) *string {
	if r.Base == nil {
		return nil
	}
	u := url.URL{Scheme: r.Base.Scheme, Host: r.Base.Host, Path: r.Base.Path}
	u.RawQuery = "pageNumber=" + strconv.Itoa(pageNumber) + "&pageSize=" + strconv.Itoa(r.PageSize)
	link := u.String()
	return &link
}

func buildPage(req PageRequest, total int, data []entity.ProjectSummary) *entity.ProjectPage {
	if data == nil {
		data = []entity.ProjectSummary{}
	}
	page := &entity.ProjectPage{
		PageNumber:   req.PageNumber,
		PageSize:     req.PageSize,
		TotalRecords: total,
		TotalPages:   totalPages(total, req.PageSize),
		Data:         data,
	}
	if req.PageNumber < page.TotalPages {
		page.NextPage = req.link(req.PageNumber + 1)
	}
	if req.PageNumber > 1 {
		page.PreviousPage = req.link(req.PageNumber - 1)
	}
	return page
}
