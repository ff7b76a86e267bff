package domain

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PageRequest is a 0-based result window.
type PageRequest struct {
	PageNumber int           `json:"pageNumber"`
	PageSize   int           `json:"pageSize"`
	SortBy     string        `json:"sortBy"`
	SortDir    SortDirection `json:"sortDir"`
}

// ParsePageRequest reads raw query values. Empty values fall back to defaults;
// sort field checks happen in Resolve since they depend on the resource.
func ParsePageRequest(pageNumber, pageSize, sortBy, sortDir string) (PageRequest, error) {
	req := PageRequest{
		PageSize: DefaultPageSize,
		SortBy:   strings.TrimSpace(sortBy),
		SortDir:  SortDirection(strings.ToLower(strings.TrimSpace(sortDir))),
	}

	if v := strings.TrimSpace(pageNumber); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return PageRequest{}, BadRequest("invalid page number: %q", pageNumber)
		}
		req.PageNumber = n
	}

	if v := strings.TrimSpace(pageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return PageRequest{}, BadRequest("invalid page size: %q", pageSize)
		}
		req.PageSize = n
	}

	return req, nil
}

// Resolve validates the request against the sortable fields of a resource and
// fills in defaults.
func (p PageRequest) Resolve(allowed []string, defaultSort string, defaultDir SortDirection) (PageRequest, error) {
	if p.PageNumber < 0 {
		return PageRequest{}, BadRequest("page number must be >= 0, got %d", p.PageNumber)
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return PageRequest{}, BadRequest("page size must be between 1 and %d, got %d", MaxPageSize, p.PageSize)
	}
	// Offset must stay representable.
	if p.PageNumber > math.MaxInt/p.PageSize {
		return PageRequest{}, BadRequest("page number too large: %d", p.PageNumber)
	}

	if p.SortBy == "" {
		p.SortBy = defaultSort
	}
	valid := false
	for _, field := range allowed {
		if field == p.SortBy {
			valid = true
			break
		}
	}
	if !valid {
		return PageRequest{}, BadRequest("invalid sort field: %s", p.SortBy)
	}

	switch p.SortDir {
	case "":
		p.SortDir = defaultDir
	case SortAsc, SortDesc:
	default:
		return PageRequest{}, BadRequest("invalid sort direction: %s", p.SortDir)
	}

	return p, nil
}

func (p PageRequest) Offset() int {
	return p.PageNumber * p.PageSize
}

// Page is the shape every list operation returns.
type Page[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	LastPage      bool  `json:"lastPage"`
}

func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.PageSize > 0 {
		totalPages = int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	}

	return Page[T]{
		Content:       content,
		PageNumber:    req.PageNumber,
		PageSize:      req.PageSize,
		TotalElements: total,
		TotalPages:    totalPages,
		LastPage:      req.PageNumber+1 >= totalPages,
	}
}

func MapPage[T, U any](page Page[T], fn func(T) U) Page[U] {
	content := make([]U, len(page.Content))
	for i, v := range page.Content {
		content[i] = fn(v)
	}
	return Page[U]{
		Content:       content,
		PageNumber:    page.PageNumber,
		PageSize:      page.PageSize,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		LastPage:      page.LastPage,
	}
}
