package views

import (
	"net/url"
	"strconv"

	"github.com/vidshare/backend/internal/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest selects a 1-indexed page of a listing. Zero fields take the defaults.
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest reads page and limit from query parameters. Absent values take
// the defaults; non-numeric or non-positive values are rejected.
func ParsePageRequest(values url.Values) (PageRequest, error) {
	req := PageRequest{Page: DefaultPage, Limit: DefaultLimit}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return PageRequest{}, apperr.New(apperr.BadRequest, "page must be a positive integer")
		}
		req.Page = page
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return PageRequest{}, apperr.New(apperr.BadRequest, "limit must be a positive integer")
		}
		req.Limit = limit
	}

	return req.Normalize()
}

// Normalize fills defaults, caps the limit at MaxLimit and rejects negative values.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Page < 0 {
		return PageRequest{}, apperr.New(apperr.BadRequest, "page must be a positive integer")
	}
	if p.Limit < 0 {
		return PageRequest{}, apperr.New(apperr.BadRequest, "limit must be a positive integer")
	}
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p, nil
}

// Offset is the number of items preceding the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one window of a paginated listing.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func newPage[T any](items []T, req PageRequest, total int) Page[T] {
	totalPages := (total + req.Limit - 1) / req.Limit
	if totalPages < 1 {
		totalPages = 1
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Page:        req.Page,
		Limit:       req.Limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNextPage: req.Page < totalPages,
		HasPrevPage: req.Page > 1,
	}
}
