// Package services contains the server-side business logic: generic entity
// CRUD with per-kind rules, the archive/restore workflow, authentication,
// presigned uploads and dashboard statistics. Every operation takes the
// acting user explicitly.
package services

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/prisonkeeper/internal/common"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest selects one page of a listing. Page is 1-based.
type PageRequest struct {
	Page  int64
	Limit int64
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p PageRequest) skip() int64 { return (p.Page - 1) * p.Limit }

// Page is one page of results plus pagination details.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int64
	Limit int64
	Pages int64
}

func newPage[T any](items []T, total int64, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int64(0)
	if req.Limit > 0 {
		pages = (total + req.Limit - 1) / req.Limit
	}
	return &Page[T]{Items: items, Total: total, Page: req.Page, Limit: req.Limit, Pages: pages}
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorForbidden, fmt.Sprintf(format, args...))
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

// validateRequired reports required fields of kind that are missing from
// fields. When only is non-nil, just those keys are checked.
func validateRequired(kind models.Kind, fields map[string]any, only map[string]any) error {
	verr := &common.ValidationError{}
	for _, f := range models.RequiredFields[kind] {
		if only != nil {
			if _, touched := only[f]; !touched {
				continue
			}
		}
		if isBlank(fields[f]) {
			verr.Add(f, "is required")
		}
	}
	return verr.OrNil()
}
