package service

import (
	"errors"

	"github.com/quickdesk/quickdesk/internal/repository"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// pageBounds converts 1-based page/limit inputs into repository limit and
// offset, clamping out-of-range values.
func pageBounds(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// PageCount returns ceil(total/limit) for the pagination envelope.
func PageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

// mapRepoErr lifts repository sentinels into the domain error taxonomy.
func mapRepoErr(err error, resource string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errorutil.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrRevisionConflict):
		return errorutil.NewConflict("the "+resource+" was modified by another request, retry with fresh data", nil)
	default:
		return errorutil.NewInternalError(err)
	}
}
