package dto

import (
	"cmp"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"slotkeeper/shared/constant"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty,gte=1"`
	Limit   int    `json:"limit"    validate:"omitempty,gte=1"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest reads paging and sorting from the query string. Non-positive or malformed
// numbers are ignored, and withDefaults fills page and limit when they are absent.
func (q *QueryParams) FromRequest(r *http.Request, withDefaults bool) {
	values := r.URL.Query()

	if page, ok := positiveInt(values.Get(constant.RequestParamPage)); ok {
		q.Page = page
	}

	if limit, ok := positiveInt(values.Get(constant.RequestParamLimit)); ok {
		q.Limit = limit
	}

	if sortBy := values.Get(constant.RequestParamSortBy); sortBy != "" {
		q.SortBy = sortBy
	}

	switch dir := strings.ToUpper(values.Get(constant.RequestParamSortDir)); dir {
	case SortDirAsc, SortDirDesc:
		q.SortDir = dir
	}

	if withDefaults {
		q.Page = cmp.Or(q.Page, constant.DefaultValuePage)
		q.Limit = cmp.Or(q.Limit, constant.DefaultValueLimit)
	}
}

// Normalize replaces a sort column outside sortable with the default column and caps the
// page size at maxLimit when maxLimit is positive. Column names reach SQL verbatim, so
// callers must always normalize user input before querying.
func (q *QueryParams) Normalize(sortable []string, maxLimit int) {
	if !slices.Contains(sortable, q.SortBy) {
		q.SortBy = constant.DefaultValueSortBy
	}

	if q.SortDir != SortDirAsc && q.SortDir != SortDirDesc {
		q.SortDir = constant.DefaultValueSortDir
	}

	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
}

// Offset is the row offset for the current page. It is zero when paging is off.
func (q QueryParams) Offset() int {
	if q.Page <= 0 || q.Limit <= 0 {
		return 0
	}

	return (q.Page - 1) * q.Limit
}

// OrderBy renders the ORDER BY clause, or nothing when sorting is unset.
func (q QueryParams) OrderBy(table string) string {
	if q.SortBy == "" || q.SortDir == "" {
		return ""
	}

	column := q.SortBy
	if table != "" && !strings.Contains(column, ".") {
		column = table + "." + column
	}

	return fmt.Sprintf("ORDER BY %s %s", column, q.SortDir)
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}

	return n, true
}
