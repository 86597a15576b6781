package database

import (
	"slices"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery is a paginated, ordered, filtered listing request.
type ListQuery struct {
	Page      int
	Limit     int
	OrderBy   string
	Direction string
	Filter    string
}

// Normalize clamps paging and falls back to created_at desc when the order
// column is not one of allowed.
func (q *ListQuery) Normalize(allowed ...string) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if !slices.Contains(allowed, q.OrderBy) {
		q.OrderBy = "created_at"
	}
	q.Direction = strings.ToLower(q.Direction)
	if q.Direction != "asc" {
		q.Direction = "desc"
	}
	q.Filter = strings.TrimSpace(q.Filter)
}

func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Paginate applies ordering, offset and limit. table qualifies the order
// column when the query joins.
func (q *ListQuery) Paginate(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col := q.OrderBy
		if table != "" {
			col = table + "." + col
		}
		return db.Order(col + " " + q.Direction).Offset(q.Offset()).Limit(q.Limit)
	}
}

// ContainsFold is a case-insensitive substring pattern for LIKE.
func ContainsFold(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}
