// Package store is the document-collection contract the data-access layer is
// written against: insert, fetch by id, partial update, delete and filtered,
// ordered queries over one table.
package store

import (
	"context"
	"errors"
	"fmt"

	"billweave-backend/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoDocument is returned by Update and Delete when no row has the given id.
var ErrNoDocument = errors.New("document not found")

// Filter is an equality condition on one column.
type Filter struct {
	Field string
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// OrderBy sorts a query by one column; the id breaks ties so paging is stable.
type OrderBy struct {
	Field string
	Desc  bool
}

var (
	NewestFirst = OrderBy{Field: "created_at", Desc: true}
	ByName      = OrderBy{Field: "name"}
)

// Collection is a typed view of one table. T is a GORM model with an "id"
// primary key column.
type Collection[T any] struct {
	db *gorm.DB
}

func NewCollection[T any](db *gorm.DB) *Collection[T] {
	return &Collection[T]{db: db}
}

func (c *Collection[T]) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, c.db)
}

func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	return c.conn(ctx).Create(doc).Error
}

// Get returns the document with the given id, or nil when there is none.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.conn(ctx).Where("id = ?", id).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update merges fields into the stored document.
func (c *Collection[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := c.conn(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", id, ErrNoDocument)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res := c.conn(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrNoDocument)
	}
	return nil
}

func (c *Collection[T]) Query(ctx context.Context, filters []Filter, order OrderBy) ([]T, error) {
	q := where(c.conn(ctx).Model(new(T)), filters)
	if order.Field != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: order.Field}, Desc: order.Desc})
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: order.Desc})

	docs := make([]T, 0)
	if err := q.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// First is Query limited to one row; nil when nothing matches.
func (c *Collection[T]) First(ctx context.Context, filters []Filter, order OrderBy) (*T, error) {
	q := where(c.conn(ctx).Model(new(T)), filters)
	if order.Field != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: order.Field}, Desc: order.Desc})
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: order.Desc})

	var docs []T
	if err := q.Limit(1).Find(&docs).Error; err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func (c *Collection[T]) Count(ctx context.Context, filters []Filter) (int64, error) {
	var n int64
	err := where(c.conn(ctx).Model(new(T)), filters).Count(&n).Error
	return n, err
}

func where(q *gorm.DB, filters []Filter) *gorm.DB {
	for _, f := range filters {
		q = q.Where(map[string]any{f.Field: f.Value})
	}
	return q
}
