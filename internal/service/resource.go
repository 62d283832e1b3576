package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	v1 "adminconsole/pkg/api/v1"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
	dateLayout        = "2006-01-02"
)

// Caller is the part of the authenticated client resources need.
type Caller interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Put(ctx context.Context, path string, query url.Values, body, out any) error
	Delete(ctx context.Context, path string, query url.Values) error
}

type PageQuery struct {
	PageNumber int
	PageSize   int
	Search     string
	Status     string
	StartDate  time.Time
	EndDate    time.Time
}

func (q PageQuery) withDefaults() PageQuery {
	if q.PageNumber < 1 {
		q.PageNumber = DefaultPageNumber
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}

func (q PageQuery) Values() url.Values {
	q = q.withDefaults()
	v := url.Values{}
	v.Set("pageNumber", strconv.Itoa(q.PageNumber))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if !q.StartDate.IsZero() {
		v.Set("startDate", q.StartDate.Format(dateLayout))
	}
	if !q.EndDate.IsZero() {
		v.Set("endDate", q.EndDate.Format(dateLayout))
	}
	return v
}

// Resource is one backend collection: a paged list plus the item
// operations the console offers on it.
type Resource[T any] struct {
	caller Caller
	path   string
}

func NewResource[T any](caller Caller, path string) *Resource[T] {
	return &Resource[T]{caller: caller, path: path}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) Page(ctx context.Context, q PageQuery) (*v1.Page[T], error) {
	q = q.withDefaults()
	var page v1.Page[T]
	if err := r.caller.Get(ctx, r.path, q.Values(), &page); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.path, err)
	}
	page.Normalize(q.PageNumber, q.PageSize)
	return &page, nil
}

// All fetches the unpaged {path}/all listing.
func (r *Resource[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.caller.Get(ctx, r.path+"/all", nil, &items); err != nil {
		return nil, fmt.Errorf("list all %s: %w", r.path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T]) Find(ctx context.Context, id string) (*T, error) {
	var item T
	if err := r.caller.Get(ctx, r.path+"/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, fmt.Errorf("get %s %s: %w", r.path, id, err)
	}
	return &item, nil
}

func (r *Resource[T]) Update(ctx context.Context, id string, item T) error {
	if err := r.caller.Put(ctx, r.path+"/update", url.Values{"id": {id}}, item, nil); err != nil {
		return fmt.Errorf("update %s %s: %w", r.path, id, err)
	}
	return nil
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if err := r.caller.Delete(ctx, r.path+"/delete", url.Values{"id": {id}}); err != nil {
		return fmt.Errorf("delete %s %s: %w", r.path, id, err)
	}
	return nil
}

// DeleteAndRefetch deletes id and reloads the page the operator was on.
func (r *Resource[T]) DeleteAndRefetch(ctx context.Context, id string, q PageQuery) (*v1.Page[T], error) {
	if err := r.Delete(ctx, id); err != nil {
		return nil, err
	}
	return r.Page(ctx, q)
}

// Collection is a Resource with its element type erased, so the console
// router can serve every resource through one set of handlers.
type Collection interface {
	Path() string
	ReadOnly() bool
	List(ctx context.Context, q PageQuery) (any, error)
	All(ctx context.Context) (any, error)
	Find(ctx context.Context, id string) (any, error)
	Update(ctx context.Context, id string, body json.RawMessage) error
	Delete(ctx context.Context, id string, q PageQuery) (any, error)
}

type collection[T any, R any] struct {
	res      *Resource[T]
	readOnly bool
	view     func(*v1.Page[T]) *v1.Page[R]
}

func (c *collection[T, R]) Path() string   { return c.res.Path() }
func (c *collection[T, R]) ReadOnly() bool { return c.readOnly }

func (c *collection[T, R]) List(ctx context.Context, q PageQuery) (any, error) {
	page, err := c.res.Page(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.view(page), nil
}

func (c *collection[T, R]) All(ctx context.Context) (any, error) {
	return c.res.All(ctx)
}

func (c *collection[T, R]) Find(ctx context.Context, id string) (any, error) {
	return c.res.Find(ctx, id)
}

func (c *collection[T, R]) Update(ctx context.Context, id string, body json.RawMessage) error {
	if c.readOnly {
		return ErrReadOnly
	}
	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return c.res.Update(ctx, id, item)
}

func (c *collection[T, R]) Delete(ctx context.Context, id string, q PageQuery) (any, error) {
	if c.readOnly {
		return nil, ErrReadOnly
	}
	page, err := c.res.DeleteAndRefetch(ctx, id, q)
	if err != nil {
		return nil, err
	}
	return c.view(page), nil
}

func identity[T any](p *v1.Page[T]) *v1.Page[T] { return p }

func asCollection[T any](res *Resource[T], readOnly bool) Collection {
	return &collection[T, T]{res: res, readOnly: readOnly, view: identity[T]}
}
