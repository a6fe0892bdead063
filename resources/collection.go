// Package resources is a typed client for the tenant and admin CRUD families.
// Requests go through the shared API client, so they are feature gated and
// recover from an expired access token like any other call.
package resources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Client is the part of the shared API client the collections use.
type Client interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Collection addresses one CRUD family.
type Collection[T Record] struct {
	client Client
	path   string
}

func NewCollection[T Record](client Client, path string) *Collection[T] {
	return &Collection[T]{client: client, path: "/" + strings.Trim(path, "/")}
}

// Path is the family's base path.
func (c *Collection[T]) Path() string {
	return c.path
}

// listEnvelope accepts both a bare array and a {data: [...]} page.
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// List returns the records matching query. A nil query lists everything.
func (c *Collection[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	path := c.path
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var raw json.RawMessage
	if err := c.client.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}

	var items []T
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.Wrapf(err, "[List] decode %s", c.path)
		}
		return items, nil
	}

	var page listEnvelope[T]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, errors.Wrapf(err, "[List] decode %s", c.path)
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return page.Data, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := c.client.Get(ctx, c.itemPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts in and returns the stored record.
func (c *Collection[T]) Create(ctx context.Context, in T) (*T, error) {
	var out T
	if err := c.client.Post(ctx, c.path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update. patch holds only the fields to change.
func (c *Collection[T]) Update(ctx context.Context, id string, patch any) (*T, error) {
	var out T
	if err := c.client.Patch(ctx, c.itemPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.client.Delete(ctx, c.itemPath(id), nil)
}

func (c *Collection[T]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}
