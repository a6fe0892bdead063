package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/pgportal/internal/errors"
)

// Session endpoints for the two sections of the application.
const (
	RefreshPath      = "/auth/refresh"
	AdminRefreshPath = "/admin/auth/refresh"
	MePath           = "/auth/me"
	AdminMePath      = "/admin/auth/me"
)

// IsRefreshRequest reports whether path is one of the refresh endpoints.
func IsRefreshRequest(path string) bool {
	return hasEndpoint(path, RefreshPath)
}

// IsMeRequest reports whether path is one of the "who am I" endpoints.
func IsMeRequest(path string) bool {
	return hasEndpoint(path, MePath)
}

// hasEndpoint matches the tenant endpoint and its /admin twin, with or without
// a base path in front.
func hasEndpoint(path, endpoint string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(strings.TrimRight(path, "/"), endpoint)
}

// refreshPath returns the refresh endpoint for the section the browser is in.
func (c *Client) refreshPath() string {
	if c.browser.InAdminSection() {
		return AdminRefreshPath
	}
	return RefreshPath
}

// handleUnauthorized runs the refresh protocol for a request that got a 401
// on its first attempt. The original request is replayed at most once; a 401
// on the replay is returned as is.
func (c *Client) handleUnauthorized(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	apiErr := newError(resp)

	switch {
	case IsRefreshRequest(req.Path):
		c.expire(ctx)
		return resp, apiErr
	case IsMeRequest(req.Path):
		return resp, apiErr
	}

	if err := c.refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Info().Err(err).Str("path", req.Path).Msg("session refresh failed")
		c.expire(ctx)
		return resp, fmt.Errorf("%w: %w", errors.ErrSessionExpired, apiErr)
	}

	retry, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return retry, statusError(retry)
}

// refresh exchanges the refresh cookie for a new access cookie. Concurrent
// callers share a single call, which is not bound to any one caller's
// cancellation; each caller stops waiting when its own ctx is done.
func (c *Client) refresh(ctx context.Context) error {
	path := c.refreshPath()
	shared := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(path, func() (any, error) {
		resp, err := c.send(shared, &Request{Method: http.MethodPost, Path: path, SkipRefresh: true})
		if err != nil {
			return nil, err
		}
		return nil, statusError(resp)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// expire sends the browser to the login page of the current section and
// notifies the session expired hooks.
func (c *Client) expire(ctx context.Context) {
	target := c.browser.LoginPath()
	if err := c.browser.Navigate(target); err != nil {
		c.logger.Error().Err(err).Str("target", target).Msg("failed to redirect to login")
	}

	c.mu.RLock()
	hooks := slices.Clone(c.expiredHooks)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}
