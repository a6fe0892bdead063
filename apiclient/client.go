// Package apiclient is the shared HTTP client for the management API. Every
// request carries the session cookies, passes through the configured transport
// middlewares and is retried once after a silent session refresh when the API
// answers 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/pgportal/browser"
	"github.com/jrsteele09/pgportal/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Request describes one logical API call. Body is JSON encoded and re-encoded
// for every attempt, so a Request can be replayed safely.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	// SkipRefresh hands a 401 straight back to the caller.
	SkipRefresh bool
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(r.Body, out), "decode response")
}

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	browser *browser.Browser
	headers http.Header
	logger  zerolog.Logger

	refreshGroup singleflight.Group

	mu           sync.RWMutex
	expiredHooks []func(ctx context.Context)
}

// New creates a client for the API at baseURL. An empty baseURL falls back to
// the local development API.
func New(baseURL string, opts ...ClientOptFn) (*Client, error) {
	if baseURL == "" {
		baseURL = config.DefaultAPIURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid api url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid api url %q: scheme and host required", baseURL)
	}

	opt := clientOpt{}
	for _, fn := range opts {
		if err := fn(&opt); err != nil {
			return nil, err
		}
	}

	c := &Client{
		baseURL: u,
		browser: opt.browser,
		headers: opt.headers,
		logger:  log.Logger,
	}
	if opt.logger != nil {
		c.logger = *opt.logger
	}
	if c.browser == nil {
		if c.browser, err = browser.New(config.DefaultAppURL, browser.WithLogger(c.logger)); err != nil {
			return nil, err
		}
	}

	hc := &http.Client{}
	if opt.httpClient != nil {
		cp := *opt.httpClient
		hc = &cp
	}

	switch {
	case opt.cookieStore != nil:
		if hc.Jar, err = newPersistentJar(opt.cookieStore, c.logger); err != nil {
			return nil, err
		}
	case hc.Jar == nil:
		if hc.Jar, err = newJar(); err != nil {
			return nil, err
		}
	}

	transport := hc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	for i := len(opt.middlewares) - 1; i >= 0; i-- {
		transport = opt.middlewares[i](transport)
	}
	hc.Transport = transport
	c.http = hc

	return c, nil
}

// BaseURL returns a copy of the API origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Browser returns the browsing context the client navigates.
func (c *Client) Browser() *browser.Browser {
	return c.browser
}

// OnSessionExpired registers fn to run after a failed session refresh has sent
// the browser to the login page.
func (c *Client) OnSessionExpired(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiredHooks = append(c.expiredHooks, fn)
}

// Do sends req, handling a 401 with a single refresh and retry. A non-2xx
// final answer is returned together with an *Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && !req.SkipRefresh {
		return c.handleUnauthorized(ctx, req, resp)
	}
	return resp, statusError(resp)
}

// Get decodes the answer to GET path into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path}, out)
}

// Post sends in as the JSON body and decodes the answer into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: in}, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPatch, Path: path, Body: in}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

func (c *Client) call(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func statusError(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return newError(resp)
}

// send performs one attempt of req without any 401 handling.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.Path)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s: read body", req.Method, req.Path)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Msg("api request")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := c.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s: encode body", method, req.Path)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	return httpReq, nil
}

// resolve joins path onto the base URL, keeping any base path prefix and any
// query string in path.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid path %q", path)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, errors.Errorf("path %q must be relative to the api url", path)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return &u, nil
}
