package apiclient

import (
	"net/http"

	"github.com/jrsteele09/pgportal/browser"
	"github.com/jrsteele09/pgportal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Middleware wraps the transport every request goes through, e.g. the
// feature gate.
type Middleware func(next http.RoundTripper) http.RoundTripper

// ClientOptFn are options to set different parameters on the Client.
type ClientOptFn func(*clientOpt) error

type clientOpt struct {
	httpClient  *http.Client
	middlewares []Middleware
	browser     *browser.Browser
	logger      *zerolog.Logger
	cookieStore storage.Store
	headers     http.Header
}

// WithHTTPClient sets the raw http client. Its Transport is wrapped by the
// configured middlewares and its Jar is replaced when none is set.
func WithHTTPClient(c *http.Client) ClientOptFn {
	return func(opt *clientOpt) error {
		if c == nil {
			return errors.New("nil http client")
		}
		opt.httpClient = c
		return nil
	}
}

// WithMiddleware appends transport middlewares. The first one added is the
// outermost.
func WithMiddleware(mw ...Middleware) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.middlewares = append(opt.middlewares, mw...)
		return nil
	}
}

// WithBrowser sets the browsing context used to pick the auth section and to
// send the user to the login page when the session cannot be refreshed.
func WithBrowser(b *browser.Browser) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.browser = b
		return nil
	}
}

func WithLogger(l zerolog.Logger) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.logger = &l
		return nil
	}
}

// WithCookieStore persists the session cookies so a later process can resume
// the session.
func WithCookieStore(s storage.Store) ClientOptFn {
	return func(opt *clientOpt) error {
		opt.cookieStore = s
		return nil
	}
}

// WithHeader sets a default header applied to every request.
func WithHeader(header, val string) ClientOptFn {
	return func(opt *clientOpt) error {
		if opt.headers == nil {
			opt.headers = make(http.Header)
		}
		opt.headers.Add(header, val)
		return nil
	}
}
