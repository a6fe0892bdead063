package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/pgportal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// CookieStorageKey is the storage entry holding the persisted cookie jar.
const CookieStorageKey = "cookies"

// storedCookie is one Set-Cookie as received. MaxAge is folded into Expires
// when it is recorded so replaying it later keeps the original lifetime.
type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

func (c storedCookie) id() string {
	return c.Name + ";" + c.Domain + ";" + c.Path + ";" + c.URL
}

func (c storedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

// persistentJar is a cookiejar.Jar that mirrors every Set-Cookie into a
// storage.Store and replays them on construction.
type persistentJar struct {
	jar    *cookiejar.Jar
	store  storage.Store
	logger zerolog.Logger

	mu      sync.Mutex
	cookies map[string]storedCookie
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func newPersistentJar(store storage.Store, logger zerolog.Logger) (*persistentJar, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	pj := &persistentJar{
		jar:     jar,
		store:   store,
		logger:  logger,
		cookies: make(map[string]storedCookie),
	}

	raw, err := store.Get(CookieStorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return pj, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[newPersistentJar] store.Get")
	}

	var saved []storedCookie
	if err := json.Unmarshal(raw, &saved); err != nil {
		logger.Warn().Err(err).Msg("discarding unreadable cookie store")
		return pj, nil
	}
	now := time.Now()
	for _, sc := range saved {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		pj.cookies[sc.id()] = sc
		jar.SetCookies(u, []*http.Cookie{sc.cookie()})
	}
	return pj, nil
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
	now := time.Now()

	j.mu.Lock()
	for _, c := range cookies {
		sc := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		expired := c.MaxAge < 0 || (!sc.Expires.IsZero() && sc.Expires.Before(now))
		if expired {
			delete(j.cookies, sc.id())
			continue
		}
		j.cookies[sc.id()] = sc
	}
	saved := make([]storedCookie, 0, len(j.cookies))
	for _, sc := range j.cookies {
		saved = append(saved, sc)
	}
	j.mu.Unlock()

	raw, err := json.Marshal(saved)
	if err != nil {
		j.logger.Warn().Err(err).Msg("failed to encode cookies")
		return
	}
	if err := j.store.Set(CookieStorageKey, raw); err != nil {
		j.logger.Warn().Err(err).Msg("failed to persist cookies")
	}
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}
