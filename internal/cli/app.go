package cli

import (
	"context"
	"net/url"
	"path/filepath"

	"github.com/jrsteele09/pgportal/apiclient"
	"github.com/jrsteele09/pgportal/auth"
	"github.com/jrsteele09/pgportal/browser"
	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/internal/config"
	"github.com/jrsteele09/pgportal/notify"
	"github.com/jrsteele09/pgportal/resources"
	"github.com/jrsteele09/pgportal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	storeFile   = "pgctl.db"
	locationKey = "location"
)

// app is one browsing context backed by the local store.
type app struct {
	store    *storage.BoltStore
	browser  *browser.Browser
	client   *apiclient.Client
	features *features.Service
	auth     *auth.Service
	api      *resources.API
}

func newApp(opts *rootOptions) (*app, error) {
	cfg := config.New()

	store, err := storage.OpenBoltStore(filepath.Join(cfg.GetDataFolder(), storeFile))
	if err != nil {
		return nil, err
	}
	a := &app{store: store}
	if err := a.wire(cfg, opts); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(cfg config.Config, opts *rootOptions) error {
	loc := opts.location
	if loc != "" {
		if err := a.store.Set(locationKey, []byte(loc)); err != nil {
			return errors.Wrap(err, "save location")
		}
	} else if saved, err := a.store.Get(locationKey); err == nil {
		loc = string(saved)
	} else {
		loc = cfg.GetAppURL()
	}

	var err error
	a.browser, err = browser.New(loc,
		browser.WithLogger(log.Logger),
		browser.OnNavigate(func(to *url.URL) {
			if err := a.store.Set(locationKey, []byte(to.String())); err != nil {
				log.Warn().Err(err).Msg("failed to remember location")
			}
		}),
	)
	if err != nil {
		return errors.Wrapf(err, "invalid location %q", loc)
	}

	notifier := notify.NewLogNotifier(log.Logger)
	cache := features.NewCache(a.store)
	gate := features.NewGate(cache,
		features.WithNotifier(notifier),
		features.WithGateLogger(log.Logger),
	)

	apiURL := opts.apiURL
	if apiURL == "" {
		apiURL = cfg.GetAPIURL()
	}
	a.client, err = apiclient.New(apiURL,
		apiclient.WithBrowser(a.browser),
		apiclient.WithCookieStore(a.store),
		apiclient.WithMiddleware(gate.Middleware),
		apiclient.WithLogger(log.Logger),
	)
	if err != nil {
		return err
	}
	a.client.OnSessionExpired(func(ctx context.Context) {
		notifier.Notify(ctx, notify.Notification{
			Level:   notify.LevelWarning,
			Title:   "Session expired",
			Message: "Your session has expired. Please sign in again.",
		})
	})

	a.features = features.NewService(a.client, cache, features.WithLogger(log.Logger))
	a.auth, err = auth.NewService(a.client,
		auth.WithRootDomain(cfg.GetRootDomain()),
		auth.WithUserObserver(a.features.Sync),
		auth.WithLogger(log.Logger),
	)
	if err != nil {
		return err
	}
	a.api = resources.New(a.client)
	return nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp runs fn against a freshly opened browsing context and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close local store")
		}
	}()
	return fn(cmd.Context(), a)
}
