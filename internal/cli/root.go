// Package cli implements pgctl, a terminal client for the PG Portal API.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/pgportal/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiURL   string
	location string
	verbose  bool
}

// NewRootCommand builds the pgctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pgctl",
		Short: "Command line client for the PG Portal API",
		Long: `pgctl signs in to the PG Portal API and works with tenant data from the terminal.

The session cookies, the browsing location and the tenant's feature flags are
kept in a bolt file under $PG_DATA_FOLDER, so a session survives between runs.
The browsing location plays the part of the browser address bar: its hostname
or ?tenant= query picks the tenant and an /admin path picks the admin console.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			displayAppname(cmd.OutOrStdout(), config.New().GetAppName())
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", "", "API origin (default $NEXT_PUBLIC_API_URL or "+config.DefaultAPIURL+")")
	flags.StringVar(&opts.location, "location", "", "browsing location, e.g. http://localhost:3000/?tenant=acme (remembered)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every API request")

	cmd.AddCommand(
		newLoginCommand(opts),
		newSignupCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newFeaturesCommand(opts),
		newGetCommand(opts),
		newTenantsCommand(opts),
	)
	return cmd
}

// ExecuteContext runs pgctl with the process arguments.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func setupLogging(w io.Writer, verbose bool) {
	level, err := zerolog.ParseLevel(config.New().GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
