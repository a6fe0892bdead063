package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jrsteele09/pgportal/apiclient"
	"github.com/jrsteele09/pgportal/auth"
	"github.com/jrsteele09/pgportal/browser"
	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const passwordEnvVar = "PG_PASSWORD"

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var (
		email    string
		password string
		admin    bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the current tenant, or to the admin console with --admin",
		Long: `Sign in with email and password.

Without a tenant in the browsing location the API answers with the tenant the
account belongs to; pgctl then moves to that tenant's login page and signs in
there, the same way the web app does.

The password is taken from --password, then $PG_PASSWORD, then one line of stdin.`,
		Example: `  pgctl login --email owner@acme.test --location "http://localhost:3000/login?tenant=acme"
  pgctl login --admin --email admin@pgportal.app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				pw, err := readPassword(cmd.InOrStdin(), password)
				if err != nil {
					return err
				}
				if err := enterSection(a.browser, admin); err != nil {
					return err
				}

				user, err := a.auth.Login(ctx, email, pw)
				var redirect *auth.RedirectError
				if errors.As(err, &redirect) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s belongs to %q, continuing on %s\n", email, redirect.TenantSlug, redirect.URL)
					user, err = a.auth.Login(ctx, email, pw)
				}
				if err != nil {
					return friendly(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Email, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().BoolVar(&admin, "admin", false, "sign in to the admin console")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignupCommand(opts *rootOptions) *cobra.Command {
	var req auth.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new PG business and its owner account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				pw, err := readPassword(cmd.InOrStdin(), req.Password)
				if err != nil {
					return err
				}
				req.Password = pw
				if err := enterSection(a.browser, false); err != nil {
					return err
				}

				user, err := a.auth.Signup(ctx, req)
				if err != nil {
					return friendly(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, signed in as %s\n", req.TenantName, user.Email)
				fmt.Fprintf(cmd.OutOrStdout(), "Location: %s\n", a.browser.Location())
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Name, "name", "", "owner name")
	flags.StringVarP(&req.Email, "email", "e", "", "owner email")
	flags.StringVarP(&req.Password, "password", "p", "", "owner password")
	flags.StringVar(&req.Phone, "phone", "", "owner phone number")
	flags.StringVar(&req.TenantName, "business", "", "business name")
	flags.StringVar(&req.TenantSlug, "slug", "", "workspace address, e.g. sunrise-pg")
	for _, name := range []string{"name", "email", "business", "slug"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.auth.Logout(ctx); err != nil {
					log.Debug().Err(err).Msg("server side logout failed")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.auth.Init(ctx); err != nil {
					return errors.Wrapf(errors.ErrNotAuthenticated, "run pgctl login first")
				}
				return printJSON(cmd.OutOrStdout(), a.auth.User())
			})
		},
	}
}

// enterSection moves the browser into or out of the admin console. Staying in
// the same section keeps the current location and its tenant.
func enterSection(b *browser.Browser, admin bool) error {
	switch {
	case admin && !b.InAdminSection():
		return b.Navigate(browser.AdminLoginPath)
	case !admin && b.InAdminSection():
		return b.Navigate(browser.LoginPath)
	}
	return nil
}

func readPassword(in io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(passwordEnvVar); env != "" {
		return env, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Validationf("password is required")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// friendly replaces err with the text the web app would show for it.
func friendly(err error) error {
	log.Debug().Err(err).Msg("command failed")
	var blocked *features.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%s", blocked.Message)
	}
	return fmt.Errorf("%s", apiclient.FriendlyMessage(err))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
