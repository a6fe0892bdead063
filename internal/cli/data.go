package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/pgportal/features"
	"github.com/jrsteele09/pgportal/internal/errors"
	"github.com/spf13/cobra"
)

func newFeaturesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the features enabled for the signed in tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.auth.Init(ctx); err != nil {
					return errors.Wrapf(errors.ErrNotAuthenticated, "run pgctl login first")
				}
				out := cmd.OutOrStdout()
				if a.auth.User().IsSuperAdmin() {
					fmt.Fprintln(out, "Platform administrator: all features enabled")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, key := range features.GatedKeys() {
					state := "disabled"
					if a.features.IsFeatureEnabled(key) {
						state = "enabled"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", key, key.Label(), state)
				}
				return tw.Flush()
			})
		},
	}
}

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "GET an API path and print the JSON answer",
		Example: `  pgctl get /residents
  pgctl get "/rooms?buildingId=42"
  pgctl get /dashboard/summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				var raw json.RawMessage
				if err := a.client.Get(ctx, args[0], &raw); err != nil {
					return friendly(err)
				}
				return printRaw(cmd.OutOrStdout(), raw)
			})
		},
	}
}

func newTenantsCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "List tenants (admin console)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := requireAdminSection(a); err != nil {
					return err
				}
				query := url.Values{}
				if limit > 0 {
					query.Set("limit", strconv.Itoa(limit))
				}
				list, err := a.api.Tenants.List(ctx, query)
				if err != nil {
					return friendly(err)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSLUG\tNAME\tPLAN\tSTATUS")
				for _, t := range list {
					status := "active"
					if t.Suspended {
						status = "suspended"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Slug, t.Name, t.Plan, status)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tenants to list")
	cmd.AddCommand(newTenantFeaturesCommand(opts))
	return cmd
}

func newTenantFeaturesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "features <tenant-id> <feature>=on|off...",
		Short:   "Switch features of a tenant on or off",
		Example: `  pgctl tenants features 3f0c... complaints=on assets=off`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseToggles(args[1:])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := requireAdminSection(a); err != nil {
					return err
				}
				for _, c := range changes {
					t, err := a.api.SetTenantFeature(ctx, args[0], string(c.key), c.enabled)
					if err != nil {
						return friendly(err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", t.Slug, c.key, onOff(c.enabled))
				}
				return nil
			})
		},
	}
}

type toggle struct {
	key     features.Key
	enabled bool
}

// parseToggles reads key=on|off pairs. Only gateable keys are accepted.
func parseToggles(args []string) ([]toggle, error) {
	gated := map[features.Key]bool{}
	for _, k := range features.GatedKeys() {
		gated[k] = true
	}

	out := make([]toggle, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, errors.Validationf("%q is not in feature=on|off form", arg)
		}
		key := features.Key(name)
		if !gated[key] {
			return nil, errors.Validationf("unknown feature %q", name)
		}
		switch strings.ToLower(value) {
		case "on", "true", "enabled":
			out = append(out, toggle{key, true})
		case "off", "false", "disabled":
			out = append(out, toggle{key, false})
		default:
			return nil, errors.Validationf("feature %s: want on or off, got %q", name, value)
		}
	}
	return out, nil
}

func requireAdminSection(a *app) error {
	if !a.browser.InAdminSection() {
		return errors.Wrapf(errors.ErrForbidden, "tenant management needs an admin session, run pgctl login --admin")
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printRaw(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = w.Write(raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
