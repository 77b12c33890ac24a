package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	console "github.com/Reales09/reserve-sub002"
	"github.com/spf13/cobra"
)

func newLoginCmd(opts *options) *cobra.Command {
	var (
		email         string
		password      string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		Long: `Login against the backend and store the session.

When the backend requires a password change, run change-password next;
no other command works until then.

Examples:
  reserve-console login --email ana@example.com --password secret
  echo secret | reserve-console login --email ana@example.com --password-stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if passwordStdin {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}
			if password == "" {
				return fmt.Errorf("--password or --password-stdin is required")
			}

			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				res, err := c.Login(ctx, email, password)
				if err != nil {
					return fmt.Errorf("login failed: %w", err)
				}
				out := cmd.OutOrStdout()
				if res.Outcome == console.OutcomePasswordChangeRequired {
					fmt.Fprintln(out, "Password change required. Run 'reserve-console change-password'.")
					return nil
				}
				fmt.Fprintf(out, "Logged in as %s.\n", res.User.Email)
				if !res.PermissionsLoaded {
					fmt.Fprintln(out, "Permissions could not be loaded; the menu is limited.")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				if err := c.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				out := cmd.OutOrStdout()
				sess, ok := c.Session(ctx)
				if !ok {
					fmt.Fprintln(out, "Not logged in.")
					return nil
				}
				if sess.User != nil {
					fmt.Fprintf(out, "User:     %s <%s>\n", sess.User.Name, sess.User.Email)
					if sess.User.IsSuperAdmin {
						fmt.Fprintln(out, "Role:     super admin")
					}
				}
				fmt.Fprintf(out, "State:    %s\n", c.State(ctx))
				if !sess.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "Expires:  %s\n", sess.ExpiresAt.Local().Format(time.RFC3339))
				}
				if id, ok := c.ActiveBusiness(ctx); ok {
					fmt.Fprintf(out, "Business: %d\n", id)
				}
				return nil
			})
		},
	}
}

func newMenuCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List the navigation modules the session may use",
		Long: `List the navigation modules the session may use.

With --all every module of the navigation table is listed together with
whether the session may open it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				modules := c.Menu(ctx)
				if modules == nil {
					return console.ErrNotAuthenticated
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				if all {
					fmt.Fprintln(tw, "MODULE\tTITLE\tROUTE\tALLOWED")
					for _, m := range c.Gate().Modules() {
						allowed := "no"
						if c.CanAccess(ctx, m.ID) {
							allowed = "yes"
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Title, m.Route, allowed)
					}
					return tw.Flush()
				}
				fmt.Fprintln(tw, "MODULE\tTITLE\tROUTE")
				for _, m := range modules {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Title, m.Route)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every module with its access decision")
	return cmd
}

func newBusinessCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "business",
		Short: "Inspect and select the active business",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the businesses of the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				if !c.IsAuthenticated(ctx) {
					return console.ErrNotAuthenticated
				}
				active, hasActive := c.ActiveBusiness(ctx)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tID\tNAME\tCODE")
				for _, b := range c.Businesses(ctx) {
					marker := ""
					if hasActive && b.ID == active {
						marker = "*"
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", marker, b.ID, b.Name, b.Code)
				}
				return tw.Flush()
			})
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch <id>",
		Short: "Make a business the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBusinessID(args[0])
			if err != nil {
				return err
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				if err := c.SwitchBusiness(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active business: %d\n", id)
				return nil
			})
		},
	}

	var activate bool
	token := &cobra.Command{
		Use:   "token <id>",
		Short: "Print a token scoped to a business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBusinessID(args[0])
			if err != nil {
				return err
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				var tok string
				if activate {
					bt, err := c.ActivateBusiness(ctx, id)
					if err != nil {
						return err
					}
					tok = bt.Token
				} else {
					tok, err = c.BusinessToken(ctx, id)
					if err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			})
		},
	}
	token.Flags().BoolVar(&activate, "activate", false, "also switch to the business and keep the token")

	cmd.AddCommand(list, switchCmd, token)
	return cmd
}

func newChangePasswordCmd(opts *options) *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the session user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if current == "" || next == "" {
				return errors.New("--current and --new are required")
			}
			return opts.withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				res, err := c.ChangePassword(ctx, current, next)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
				if !res.PermissionsLoaded {
					fmt.Fprintln(cmd.OutOrStdout(), "Permissions could not be loaded; the menu is limited.")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}

func parseBusinessID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid business id %q", s)
	}
	return id, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
