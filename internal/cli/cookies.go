package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

// NewSetCommand creates the set command.
func NewSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set URL SET-COOKIE...",
		Short: "Store cookies as if URL had sent them",
		Long:  "Store cookies as if the response for URL carried the given Set-Cookie header values.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := parseURL(args[0])
			if err != nil {
				return err
			}

			var received []*http.Cookie
			for _, line := range args[1:] {
				hc, err := http.ParseSetCookie(line)
				if err != nil {
					return fmt.Errorf("invalid Set-Cookie %q: %w", line, err)
				}
				received = append(received, hc)
			}

			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				jar, err := s.jar()
				if err != nil {
					return err
				}
				before, _ := jar.Count()
				if err := jar.SetCookiesContext(ctx, u, received); err != nil {
					return err
				}
				after, _ := jar.Count()
				if err := s.commit(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d cookie(s), jar now holds %d (was %d)\n", len(received), after, before)
				return nil
			})
		},
	}
}

// NewHeaderCommand creates the header command.
func NewHeaderCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "header URL",
		Short: "Print the Cookie header a request to URL would carry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := parseURL(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				jar, err := s.jar()
				if err != nil {
					return err
				}
				header, err := jar.Header(ctx, u)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), header)
				return nil
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all cookies, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				all, err := s.store.GetAll(ctx)
				if err != nil {
					return err
				}
				return outputCookies(cmd, all, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// NewFindCommand creates the find command.
func NewFindCommand(opts *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "find DOMAIN PATH KEY",
		Short: "Look up one cookie by its exact domain, path and name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				c, err := s.store.Find(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				if c == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching cookie")
					return nil
				}
				if asJSON {
					return writeJSON(cmd, c)
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.String())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand(opts *RootOptions) *cobra.Command {
	var asJSON, specialUse bool

	cmd := &cobra.Command{
		Use:   "query DOMAIN [PATH]",
		Short: "Show cookies that apply to a domain and optional path",
		Long:  "Show cookies stored for DOMAIN or any domain above it. With PATH, only cookies whose path matches it are shown.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}

			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				allow := specialUse || s.cfg.AllowSpecialUseDomains
				found, err := s.store.FindAll(ctx, args[0], path, allow)
				if err != nil {
					return err
				}
				return outputCookies(cmd, found, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&specialUse, "special-use", false, "Treat special-use names such as localhost as registrable domains")
	return cmd
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm DOMAIN [PATH [KEY]]",
		Short: "Remove a domain, a path of a domain, or a single cookie",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				var err error
				switch len(args) {
				case 3:
					err = s.store.Remove(ctx, args[0], args[1], args[2])
				case 2:
					err = s.store.RemoveAll(ctx, args[0], args[1])
				default:
					err = s.store.RemoveAll(ctx, args[0], "")
				}
				if err != nil {
					return err
				}
				return s.commit(ctx)
			})
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				if err := s.store.RemoveEverything(ctx); err != nil {
					return err
				}
				return s.commit(ctx)
			})
		},
	}
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				jar, err := s.jar()
				if err != nil {
					return err
				}
				removed, err := jar.Cleanup()
				if err != nil {
					return err
				}
				if err := s.commit(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired cookie(s)\n", removed)
				return nil
			})
		},
	}
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return u, nil
}
