package cli

import (
	"fmt"

	"github.com/artpar/cookiestore/internal/cookies/memory"
	"github.com/artpar/cookiestore/internal/storage/filesystem"
	"github.com/atotto/clipboard"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format    string
	Output    string
	Clipboard bool
}

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	exportOpts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the store as a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				snap, err := s.snapshot(ctx)
				if err != nil {
					return err
				}

				if exportOpts.Output != "" {
					return filesystem.NewSnapshotStore(afero.NewOsFs(), exportOpts.Output).Save(ctx, snap)
				}

				format, err := filesystem.ParseFormat(exportOpts.Format)
				if err != nil {
					return err
				}
				content, err := filesystem.Encode(snap, format)
				if err != nil {
					return err
				}

				if exportOpts.Clipboard {
					if err := clipboard.WriteAll(string(content)); err != nil {
						return fmt.Errorf("failed to copy to clipboard: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Copied %d cookie(s) to clipboard\n", snap.Len())
					return nil
				}

				out := cmd.OutOrStdout()
				out.Write(content)
				if len(content) > 0 && content[len(content)-1] != '\n' {
					fmt.Fprintln(out)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&exportOpts.Format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&exportOpts.Output, "output", "o", "", "Write to file instead of stdout (format from extension)")
	cmd.Flags().BoolVar(&exportOpts.Clipboard, "clipboard", false, "Copy to the system clipboard")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Merge a snapshot file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			snap, err := filesystem.NewSnapshotStore(afero.NewOsFs(), args[0]).Load(ctx)
			if err != nil {
				return err
			}
			idx, err := snap.Index()
			if err != nil {
				return err
			}

			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				if replace {
					if err := s.store.RemoveEverything(ctx); err != nil {
						return err
					}
				}
				for _, c := range idx.Cookies() {
					if err := s.store.Put(ctx, c); err != nil {
						return err
					}
				}
				if err := s.commit(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cookie(s)\n", idx.Len())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Remove existing cookies first")
	return cmd
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the raw index for debugging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withSession(ctx, opts, cmd.ErrOrStderr(), func(s *session) error {
				mem := s.memory
				if mem == nil {
					snap, err := s.snapshot(ctx)
					if err != nil {
						return err
					}
					if mem, err = memory.NewFromSnapshot(snap); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), mem.String())
				return nil
			})
		},
	}
}
