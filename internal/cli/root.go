package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	ConfigPath string
	Snapshot   string
	Backend    string
	Database   string
	Verbose    bool
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "cookiestore",
		Short:         "Cookiestore - inspect and edit a persistent cookie jar",
		Long:          "Cookiestore keeps HTTP cookies indexed by domain, path and name, and lets you query them the way a client would.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default: <user config dir>/cookiestore/config.yaml)")
	flags.StringVarP(&opts.Snapshot, "snapshot", "s", "", "Snapshot file used by the memory backend (.json or .yaml)")
	flags.StringVar(&opts.Backend, "backend", "", "Storage backend: memory or sqlite")
	flags.StringVar(&opts.Database, "db", "", "SQLite database path")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(
		NewSetCommand(opts),
		NewHeaderCommand(opts),
		NewListCommand(opts),
		NewFindCommand(opts),
		NewQueryCommand(opts),
		NewRemoveCommand(opts),
		NewClearCommand(opts),
		NewCleanupCommand(opts),
		NewDumpCommand(opts),
		NewExportCommand(opts),
		NewImportCommand(opts),
	)

	return cmd
}
