// Package cli implements the sweep command line tool, which runs the file
// pipeline over local files without the web UI.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/sweeper/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the sweep command tree. Output goes to the command's
// configured writers so tests can capture it.
func NewRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "sweep",
		Short: "Clean, reshape and convert CSV and Excel files",
		Long: `sweep runs the Data Sweeper pipeline over local files: parse, summarize,
deduplicate, fill missing numeric values, select and rename columns, and
export as CSV or Excel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newConvertCmd(), newDescribeCmd())
	return root
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}
