// Command calllist imports a contact list from the command line and prints
// it grouped by day.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/calllist/internal/core"
	"github.com/JonMunkholm/calllist/internal/logging"
)

type rootOptions struct {
	logLevel     string
	keywordsFile string
	maxFileSize  int64

	keywords core.Keywords
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "calllist",
		Short:         "Turn spreadsheets and Word tables into a daily call list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))

			kw, err := core.LoadKeywords(opts.keywordsFile)
			if err != nil {
				return err
			}
			opts.keywords = kw
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.keywordsFile, "keywords", "", "YAML file overriding header keywords")
	cmd.PersistentFlags().Int64Var(&opts.maxFileSize, "max-size", 20<<20, "Maximum file size in bytes")

	cmd.AddCommand(newImportCmd(opts), newHeadersCmd(opts))
	return cmd
}

// readFile reads path with the size limit applied.
func readFile(path string, max int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableFile, err)
	}
	defer f.Close()
	return core.ReadAllLimited(f, max)
}

// errReported marks errors reportError already printed.
var errReported = errors.New("reported")

// reportError prints err the way the web UI would show it.
func reportError(cmd *cobra.Command, err error) error {
	if core.IsUserFacing(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), core.FormatUserError(err))
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
	}
	return fmt.Errorf("%w: %w", errReported, err)
}
