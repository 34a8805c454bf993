package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/numapde/papermake/internal/app"
	"github.com/numapde/papermake/internal/hcl"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// options holds the persistent flag values shared by all subcommands.
type options struct {
	paperfile string
	logFormat string
	logLevel  string
	jobs      int
}

// newApp validates the shared flags and constructs the application.
func (o *options) newApp(outW io.Writer) (*app.App, error) {
	logFormat := strings.ToLower(o.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(o.logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := &app.Config{
		PaperfilePath: o.paperfile,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		Jobs:          o.jobs,
	}
	return app.New(outW, cfg, hcl.NewLoader()), nil
}

// Execute runs the papermake CLI against the given arguments.
func Execute(ctx context.Context, outW, errW io.Writer, args []string) error {
	opts := &options{}

	root := &cobra.Command{
		Use:           "papermake",
		Short:         "Reproducible build orchestrator for scientific manuscripts",
		Long:          "papermake resolves a declarative dependency graph over experiment results,\nplots, tables, and the typeset manuscript, invoking external producer\ncommands only for artifacts that are missing or out of date.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&opts.paperfile, "paperfile", "f", ".", "Path to a paperfile or a directory containing .hcl paperfiles.")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.PersistentFlags().IntVarP(&opts.jobs, "jobs", "j", 1, "Number of concurrent workers. 1 resolves strictly sequentially.")

	root.AddCommand(
		newBuildCmd(opts, outW),
		newCleanCmd(opts, outW),
		newWatchCmd(opts, outW),
		newTargetsCmd(opts, outW),
	)

	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(errW)

	return root.ExecuteContext(ctx)
}

// newBuildCmd brings the requested targets up to date.
func newBuildCmd(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "build [TARGET...]",
		Short: "Bring targets up to date, invoking stale producer rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(outW)
			if err != nil {
				return err
			}
			return a.Build(cmd.Context(), args)
		},
	}
}

// newCleanCmd removes all generated artifacts in a category.
func newCleanCmd(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "clean CATEGORY",
		Short: "Remove all generated artifacts in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(outW)
			if err != nil {
				return err
			}
			return a.Clean(cmd.Context(), args[0])
		},
	}
}

// newWatchCmd rebuilds targets whenever one of their sources changes.
func newWatchCmd(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [TARGET...]",
		Short: "Build targets, then rebuild whenever a source artifact changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(outW)
			if err != nil {
				return err
			}
			return a.Watch(cmd.Context(), args)
		},
	}
}

// newTargetsCmd lists every addressable target.
func newTargetsCmd(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List all buildable targets (rule outputs and groups)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(outW)
			if err != nil {
				return err
			}
			return a.Targets(cmd.Context())
		},
	}
}
