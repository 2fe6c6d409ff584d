package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/specialistvlad/rcpgrid/internal/app"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/errcode"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
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

func usageError(format string, a ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, a...)}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel  string
	logFormat string
	kindsPath string
}

func (o *globalOptions) normalize() error {
	o.logLevel = strings.ToLower(o.logLevel)
	o.logFormat = strings.ToLower(o.logFormat)
	if err := app.ValidateLogging(o.logLevel, o.logFormat); err != nil {
		return usageError("%s", err)
	}
	return nil
}

// NewRootCommand builds the command tree. Command output goes to outW and
// logs to errW.
func NewRootCommand(outW, errW io.Writer) (*cobra.Command, error) {
	env, err := loadEnvDefaults()
	if err != nil {
		return nil, usageError("%s", err)
	}

	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "rcpgrid",
		Short: "Block diagram compiler for rapid control prototyping",
		Long: `rcpgrid turns a block diagram of I/O blocks and bus-addressed motor
controllers into a deterministic execution schedule for a code emitter.

Examples:
  rcpgrid compile diagram/                       # Compile every .hcl file in diagram/
  rcpgrid compile motor.hcl --format hcl         # Render the schedule as HCL
  rcpgrid kinds --kinds ./kinds                  # List built-in and custom block kinds`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.normalize()
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError("%s\nRun '%s --help' for usage.", err, cmd.CommandPath())
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", env.get(EnvLogLevel, "info"), "Logging level: debug, info, warn or error.")
	flags.StringVar(&opts.logFormat, "log-format", env.get(EnvLogFormat, "text"), "Log output format: text or json.")
	flags.StringVar(&opts.kindsPath, "kinds", env.get(EnvKindsPath, ""), "Directory or file with additional kind manifests.")

	root.AddCommand(newCompileCommand(opts, errW), newKindsCommand(opts, errW))
	return root, nil
}

// Execute runs the command line given in args. Errors that are not already
// ExitErrors come from cobra itself (unknown command, bad arguments) and are
// reported as usage errors.
func Execute(ctx context.Context, outW, errW io.Writer, args []string) error {
	root, err := NewRootCommand(outW, errW)
	if err != nil {
		return err
	}
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return usageError("%s", err)
	}
	return nil
}

func newCompileCommand(opts *globalOptions, errW io.Writer) *cobra.Command {
	var (
		diagramPath      string
		format           string
		outputPath       string
		publishURL       string
		publishNamespace string
		publishAck       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "compile [DIAGRAM_PATH]",
		Short: "Compile a diagram into an execution schedule",
		Long: `Compile reads a diagram from a single .hcl file or from every .hcl file
under a directory, validates it against the registered block kinds and writes
the execution schedule as JSON or HCL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := diagramPath
			if path == "" && len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return usageError("a diagram path is required\nRun '%s --help' for usage.", cmd.CommandPath())
			}

			cfg, err := app.NewConfig(app.Config{
				DiagramPath:       path,
				KindsPath:         opts.kindsPath,
				Format:            strings.ToLower(format),
				OutputPath:        outputPath,
				PublishURL:        publishURL,
				PublishNamespace:  publishNamespace,
				PublishAckTimeout: publishAck,
				LogFormat:         opts.logFormat,
				LogLevel:          opts.logLevel,
			})
			if err != nil {
				return usageError("%s", err)
			}

			a := app.NewApp(cmd.OutOrStdout(), errW, cfg)
			a.Logger().Debug("CLI parser finished successfully.", "config", cfg)
			if err := a.Run(cmd.Context()); err != nil {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("compile failed [%s]: %v", errcode.Of(err), err)}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&diagramPath, "diagram", "d", "", "Path to the diagram file or directory.")
	f.StringVar(&format, "format", app.FormatJSON, "Output format: json or hcl.")
	f.StringVarP(&outputPath, "out", "o", "", "Write the schedule to this file instead of stdout.")
	f.StringVar(&publishURL, "publish-url", "", "socket.io server to publish the schedule to.")
	f.StringVar(&publishNamespace, "publish-namespace", "", "socket.io namespace used with --publish-url.")
	f.DurationVar(&publishAck, "publish-ack-timeout", 0, "Wait this long for the server to acknowledge the published schedule (0 disables).")
	return cmd
}

func newKindsCommand(opts *globalOptions, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the registered block kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := app.NewLogger(opts.logLevel, opts.logFormat, errW)
			ctx := ctxlog.WithLogger(cmd.Context(), logger)

			reg, err := app.LoadKinds(ctx, opts.kindsPath)
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("loading kinds failed [%s]: %v", errcode.Of(err), err)}
			}
			return app.WriteKinds(cmd.OutOrStdout(), reg)
		},
	}
}
