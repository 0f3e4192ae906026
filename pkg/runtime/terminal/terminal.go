package terminal

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/transparency-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/transparency-atlas/pkg/runtime/terminal/console"
)

// CLI represents the command-line interface
type CLI struct {
	reporter *console.Reporter
	logger   zerolog.Logger
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	// Log receives diagnostics, stderr when nil.
	Log io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Log == nil {
		opts.Log = os.Stderr
	}

	cli := &CLI{
		reporter: console.NewReporter(opts.Output),
		logger: zerolog.New(zerolog.ConsoleWriter{Out: opts.Log}).
			With().Timestamp().Logger().
			Level(zerolog.InfoLevel),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(cli.logger.WithContext(ctx))
}

// SetArgs overrides the process arguments, mostly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "transparency",
		Short:         "Transparency report aggregation tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(commands.NewGenerateCmd(cli.reporter))
	cmd.AddCommand(commands.NewRankCmd(cli.reporter))
	cmd.AddCommand(commands.NewCategoriesCmd(cli.reporter))

	return cmd
}
