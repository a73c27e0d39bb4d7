package terminal

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/turbo-critical/pkg/runtime/terminal/commands"
)

// CLI represents the command-line interface
type CLI struct {
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output      io.Writer
	Logger      zerolog.Logger
	Prompt      commands.PasswordPrompt
	ProfilePath string
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cmd := commands.NewLimitCmd(commands.Dependencies{
		Logger:      opts.Logger,
		Prompt:      opts.Prompt,
		ProfilePath: opts.ProfilePath,
	})
	cmd.SilenceErrors = true
	cmd.SetOut(opts.Output)

	return &CLI{rootCmd: cmd}
}

func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}
