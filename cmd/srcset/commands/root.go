// Package commands implements the CLI commands for srcset.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/srcset/internal/app"
	"go.trai.ch/srcset/internal/build"
	"go.trai.ch/srcset/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for srcset.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	jsonLog func(bool)
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, paths []string, opts app.BuildOptions) error
	Watch(ctx context.Context, paths []string, opts app.BuildOptions) error
	Plan(ctx context.Context, opts app.PlanOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// Option customizes a CLI.
type Option func(*CLI)

// WithLogFormatSwitch registers fn to be told whether --log-format selected JSON.
func WithLogFormatSwitch(fn func(json bool)) Option {
	return func(c *CLI) {
		c.jsonLog = fn
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "srcset",
		Short:         "Generate responsive image variants and srcset markup",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: discover srcset.yaml or srcset.toml)")
	rootCmd.PersistentFlags().String("log-format", "pretty", "Log format: pretty or json")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		switch format {
		case "pretty", "json":
		default:
			return zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "unknown log format"), "log-format", format)
		}
		if c.jsonLog != nil {
			c.jsonLog(format == "json")
		}
		return nil
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func configFlag(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
