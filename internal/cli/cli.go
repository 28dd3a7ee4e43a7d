// Package cli implements the dataflows command-line interface, a thin
// client of the scene server.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ritzau/dataflows/pkg/client"
	"github.com/ritzau/dataflows/pkg/config"
	"github.com/ritzau/dataflows/pkg/logging"
)

// CLI holds shared state for all commands
type CLI struct {
	Logger *log.Logger
	out    io.Writer

	endpoint string
}

// New creates a CLI that prints results to out and logs to errOut
func New(out, errOut io.Writer) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(errOut, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           log.InfoLevel,
		}),
		out: out,
	}
}

// RootCommand creates the root cobra command with all subcommands registered
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dataflows",
		Short:         "Manage network topology scenes",
		Long:          `dataflows lists, inspects, uploads and downloads the network topology scenes kept by a scene server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.configure(cmd)
		},
	}

	root.PersistentFlags().String("endpoint", client.DefaultEndpoint, "scene server URL")
	root.PersistentFlags().CountP("verbose", "v", "increase verbosity (-v debug, -vv trace)")

	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.pushCommand())
	root.AddCommand(c.pullCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.rmCommand())

	return root
}

// configure layers config file and environment under the flags and routes
// the package logger through charmbracelet/log
func (c *CLI) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	c.endpoint = cfg.Endpoint

	level := logging.LevelFromVerbosity(cfg.Verbosity, cfg.Verbose)
	c.Logger.SetLevel(log.Level(level))
	logging.SetHandler(c.Logger)

	c.Logger.Debug("configured", "endpoint", c.endpoint, "level", level.String())
	return nil
}

func (c *CLI) client() *client.Client {
	return client.NewClient(c.endpoint)
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(c.out)
	return root.ExecuteContext(ctx)
}
