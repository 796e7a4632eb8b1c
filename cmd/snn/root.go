package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/born-ml/snn/surrogate"
)

// cli holds the global flags shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	source     string
	log        zerolog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "snn",
		Short:         "Spiking-neuron surrogate gradient operators",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := zerolog.ParseLevel(c.logLevel)
			if err != nil {
				return errors.Wrapf(err, "--log-level")
			}
			c.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("SNN_CONFIG"), "operator manifest (YAML); defaults apply when empty")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&c.source, "source", "", "override the manifest source: native or builtin")

	root.AddCommand(
		newVersionCommand(),
		newStatusCommand(c),
		newBuildCommand(c),
		newOpsCommand(c),
		newEvalCommand(c),
	)
	return root
}

// config loads the manifest and applies command line overrides.
func (c *cli) config() (surrogate.Config, error) {
	cfg, err := surrogate.LoadConfig(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.source != "" {
		cfg.Source = surrogate.Source(c.source)
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (c *cli) open(cmd *cobra.Command) (*surrogate.Runtime, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return surrogate.Open(cmd.Context(), cfg, surrogate.WithLogger(c.log))
}
