package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/peterkuimelis/starwake/internal/config"
	"github.com/peterkuimelis/starwake/internal/logging"
)

var version = "0.1.0" // set at build time with -ldflags "-X main.version=..."

// app carries the configuration resolved by the root command.
type app struct {
	envFile   string
	logFormat string
	logLevel  string

	cfg *config.Config
	log *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "starwake",
		Short: "Starwake deck-building race",
		Long: `Starwake is a deck-building race along a six-location track.

Commands:
  relay        Run the websocket relay that connects participants
  checkpoints  List or delete the relay's saved games
  host         Create a game and play as its authoritative seat
  join         Join a game hosted through the relay
  local        Play every seat from one terminal
  mcp          Expose a seat as MCP tools on stdio

Use "starwake [command] --help" for more information about a command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides LOG_FORMAT)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		newRelayCmd(a),
		newCheckpointsCmd(a),
		newHostCmd(a),
		newJoinCmd(a),
		newLocalCmd(a),
		newMCPCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "starwake v%s\n", version)
			},
		},
	)
	return root
}

// load resolves configuration. Logs go to stderr so stdout stays free for
// the console and the MCP stdio transport.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
	return nil
}
