// Package cmd implements the mapbridge CLI commands.
//
// The root command carries the shared --config and logging flags; the
// subcommands (simulate, version) register themselves in init.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-drift/mapbridge/cmd/mapbridge/internal/config"
	"github.com/go-drift/mapbridge/pkg/errors"
	"github.com/go-drift/mapbridge/pkg/log"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

const defaultConfigPath = "mapbridge.yaml"

var rootFlags struct {
	config     string
	logLevel   string
	logBackend string
	logJSON    bool
}

var rootCmd = &cobra.Command{
	Use:   "mapbridge",
	Short: "Lifecycle bridge between a mobile host and an embedded map view",
	Long: strings.TrimSpace(`
mapbridge keeps a shared, reference-counted map runtime and the embedded map
views that use it in step with the host application's lifecycle.

The simulate command replays a script of host events (create, attach,
foreground, ...) against a simulated native side and checks the resulting
engine and view state.`),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootFlags.config, "config", "c", defaultConfigPath, "config file (.yaml or .toml); missing files are ignored")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	f.StringVar(&rootFlags.logBackend, "log-backend", "", "log backend: zerolog, zap, nop (overrides config)")
	f.BoolVar(&rootFlags.logJSON, "log-json", false, "structured JSON logs (overrides config)")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the config file and applies logging flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Resolved, error) {
	cfg, err := config.Resolve(rootFlags.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	if changed["log-level"] {
		cfg.Log.Level = rootFlags.logLevel
	}
	if changed["log-backend"] {
		cfg.Log.Backend = log.Backend(rootFlags.logBackend)
	}
	if changed["log-json"] {
		cfg.Log.JSON = rootFlags.logJSON
	}
	return cfg, nil
}

// setupLogging installs the configured logger as the process default and
// routes reported errors through it.
func setupLogging(cfg *config.Resolved) (log.Logger, error) {
	logger, err := log.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	errors.SetHandler(&errors.LogHandler{Logger: logger})
	return logger, nil
}
