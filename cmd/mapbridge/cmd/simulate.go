package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/go-drift/mapbridge/cmd/mapbridge/internal/config"
	"github.com/go-drift/mapbridge/cmd/mapbridge/internal/script"
	"github.com/go-drift/mapbridge/pkg/log"
)

// errScenarioFailed is returned when a script ran but a step failed.
var errScenarioFailed = fmt.Errorf("scenario failed")

const watchDebounce = 100 * time.Millisecond

var simulateFlags struct {
	watch bool
	json  bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <script.yaml>",
	Short: "Replay a host event script against a simulated map engine",
	Long: `Replay a script of host events against a simulated native side.

Each step is printed with the engine calls, surface calls and host
notifications it caused. Expectation steps check the runtime reference
count, engine start/stop counts and view states. The command exits with
an error if any step fails.

With --watch the script and config file are re-run whenever they change.`,
	Example: `  mapbridge simulate testdata/two_views.yaml
  mapbridge simulate --json scenario.yaml
  mapbridge simulate --config mapbridge.toml --watch scenario.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.BoolVarP(&simulateFlags.watch, "watch", "w", false, "re-run when the script or config file changes")
	f.BoolVar(&simulateFlags.json, "json", false, "print the report as JSON")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()

	once := func() error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		return simulateOnce(out, path, cfg, logger)
	}

	if !simulateFlags.watch {
		return once()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watch(ctx, []string{path, rootFlags.config}, func() {
		if err := once(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	})
}

func simulateOnce(out io.Writer, path string, cfg *config.Resolved, logger log.Logger) error {
	s, err := script.Load(path)
	if err != nil {
		return err
	}
	runner := script.NewRunner(
		script.WithLogger(logger),
		script.WithInitialCamera(cfg.Camera),
		script.WithCredential(cfg.APIKey),
	)
	report, err := runner.Run(s)
	if err != nil {
		return err
	}

	if simulateFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}
	if !report.Passed {
		return errScenarioFailed
	}
	return nil
}

// watch calls run once, then again after every write to one of files,
// until ctx is done. Directories are watched so editors that replace the
// file on save are still seen.
func watch(ctx context.Context, files []string, run func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	targets := map[string]bool{}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		targets[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
		}
	}

	var (
		mu       sync.Mutex
		runMu    sync.Mutex
		debounce *time.Timer
	)
	serialized := func() {
		runMu.Lock()
		defer runMu.Unlock()
		run()
	}
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(watchDebounce, serialized)
	}
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
		}
		mu.Unlock()
	}()

	serialized()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Default().Warn("file watcher error", log.Err(err))
		}
	}
}
