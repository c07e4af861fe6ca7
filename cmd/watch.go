package cmd

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/conneroisu/doccheck/internal/scanner"
	"github.com/conneroisu/doccheck/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch [paths...]",
		Aliases: []string{"w"},
		Short:   "Check HTML documents and re-check them on every change",
		Long: `Run a full check, then watch the paths and run it again whenever an
HTML document is created, changed or removed. Saves that leave a file's
content unchanged do not trigger a new run.

Examples:
  doccheck watch docs
  doccheck watch --checkers links docs`,
		RunE:         runWatch,
		SilenceUsage: true,
	}
	addScanFlags(cmd)
	cmd.Flags().Int("debounce-ms", 300, "quiet period in milliseconds before re-checking")
	AddFlagValidation(cmd, "debounce-ms", ValidateNonNegative)
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlag("watch.debounce_ms", cmd.Flags().Lookup("debounce-ms")); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	out, closeOut, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOut()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := scanner.NewFileSource()

	// Runs never overlap; the last completed run's checksums decide whether
	// a batch of events needs a new one.
	var mu sync.Mutex
	summary, err := checkOnce(ctx, cfg, source, logger, out)
	if err != nil {
		return err
	}
	previous := summary.Result.Checksums

	fileWatcher, err := watcher.NewFileWatcher(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.ExtensionFilter(cfg.Extensions))
	fileWatcher.AddFilter(watcher.NoHiddenFilter)

	fileWatcher.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()

		if !contentChanged(source, previous, events) {
			logger.Debug(ctx, "Changes left content unchanged", "events", len(events))
			return nil
		}
		logger.Info(ctx, "Documents changed, checking again", "events", len(events))

		summary, err := checkOnce(ctx, cfg, source, logger, out)
		if err != nil {
			return err
		}
		previous = summary.Result.Checksums
		return nil
	})

	for _, path := range cfg.Paths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		logger.Info(ctx, "Watching", "path", path)
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Watching for changes... (Press Ctrl+C to stop)")
	<-ctx.Done()
	return nil
}

// contentChanged reports whether any event could change the outcome of a
// check. Creations, removals and renames always do; a modification does
// only when the file's checksum differs from the previous run.
func contentChanged(source scanner.Source, previous map[string]uint32, events []watcher.ChangeEvent) bool {
	for _, event := range events {
		if event.Type != watcher.EventTypeModified {
			return true
		}
		path := filepath.Clean(event.Path)
		sum, ok := previous[path]
		if !ok {
			return true
		}
		text, err := source.Read(path)
		if err != nil || crc32.ChecksumIEEE([]byte(text)) != sum {
			return true
		}
	}
	return false
}
