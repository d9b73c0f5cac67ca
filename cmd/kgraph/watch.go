package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch FILE...",
	Short: "Recompile graph documents whenever they change",
	Long: `Compiles every file once, then again each time it is written, until
interrupted. Errors are reported and watching continues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.DurationVar(&watchDebounce, "debounce", 100*time.Millisecond, "Quiet period before recompiling")
	f.StringVar(&compileFormat, "format", "text", "Output format (text, json)")
	f.StringArrayVar(&compileVars, "var", nil, "HCL variable as name=value, repeatable")
	f.StringSliceVar(&compileStrict, "strict", nil, "Data types to treat as strict")
	f.BoolVar(&compileRejectCycles, "reject-cycles", false, "Fail on cyclic graphs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if compileFormat != "text" && compileFormat != "json" {
		return fmt.Errorf("invalid format %q", compileFormat)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newCompiler()
	if err != nil {
		return err
	}
	defer c.Close()

	return watch(ctx, c, args, cmd.OutOrStdout())
}

// watch compiles paths once and then on every change until ctx is done.
// Directories are watched instead of the files so that editors replacing a
// file by rename keep being tracked.
func watch(ctx context.Context, c *compiler, paths []string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	tracked := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		tracked[abs] = p

		dir := filepath.Dir(abs)
		if !slices.Contains(watcher.WatchList(), dir) {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
	}

	recompile(c, paths, w)

	var (
		pending  = make(map[string]bool)
		debounce <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			p, ok := tracked[event.Name]
			if !ok {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending[p] = true
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			var changed []string
			for _, p := range paths {
				if pending[p] {
					changed = append(changed, p)
				}
			}
			clear(pending)
			recompile(c, changed, w)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

// recompile compiles each path and writes the result or the error.
func recompile(c *compiler, paths []string, w io.Writer) {
	for _, p := range paths {
		r, err := c.compile(p)
		if err != nil {
			logger.Error().Err(err).Str("file", p).Msg("Compile failed")
			fmt.Fprintf(w, "%s: error: %v\n", p, err)
			continue
		}
		logger.Debug().Str("file", p).Str("hash", r.Hash).Msg("Compiled")
		if err := writeResults(w, compileFormat, []compiled{r}); err != nil {
			logger.Error().Err(err).Msg("Failed to write plan")
		}
	}
}
