package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/internal/config"
	"github.com/tarassh/webapp-ipfs-bundler/packer"
	"github.com/tarassh/webapp-ipfs-bundler/rewrite"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// NewWatchCmd creates and returns the watch subcommand.
func NewWatchCmd() *cobra.Command {
	var (
		flags    packFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Re-pack DIR whenever its files change",
		Long: `Pack DIR once, then watch it and pack again after changes settle.

Writes made by the pack itself (manifest, CAR, debug file, .ipfs.html
copies and the stamped index.html) do not trigger another run. Stop with
Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], &flags, debounce)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Quiet period before re-packing")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, flags *packFlags, debounce time.Duration) error {
	opts, err := flags.options(cmd, config.Options.ValidatePack)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)
	p := packer.New(opts, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return watchLoop(ctx, dir, debounce, func(ctx context.Context) error {
		res, err := p.Pack(ctx, dir)
		if err == nil {
			printPackResult(cmd.OutOrStdout(), res)
		}
		return err
	}, logger)
}

// watchLoop packs once, then again each time the tree under dir has been
// quiet for debounce after a change. It returns when ctx is done.
func watchLoop(ctx context.Context, dir string, debounce time.Duration, pack func(context.Context) error, logger *slog.Logger) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := addTree(fsw, dir); err != nil {
		return err
	}

	var packedAt time.Time
	run := func() {
		if err := pack(ctx); err != nil {
			logger.Error("pack failed", "error", err)
		}
		packedAt = time.Now()
		// Events caused by the pack's own writes are already queued.
		for {
			select {
			case <-fsw.Events:
			default:
				return
			}
		}
	}
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	logger.Info("watching", "dir", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(fsw, ev.Name); err != nil {
						logger.Warn("watch new directory", "dir", ev.Name, "error", err)
					}
				}
			}
			if isPipelineOutput(dir, ev.Name) || isStampEcho(dir, ev.Name, packedAt, time.Now(), debounce) {
				continue
			}
			logger.Debug("change", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case <-timer.C:
			run()
		}
	}
}

// addTree watches root and every directory beneath it.
func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories removed mid-walk are skipped.
			if path != root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fsw.Add(path)
	})
}

// isPipelineOutput reports whether an event path is one the pack writes
// itself.
func isPipelineOutput(dir, name string) bool {
	rel, err := filepath.Rel(dir, name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(name)
	switch {
	case util.IsExcluded(rel):
		return true
	case strings.HasSuffix(base, rewrite.OutputSuffix):
		return true
	case util.IsTempFile(base):
		return true
	}
	return false
}

// isStampEcho reports whether an event on index.html arrived within window
// of the last pack finishing, and so is the stamper's own write delivered
// late.
func isStampEcho(dir, name string, packedAt, now time.Time, window time.Duration) bool {
	rel, err := filepath.Rel(dir, name)
	if err != nil || filepath.ToSlash(rel) != rewrite.IndexFileName {
		return false
	}
	return !packedAt.IsZero() && now.Sub(packedAt) < window
}
