// Package packer runs the full bundling pipeline over one output directory:
// walk, import, CAR and manifest emission, optional debug dump, upload,
// index stamping and HTML rewriting.
//
// Steps run strictly in sequence. Fatal failures stop the run and are
// returned; non-fatal ones (skipped stamp or rewrite, failed upload) are
// logged as warnings and recorded on the Result.
package packer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"

	"github.com/tarassh/webapp-ipfs-bundler/blockstore"
	"github.com/tarassh/webapp-ipfs-bundler/car"
	"github.com/tarassh/webapp-ipfs-bundler/importer"
	"github.com/tarassh/webapp-ipfs-bundler/internal/config"
	"github.com/tarassh/webapp-ipfs-bundler/internal/logging"
	"github.com/tarassh/webapp-ipfs-bundler/manifest"
	"github.com/tarassh/webapp-ipfs-bundler/rewrite"
	"github.com/tarassh/webapp-ipfs-bundler/upload"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// Result describes what a pack produced.
type Result struct {
	RootCid      string
	FileCids     map[string]string
	CarPath      string // empty when CAR emission is skipped
	ManifestPath string
	DebugPath    string // empty unless debug output is enabled
	Blocks       int
	Stamped      bool
	Rewritten    []string
	Upload       *upload.Result
	Warnings     []error
}

// Packer holds the settings for packing runs.
type Packer struct {
	opts   config.Options
	logger *slog.Logger
}

// New returns a packer. A nil logger discards output.
func New(opts config.Options, logger *slog.Logger) *Packer {
	return &Packer{opts: opts, logger: logging.Default(logger).With("component", "packer")}
}

// Pack is shorthand for New(opts, logger).Pack(ctx, dir).
func Pack(ctx context.Context, dir string, opts config.Options, logger *slog.Logger) (Result, error) {
	return New(opts, logger).Pack(ctx, dir)
}

// Pack bundles dir in place.
func (p *Packer) Pack(ctx context.Context, dir string) (Result, error) {
	style, err := rewrite.ParseStyle(string(p.opts.URLStyle))
	if err != nil {
		return Result{}, err
	}

	var res Result
	warn := func(msg string, err error, args ...any) {
		p.logger.Warn(msg, append(args, "error", err)...)
		res.Warnings = append(res.Warnings, err)
	}

	p.logger.Info("packing", "dir", dir)

	var files []util.FileEntry
	walked := record(util.Walk(dir, func(rel string, err error) {
		warn("skipping", err, "path", rel)
	}), &files)

	store := blockstore.New()
	imported, err := importer.New(store).Import(ctx, walked)
	if err != nil {
		return res, err
	}
	m := manifest.FromResult(imported)
	res.RootCid = m.Root
	res.FileCids = m.Files
	res.Blocks = store.Len()

	if !p.opts.SkipCar {
		carPath := filepath.Join(dir, util.CarFileName)
		if _, err := car.WriteFile(carPath, imported.Root, store); err != nil {
			return res, err
		}
		res.CarPath = carPath
		p.logger.Info("car written", "path", carPath, "blocks", res.Blocks, "bytes", store.Size())
	}

	res.ManifestPath = filepath.Join(dir, util.ManifestFileName)
	if err := m.Write(res.ManifestPath); err != nil {
		return res, err
	}
	p.logger.Info("manifest written", "path", res.ManifestPath, "files", len(m.Files))

	if p.opts.Debug {
		raw, err := rawCids(files)
		if err != nil {
			return res, err
		}
		res.DebugPath = filepath.Join(dir, util.DebugFileName)
		if err := manifest.NewDebug(imported, res.Blocks, raw).Write(res.DebugPath); err != nil {
			return res, err
		}
		p.logger.Debug("debug written", "path", res.DebugPath)
	}

	// Upload the imported file set before the stamper and rewriter touch
	// the directory, so the node sees the bytes the root was computed from.
	if p.opts.Upload {
		up, err := upload.New(p.opts.UploadOptions(), p.logger).UploadFiles(ctx, files)
		switch {
		case err != nil:
			warn("upload failed", err)
		case up.RootCid != res.RootCid:
			warn("upload root differs from local root",
				fmt.Errorf("%w: node returned %s, local root is %s", util.ErrUploadFailure, up.RootCid, res.RootCid))
			res.Upload = &up
		default:
			res.Upload = &up
		}
	}

	switch err := rewrite.Stamp(dir, res.RootCid); {
	case err == nil:
		res.Stamped = true
		p.logger.Info("index stamped", "root", res.RootCid)
	case errors.Is(err, util.ErrStampSkipped):
		p.logger.Debug("stamp skipped", "reason", err)
	default:
		return res, err
	}

	written, err := rewrite.New(dir, style, p.logger).Rewrite(m)
	res.Rewritten = written
	if err != nil {
		return res, err
	}
	if len(written) > 0 {
		p.logger.Info("html rewritten", "files", len(written), "style", style)
	}

	p.logger.Info("packed", "root", res.RootCid, "files", len(res.FileCids), "blocks", res.Blocks)
	return res, nil
}

// record passes seq through unchanged while keeping every yielded entry.
func record(seq iter.Seq2[util.FileEntry, error], into *[]util.FileEntry) iter.Seq2[util.FileEntry, error] {
	return func(yield func(util.FileEntry, error) bool) {
		for fe, err := range seq {
			if err == nil {
				*into = append(*into, fe)
			}
			if !yield(fe, err) {
				return
			}
		}
	}
}

func rawCids(files []util.FileEntry) (map[string]string, error) {
	out := make(map[string]string, len(files))
	for _, fe := range files {
		c, err := util.GetFileRawCid(fe.AbsPath)
		if err != nil {
			return nil, errors.Join(util.ErrReadFailure, fmt.Errorf("hash %s: %w", fe.RelPath, err))
		}
		out[fe.RelPath] = c.String()
	}
	return out, nil
}
