package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/internal/config"
	"github.com/tarassh/webapp-ipfs-bundler/internal/logging"
	"github.com/tarassh/webapp-ipfs-bundler/rewrite"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// Persistent flag names shared by every subcommand.
const (
	flagConfig  = "config"
	flagVerbose = "verbose"
)

// packFlags holds the option flags of commands that run the pipeline.
// Only flags the user actually set override the loaded configuration.
type packFlags struct {
	car        bool
	skipCar    bool
	upload     bool
	urlStyle   string
	debug      bool
	apiURL     string
	authHeader string
	timeout    time.Duration
	noPin      bool
}

func (f *packFlags) register(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().BoolVar(&f.car, "car", false, "Write bundle.car (same as --skip-car=false)")
	cmd.Flags().BoolVar(&f.skipCar, "skip-car", d.SkipCar, "Do not write bundle.car")
	cmd.Flags().BoolVar(&f.upload, "upload", d.Upload, "Upload the directory to an IPFS node after packing")
	f.registerStyle(cmd)
	cmd.Flags().BoolVar(&f.debug, "debug", d.Debug, "Write ipfs-debug.json")
	f.registerUpload(cmd)
}

func (f *packFlags) registerStyle(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.urlStyle, "url-style", string(rewrite.DefaultStyle), "HTML rewrite style: path, scheme or scheme-file")
}

func (f *packFlags) registerUpload(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().StringVar(&f.apiURL, "api-url", d.APIURL, "IPFS HTTP API base URL")
	cmd.Flags().StringVar(&f.authHeader, "auth-header", "", "Authorization header value for the IPFS API")
	cmd.Flags().DurationVar(&f.timeout, "timeout", d.UploadTimeout, "Upload timeout")
	cmd.Flags().BoolVar(&f.noPin, "no-pin", false, "Ask the node not to pin uploaded content")
}

// options loads the configuration file and environment, applies the flags
// that were set on cmd, and checks the result with validate.
func (f *packFlags) options(cmd *cobra.Command, validate func(config.Options) error) (config.Options, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	opts, err := config.Load(path)
	if err != nil {
		return opts, err
	}

	changed := cmd.Flags().Changed
	if changed("skip-car") {
		opts.SkipCar = f.skipCar
	}
	if changed("car") && f.car {
		opts.SkipCar = false
	}
	if changed("upload") {
		opts.Upload = f.upload
	}
	if changed("url-style") {
		opts.URLStyle = rewrite.Style(f.urlStyle)
	}
	if changed("debug") {
		opts.Debug = f.debug
	}
	if changed("api-url") {
		opts.APIURL = f.apiURL
	}
	if changed("auth-header") {
		opts.AuthHeader = f.authHeader
	}
	if changed("timeout") {
		opts.UploadTimeout = f.timeout
	}
	if changed("no-pin") {
		opts.Pin = !f.noPin
	}

	if err := validate(opts); err != nil {
		return opts, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

func manifestPath(dir string) string {
	return filepath.Join(dir, util.ManifestFileName)
}

// newLogger builds the command's logger on its error stream.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool(flagVerbose)
	return logging.New(cmd.ErrOrStderr(), verbose)
}
