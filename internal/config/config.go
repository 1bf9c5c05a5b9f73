// Package config resolves the options of a packing run.
//
// Values are layered, later layers winning:
//   - built-in defaults
//   - a config file (TOML, or YAML when the name ends in .yaml/.yml) named
//     by --config or IPFS_BUNDLER_CONFIG
//   - IPFS_API_URL and IPFS_AUTH_HEADER from the environment
//   - command-line flags that were explicitly set
//
// ${VAR} references in auth_header are expanded from the environment so
// tokens need not be written into the file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tarassh/webapp-ipfs-bundler/rewrite"
	"github.com/tarassh/webapp-ipfs-bundler/upload"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvConfigPath = "IPFS_BUNDLER_CONFIG"
	EnvAPIURL     = "IPFS_API_URL"
	EnvAuthHeader = "IPFS_AUTH_HEADER"
)

// Options controls one packing run.
type Options struct {
	SkipCar       bool
	Upload        bool
	URLStyle      rewrite.Style
	Debug         bool
	APIURL        string
	AuthHeader    string
	UploadTimeout time.Duration
	Pin           bool
}

// fileOptions mirrors Options as it appears in a config file. Pointer
// fields distinguish "absent" from the zero value.
type fileOptions struct {
	SkipCar       *bool   `toml:"skip_car" yaml:"skip_car"`
	Upload        *bool   `toml:"upload" yaml:"upload"`
	URLStyle      *string `toml:"url_style" yaml:"url_style"`
	Debug         *bool   `toml:"debug" yaml:"debug"`
	APIURL        *string `toml:"api_url" yaml:"api_url"`
	AuthHeader    *string `toml:"auth_header" yaml:"auth_header"`
	UploadTimeout *string `toml:"upload_timeout" yaml:"upload_timeout"`
	Pin           *bool   `toml:"pin" yaml:"pin"`
}

// Default returns the built-in options.
func Default() Options {
	return Options{
		SkipCar:       true,
		Upload:        false,
		URLStyle:      rewrite.DefaultStyle,
		Debug:         false,
		APIURL:        upload.DefaultAPIURL,
		UploadTimeout: 5 * time.Minute,
		Pin:           true,
	}
}

// Load builds options from defaults, the config file at path (or the one
// named by IPFS_BUNDLER_CONFIG when path is empty) and the environment.
func Load(path string) (Options, error) {
	opts := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := opts.LoadFile(path); err != nil {
			return opts, err
		}
	}
	opts.ApplyEnv(os.LookupEnv)
	return opts, nil
}

// LoadFile merges the keys present in the file at path into o.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var f fileOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		_, err = toml.Decode(string(data), &f)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return o.merge(f)
}

func (o *Options) merge(f fileOptions) error {
	if f.SkipCar != nil {
		o.SkipCar = *f.SkipCar
	}
	if f.Upload != nil {
		o.Upload = *f.Upload
	}
	if f.URLStyle != nil {
		o.URLStyle = rewrite.Style(*f.URLStyle)
	}
	if f.Debug != nil {
		o.Debug = *f.Debug
	}
	if f.APIURL != nil {
		o.APIURL = *f.APIURL
	}
	if f.AuthHeader != nil {
		o.AuthHeader = os.ExpandEnv(*f.AuthHeader)
	}
	if f.UploadTimeout != nil {
		d, err := time.ParseDuration(*f.UploadTimeout)
		if err != nil {
			return fmt.Errorf("upload_timeout: %w", err)
		}
		o.UploadTimeout = d
	}
	if f.Pin != nil {
		o.Pin = *f.Pin
	}
	return nil
}

// ApplyEnv overrides the API settings from the environment.
func (o *Options) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		o.APIURL = v
	}
	if v, ok := lookup(EnvAuthHeader); ok && v != "" {
		o.AuthHeader = v
	}
}

// Validate reports every invalid option at once.
func (o Options) Validate() error {
	return errors.Join(o.ValidateStyle(), o.ValidateUpload())
}

// ValidatePack checks what a pack reads: the upload settings only matter
// when uploading is on.
func (o Options) ValidatePack() error {
	if !o.Upload {
		return o.ValidateStyle()
	}
	return o.Validate()
}

// ValidateStyle checks the options the HTML rewriter reads.
func (o Options) ValidateStyle() error {
	_, err := rewrite.ParseStyle(string(o.URLStyle))
	return err
}

// ValidateUpload checks the options the upload adapter reads.
func (o Options) ValidateUpload() error {
	var errs []error
	if u, err := url.Parse(o.APIURL); err != nil {
		errs = append(errs, fmt.Errorf("api url: %w", err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api url %q: want http(s)://host[:port]", o.APIURL))
	}
	if o.UploadTimeout < 0 {
		errs = append(errs, fmt.Errorf("upload timeout %s is negative", o.UploadTimeout))
	}
	return errors.Join(errs...)
}

// UploadOptions returns the upload adapter settings. Directory wrapping is
// always on so the node's root matches the local one.
func (o Options) UploadOptions() upload.Options {
	return upload.Options{
		APIURL:            o.APIURL,
		AuthHeader:        o.AuthHeader,
		WrapWithDirectory: true,
		Pin:               o.Pin,
		Timeout:           o.UploadTimeout,
	}
}
