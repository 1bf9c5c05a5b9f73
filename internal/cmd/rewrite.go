package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/internal/config"
	"github.com/tarassh/webapp-ipfs-bundler/rewrite"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// NewRewriteCmd creates and returns the rewrite subcommand, which runs the
// HTML rewriter alone against a manifest written by an earlier pack.
func NewRewriteCmd() *cobra.Command {
	var flags packFlags

	cmd := &cobra.Command{
		Use:   "rewrite DIR",
		Short: "Write IPFS-addressed copies of the HTML in DIR",
		Long: `Read DIR/ipfs-manifest.json and write a <name>.ipfs.html sibling for every
HTML file in DIR with src= and href= references replaced by IPFS URLs.

A missing or unreadable manifest is reported as a warning and nothing is
written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, args[0], &flags)
		},
	}

	flags.registerStyle(cmd)

	return cmd
}

func runRewrite(cmd *cobra.Command, dir string, flags *packFlags) error {
	opts, err := flags.options(cmd, config.Options.ValidateStyle)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)
	written, err := rewrite.FromManifest(dir, opts.URLStyle, logger)
	if errors.Is(err, util.ErrRewriteSkipped) {
		logger.Warn("rewrite skipped", "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
