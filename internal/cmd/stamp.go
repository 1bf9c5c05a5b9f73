package cmd

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/manifest"
	"github.com/tarassh/webapp-ipfs-bundler/rewrite"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// NewStampCmd creates and returns the stamp subcommand.
func NewStampCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "stamp DIR",
		Short: "Stamp a root CID into DIR/index.html",
		Long: `Insert <meta name="ipfs-root-cid" content="ROOT" /> before </head> in
DIR/index.html. The root defaults to the one recorded in the manifest.
An index that is missing, already stamped or has no </head> is left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStamp(cmd, args[0], root)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Root CID to stamp (default: manifest root)")

	return cmd
}

func runStamp(cmd *cobra.Command, dir, root string) error {
	if root == "" {
		m, err := manifest.Read(manifestPath(dir))
		if err != nil {
			return fmt.Errorf("no --root given and %w", err)
		}
		root = m.Root
	}
	if _, err := cid.Decode(root); err != nil {
		return fmt.Errorf("invalid root %q: %w", root, err)
	}

	err := rewrite.Stamp(dir, root)
	if errors.Is(err, util.ErrStampSkipped) {
		newLogger(cmd).Info("stamp skipped", "reason", err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stamped %s with %s\n", rewrite.IndexFileName, root)
	return nil
}
