package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/internal/config"
	"github.com/tarassh/webapp-ipfs-bundler/packer"
)

// NewPackCmd creates and returns the pack subcommand.
func NewPackCmd() *cobra.Command {
	var flags packFlags

	cmd := &cobra.Command{
		Use:   "pack DIR",
		Short: "Bundle a build directory for IPFS",
		Long: `Import DIR as a UnixFS DAG and write, inside DIR:

  ipfs-manifest.json   root CID and the CID of every file
  bundle.car           CAR v1 archive of every block (with --car)
  ipfs-debug.json      per-node diagnostics (with --debug)
  *.ipfs.html          IPFS-addressed copy of every HTML page
  index.html           stamped in place with the root CID

Files named bundle.car, ipfs-manifest.json and ipfs-debug.json at the root
of DIR are never packed, so repeated runs are stable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, args[0], &flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runPack(cmd *cobra.Command, dir string, flags *packFlags) error {
	opts, err := flags.options(cmd, config.Options.ValidatePack)
	if err != nil {
		return err
	}
	res, err := packer.Pack(cmd.Context(), dir, opts, newLogger(cmd))
	if err != nil {
		return err
	}
	printPackResult(cmd.OutOrStdout(), res)
	return nil
}

func printPackResult(w io.Writer, res packer.Result) {
	fmt.Fprintf(w, "Root CID: %s\n", res.RootCid)
	fmt.Fprintf(w, "  Files: %d\n", len(res.FileCids))
	fmt.Fprintf(w, "  Blocks: %d\n", res.Blocks)
	fmt.Fprintf(w, "  Manifest: %s\n", res.ManifestPath)
	if res.CarPath != "" {
		fmt.Fprintf(w, "  CAR: %s\n", res.CarPath)
	}
	if res.DebugPath != "" {
		fmt.Fprintf(w, "  Debug: %s\n", res.DebugPath)
	}
	if res.Stamped {
		fmt.Fprintf(w, "  Stamped index.html\n")
	}
	if len(res.Rewritten) > 0 {
		fmt.Fprintf(w, "  Rewritten: %d HTML file(s)\n", len(res.Rewritten))
	}
	if res.Upload != nil {
		fmt.Fprintf(w, "  Uploaded: %s\n", res.Upload.RootCid)
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, "  Warnings: %d\n", len(res.Warnings))
	}
}
