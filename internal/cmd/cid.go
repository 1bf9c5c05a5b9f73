package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/blockstore"
	"github.com/tarassh/webapp-ipfs-bundler/importer"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// NewCidCmd creates and returns the cid subcommand.
// It prints the UnixFS CID each file would get inside a pack.
func NewCidCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "cid FILE...",
		Short: "Print the CID of individual files",
		Long: `Print the CIDv1 each FILE gets when imported with raw leaves and 256 KiB
chunks, the same CID ipfs-manifest.json records for it.

With --raw the raw-codec CID of the whole file's SHA-256 is printed too;
it equals the UnixFS CID for files of one chunk or less.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCid(cmd, args, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Also print the whole-file raw CID")

	return cmd
}

func runCid(cmd *cobra.Command, paths []string, raw bool) error {
	out := cmd.OutOrStdout()
	for _, path := range paths {
		c, err := fileCid(path)
		if err != nil {
			return err
		}
		if !raw {
			fmt.Fprintf(out, "%s  %s\n", c, path)
			continue
		}
		rc, err := util.GetFileRawCid(path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}
		fmt.Fprintf(out, "%s  %s  %s\n", c, rc, path)
	}
	return nil
}

func fileCid(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, util.ErrExpectedFile)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	nd, err := importer.New(blockstore.New()).ImportReader(f)
	if err != nil {
		return "", fmt.Errorf("import %s: %w", path, err)
	}
	return nd.Cid().String(), nil
}
