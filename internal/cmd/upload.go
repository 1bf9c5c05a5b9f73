package cmd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/internal/config"
	"github.com/tarassh/webapp-ipfs-bundler/upload"
)

// NewUploadCmd creates and returns the upload subcommand.
func NewUploadCmd() *cobra.Command {
	var (
		flags   packFlags
		dirName string
	)

	cmd := &cobra.Command{
		Use:   "upload DIR",
		Short: "Post DIR to an IPFS node's HTTP API",
		Long: `Upload every non-excluded file in DIR to /api/v0/add with CIDv1, raw
leaves and directory wrapping, and print the root CID the node reports.

Run after pack, the root includes the stamped index.html and the
.ipfs.html copies, so it differs from the manifest root. Use pack --upload
to upload exactly the packed bytes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args[0], &flags, dirName)
		},
	}

	flags.registerUpload(cmd)
	cmd.Flags().StringVar(&dirName, "dir-name", "", "Upload under this top-level directory name")

	return cmd
}

func runUpload(cmd *cobra.Command, dir string, flags *packFlags, dirName string) error {
	opts, err := flags.options(cmd, config.Options.ValidateUpload)
	if err != nil {
		return err
	}
	uo := opts.UploadOptions()
	uo.DirName = dirName
	res, err := upload.Upload(cmd.Context(), dir, uo, newLogger(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Root CID: %s\n", res.RootCid)
	for _, p := range slices.Sorted(maps.Keys(res.FileCids)) {
		fmt.Fprintf(out, "  %s  %s\n", res.FileCids[p], p)
	}
	return nil
}
