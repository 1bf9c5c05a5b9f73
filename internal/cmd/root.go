package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/version"
)

// NewRootCmd creates and returns the root cobra command for the ipfs-bundler CLI.
// It sets up all subcommands, command groups, and the persistent flags.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ipfs-bundler",
		Short: "ipfs-bundler - Content-address a built static site for IPFS",
		Long: `ipfs-bundler turns a web application's build output into an IPFS bundle.

It imports the directory as a UnixFS DAG (CIDv1, raw leaves, wrapped in a
directory) so the root CID matches what an IPFS node computes for the same
files, then writes a manifest, an optional CAR archive, IPFS-addressed
copies of every HTML page, and stamps the root CID into index.html.

Use subcommands to perform different operations:
  - pack: Run the whole pipeline over a build directory
  - rewrite: Rewrite HTML from an existing manifest
  - stamp: Stamp a root CID into index.html
  - upload: Post a directory to an IPFS node
  - watch: Re-pack whenever the directory changes
  - verify: Check a bundle.car against its manifest
  - cid: Print the CID of individual files
  - seed: Generate a sample static site`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "Path to a TOML or YAML config file")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable debug logging")

	groupBundle := "bundle"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupBundle,
		Title: "Bundle Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	packCmd := NewPackCmd()
	rewriteCmd := NewRewriteCmd()
	stampCmd := NewStampCmd()
	uploadCmd := NewUploadCmd()
	watchCmd := NewWatchCmd()
	verifyCmd := NewVerifyCmd()
	cidCmd := NewCidCmd()
	seedCmd := NewSeedCmd()

	packCmd.GroupID = groupBundle
	rewriteCmd.GroupID = groupBundle
	stampCmd.GroupID = groupBundle
	uploadCmd.GroupID = groupBundle
	watchCmd.GroupID = groupBundle
	verifyCmd.GroupID = groupUtilities
	cidCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities

	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(stampCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(cidCmd)
	rootCmd.AddCommand(seedCmd)

	return rootCmd
}
