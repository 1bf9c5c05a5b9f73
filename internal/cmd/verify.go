package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tarassh/webapp-ipfs-bundler/blockstore"
	"github.com/tarassh/webapp-ipfs-bundler/car"
	"github.com/tarassh/webapp-ipfs-bundler/importer"
	"github.com/tarassh/webapp-ipfs-bundler/manifest"
	"github.com/tarassh/webapp-ipfs-bundler/rewrite"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// NewVerifyCmd creates and returns the verify subcommand.
// It checks a bundle.car against the manifest written next to it.
func NewVerifyCmd() *cobra.Command {
	var (
		carPath  string
		contents bool
	)

	cmd := &cobra.Command{
		Use:   "verify DIR",
		Short: "Check bundle.car against ipfs-manifest.json",
		Long: `Load DIR/bundle.car, confirm every block hashes to its CID, that the CAR
root equals the manifest root, and that every manifest path resolves under
the root to the recorded CID.

With --contents the bytes of each file are also read back out of the DAG
and compared with the file on disk. index.html is compared with its root
CID stamp removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if carPath == "" {
				carPath = filepath.Join(dir, util.CarFileName)
			}
			return runVerify(cmd, dir, carPath, contents)
		},
	}

	cmd.Flags().StringVar(&carPath, "car", "", "Path to the CAR file (default: DIR/bundle.car)")
	cmd.Flags().BoolVar(&contents, "contents", false, "Compare file bytes with the files on disk")

	return cmd
}

func runVerify(cmd *cobra.Command, dir, carPath string, contents bool) error {
	problems, checked, err := verifyBundle(cmd.Context(), dir, carPath, contents)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range problems {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	fmt.Fprintf(out, "\nVerification complete:\n")
	fmt.Fprintf(out, "  Files checked: %d\n", checked)
	fmt.Fprintf(out, "  Total errors: %d\n", len(problems))

	if len(problems) > 0 {
		return fmt.Errorf("%d verification error(s)", len(problems))
	}
	return nil
}

// verifyBundle returns one message per inconsistency found and the number
// of manifest files checked. err is set only when the inputs cannot be
// loaded at all.
func verifyBundle(ctx context.Context, dir, carPath string, contents bool) ([]string, int, error) {
	m, err := manifest.Read(filepath.Join(dir, util.ManifestFileName))
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(carPath)
	if err != nil {
		return nil, 0, fmt.Errorf("open car (pack with --car to write one): %w", err)
	}
	defer f.Close()

	store := blockstore.New()
	roots, _, err := car.Load(f, store)
	if err != nil {
		return nil, 0, err
	}

	var problems []string
	if len(roots) != 1 || roots[0].String() != m.Root {
		problems = append(problems, fmt.Sprintf("car roots %v do not match manifest root %s", roots, m.Root))
		return problems, 0, nil
	}

	dag := blockstore.NewDAGService(store)
	checked := 0
	for _, rel := range m.Paths() {
		checked++
		nd, err := importer.Resolve(ctx, dag, roots[0], rel)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", rel, err))
			continue
		}
		if got := nd.Cid().String(); got != m.Files[rel] {
			problems = append(problems, fmt.Sprintf("%s: resolves to %s, manifest says %s", rel, got, m.Files[rel]))
			continue
		}
		if !contents {
			continue
		}

		stored, err := importer.ReadFile(ctx, dag, roots[0], rel)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: read from car: %v", rel, err))
			continue
		}
		onDisk, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: read from disk: %v", rel, err))
			continue
		}
		if rel == rewrite.IndexFileName {
			onDisk = bytes.Replace(onDisk, []byte(rewrite.MetaTag(m.Root)), nil, 1)
		}
		if !bytes.Equal(stored, onDisk) {
			problems = append(problems, fmt.Sprintf("%s: content differs from disk", rel))
		}
	}
	return problems, checked, nil
}
