package cmd

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewSeedCmd creates and returns the seed subcommand.
// It generates a small static site that exercises every part of a pack.
func NewSeedCmd() *cobra.Command {
	var (
		outputPath string
		pages      int
		large      bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a sample static site",
		Long: `Generate a static site shaped like a bundler's build output: an index.html
linking stylesheets, scripts and images by bare, ./-relative and /-rooted
paths, a number of extra pages under pages/, and optionally a binary asset
larger than one 256 KiB chunk.

Each build embeds a fresh UUID, so two seeded sites never share a root CID.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := seedSite(outputPath, pages, large)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d files in %s\n", n, outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().IntVarP(&pages, "pages", "p", 3, "Number of extra pages to generate")
	cmd.Flags().BoolVar(&large, "large", false, "Add a 600 KiB binary asset")

	cmd.MarkFlagRequired("output")

	return cmd
}

const seedIndex = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Seeded site %[1]s</title>
<link rel="stylesheet" href="css/site.css">
<link rel="icon" href="/img/logo.svg">
</head>
<body>
<img src="./img/logo.svg" alt="logo">
<nav>%[2]s</nav>
<script src="js/app.js"></script>
</body>
</html>
`

const seedPage = `<!doctype html>
<html>
<head>
<title>Page %[1]d</title>
<link rel="stylesheet" href='/css/site.css'>
</head>
<body>
<p>%[2]s</p>
<a href="/index.html">home</a>
</body>
</html>
`

// seedSite writes the sample site under dir and returns the file count.
func seedSite(dir string, pages int, large bool) (int, error) {
	if pages < 0 {
		return 0, fmt.Errorf("pages must not be negative, got %d", pages)
	}
	build := uuid.New().String()

	files := map[string][]byte{
		"css/site.css": []byte("body { font-family: sans-serif; }\n/* " + build + " */\n"),
		"js/app.js":    []byte("console.log(\"build " + build + "\");\n"),
		"img/logo.svg": []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="8" height="8"><rect width="8" height="8"/></svg>` + "\n"),
	}

	nav := ""
	for i := 1; i <= pages; i++ {
		rel := fmt.Sprintf("pages/page-%02d.html", i)
		files[rel] = []byte(fmt.Sprintf(seedPage, i, uuid.New().String()))
		nav += fmt.Sprintf(`<a href="%s">page %d</a>`, rel, i)
	}
	files["index.html"] = []byte(fmt.Sprintf(seedIndex, build, nav))

	if large {
		blob := make([]byte, 600*1024)
		if _, err := rand.Read(blob); err != nil {
			return 0, fmt.Errorf("generate binary asset: %w", err)
		}
		files["media/blob.bin"] = blob
	}

	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return 0, fmt.Errorf("create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			return 0, fmt.Errorf("write %s: %w", rel, err)
		}
	}
	return len(files), nil
}
