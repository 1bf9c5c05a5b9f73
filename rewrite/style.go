package rewrite

import (
	"fmt"
	"strings"
)

// Style selects how rewritten asset references address content.
type Style string

const (
	// StylePath rewrites to /ipfs/<root>/<relPath>.
	StylePath Style = "path"
	// StyleScheme rewrites to ipfs://<root>/<relPath>.
	StyleScheme Style = "scheme"
	// StyleSchemeFile rewrites to ipfs://<fileCid>.
	StyleSchemeFile Style = "scheme-file"
)

// DefaultStyle is used when no style is configured.
const DefaultStyle = StyleSchemeFile

// Styles lists every accepted style.
var Styles = []Style{StylePath, StyleScheme, StyleSchemeFile}

// ParseStyle accepts a style name; the empty string selects DefaultStyle.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return DefaultStyle, nil
	}
	for _, st := range Styles {
		if string(st) == s {
			return st, nil
		}
	}
	names := make([]string, len(Styles))
	for i, st := range Styles {
		names[i] = string(st)
	}
	return "", fmt.Errorf("unknown url style %q (want one of %s)", s, strings.Join(names, ", "))
}

// URL returns the replacement for relPath.
func (s Style) URL(root, relPath, fileCid string) string {
	switch s {
	case StylePath:
		return "/ipfs/" + root + "/" + relPath
	case StyleScheme:
		return "ipfs://" + root + "/" + relPath
	default:
		return "ipfs://" + fileCid
	}
}

// BasePrefix returns the <base href> value used when nothing was rewritten.
// The scheme-file style has no directory to anchor to and returns "".
func (s Style) BasePrefix(root string) string {
	switch s {
	case StylePath:
		return "/ipfs/" + root + "/"
	case StyleScheme:
		return "ipfs://" + root + "/"
	default:
		return ""
	}
}
