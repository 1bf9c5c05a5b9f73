package version

import (
	"strings"
	"testing"
)

func TestGetInfo_Overrides(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version = "v1.2.3"
	Commit = "0123456789abcdef"
	Date = "2026-01-01T00:00:00Z"

	info := GetInfo()
	if info.Version != "v1.2.3" || info.Commit != Commit || info.Date != Date {
		t.Errorf("GetInfo() = %+v", info)
	}
	if info.Package != Package {
		t.Errorf("Package = %q, want %q", info.Package, Package)
	}
	if got, want := GetFullVersion(), "v1.2.3 (0123456, built 2026-01-01T00:00:00Z)"; got != want {
		t.Errorf("GetFullVersion() = %q, want %q", got, want)
	}
}

func TestGetFullVersion_NoCommit(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version = "v0.1.0"
	Commit = "abc"

	if got := GetFullVersion(); !strings.HasPrefix(got, "v0.1.0") || strings.Contains(got, "(") {
		t.Errorf("GetFullVersion() = %q, want bare version", got)
	}
}
