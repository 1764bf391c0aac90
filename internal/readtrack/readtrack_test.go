package readtrack

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePermissiveWithoutTracker(t *testing.T) {
	v := NewValidator()
	if !v.Validate("/anything/at/all.txt") {
		t.Error("expected permissive pass with no tracker installed")
	}
}

func TestValidateReflectsMembership(t *testing.T) {
	tr := NewTracker()
	tr.Record("/a/f.txt")

	v := NewValidator()
	v.SetTracker(tr)

	if !v.Validate("/a/f.txt") {
		t.Error("expected recorded path to validate")
	}
	if v.Validate("/a/other.txt") {
		t.Error("expected unrecorded path to fail")
	}
}

func TestValidateCanonicalEquivalence(t *testing.T) {
	tr := NewTracker()
	tr.Record("/a/f.txt")

	v := NewValidator()
	v.SetTracker(tr)

	if !v.Validate("/a/../a/f.txt") {
		t.Error("expected dot-dot path to validate identically")
	}
	if !v.Validate("/a/./f.txt") {
		t.Error("expected dot path to validate identically")
	}
}

func TestRecordCanonicalizes(t *testing.T) {
	tr := NewTracker()
	tr.Record("/a/b/../f.txt")

	if !tr.Contains("/a/f.txt") {
		t.Error("expected record to store canonical form")
	}
}

func TestCanonicalResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tr := NewTracker()
	tr.Record(link)
	if !tr.Contains(target) {
		t.Error("expected symlink and target to canonicalize identically")
	}
}

func TestSetTrackerNilRemoves(t *testing.T) {
	tr := NewTracker()
	v := NewValidator()
	v.SetTracker(tr)

	if v.Validate("/never/read.txt") {
		t.Error("expected failure while tracker installed")
	}

	v.SetTracker(nil)
	if !v.Validate("/never/read.txt") {
		t.Error("expected permissive pass after tracker removed")
	}
}

func TestViolationMessageEchoesLiteralPath(t *testing.T) {
	v := NewValidator()
	got := v.ViolationMessage("/a/../a/f.txt")
	want := "File must be read before editing. Use read_file tool first: /a/../a/f.txt"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
