// Package readtrack records which file paths were read during a session and
// gates edit operations on prior reads. Paths are compared in canonical form
// so "/a/../a/f.txt" and "/a/f.txt" refer to the same entry.
package readtrack

import (
	"path/filepath"
	"sync"
)

// Canonical normalizes a path to an absolute, symlink/dot-resolved form.
// Symlink resolution is best-effort: a path that does not exist yet is still
// cleaned and absolutized.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return filepath.Clean(abs)
}

// Tracker is the session-scoped set of canonicalized read paths.
type Tracker struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{paths: make(map[string]struct{})}
}

// Record marks a path as read.
func (t *Tracker) Record(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths[Canonical(path)] = struct{}{}
}

// Contains reports whether the canonical form of path has been read.
func (t *Tracker) Contains(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.paths[Canonical(path)]
	return ok
}

// Validator gates edits on prior reads. With no tracker installed every
// check passes permissively.
type Validator struct {
	mu      sync.Mutex
	tracker *Tracker
}

// NewValidator creates a validator with no tracker installed.
func NewValidator() *Validator {
	return &Validator{}
}

// SetTracker installs the shared path set, or removes it when nil.
func (v *Validator) SetTracker(t *Tracker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tracker = t
}

// Validate reports whether path may be edited: true when no tracker is
// installed or when the canonical path is a member of the tracker set.
func (v *Validator) Validate(path string) bool {
	v.mu.Lock()
	t := v.tracker
	v.mu.Unlock()

	if t == nil {
		return true
	}
	return t.Contains(path)
}

// ViolationMessage describes a failed validation. The literal input path is
// echoed back, not its canonical form.
func (v *Validator) ViolationMessage(path string) string {
	return "File must be read before editing. Use read_file tool first: " + path
}
