package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yanmxa/codo/internal/readtrack"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadFileRecordsTracker(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.txt", "hello\nworld\n")

	tracker := readtrack.NewTracker()
	rt := &ReadFile{Tracker: tracker}

	result := rt.Execute(context.Background(), map[string]any{"file_path": path}, dir)
	if !result.Success {
		t.Fatalf("read failed: %s", result.Error)
	}
	if !strings.Contains(result.Content, "hello") {
		t.Errorf("expected content, got %q", result.Content)
	}
	if !tracker.Contains(path) {
		t.Error("expected read to record the path")
	}
}

func TestReadFileRelativePath(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "rel.txt", "x\n")

	rt := &ReadFile{}
	result := rt.Execute(context.Background(), map[string]any{"file_path": "rel.txt"}, dir)
	if !result.Success {
		t.Fatalf("read failed: %s", result.Error)
	}
}

func TestReadFileMissing(t *testing.T) {
	rt := &ReadFile{}
	result := rt.Execute(context.Background(), map[string]any{"file_path": "/no/such/file"}, "/tmp")
	if result.Success {
		t.Fatal("expected failure for missing file")
	}
	if !strings.Contains(result.Error, "file not found") {
		t.Errorf("unexpected error: %s", result.Error)
	}
}

func TestCreateFile(t *testing.T) {
	dir := t.TempDir()
	ct := &CreateFile{}

	result := ct.Execute(context.Background(), map[string]any{
		"file_path": filepath.Join(dir, "sub", "new.txt"),
		"content":   "one\ntwo",
	}, dir)
	if !result.Success {
		t.Fatalf("create failed: %s", result.Error)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sub", "new.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "one\ntwo" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestEditFileGatedOnRead(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "f.txt", "alpha beta\n")

	tracker := readtrack.NewTracker()
	validator := readtrack.NewValidator()
	validator.SetTracker(tracker)
	et := &EditFile{Validator: validator}

	args := map[string]any{"file_path": path, "old_text": "beta", "new_text": "gamma"}
	result := et.Execute(context.Background(), args, dir)
	if result.Success {
		t.Fatal("expected failure before the file was read")
	}
	if !strings.Contains(result.Error, "File must be read before editing") {
		t.Errorf("unexpected error: %s", result.Error)
	}

	tracker.Record(path)
	result = et.Execute(context.Background(), args, dir)
	if !result.Success {
		t.Fatalf("edit failed after read: %s", result.Error)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "alpha gamma\n" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestEditFileAmbiguousOccurrence(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "f.txt", "x\nx\n")

	et := &EditFile{}
	result := et.Execute(context.Background(), map[string]any{
		"file_path": path, "old_text": "x", "new_text": "y",
	}, dir)
	if result.Success {
		t.Fatal("expected failure for ambiguous old_text")
	}

	result = et.Execute(context.Background(), map[string]any{
		"file_path": path, "old_text": "x", "new_text": "y", "replace_all": true,
	}, dir)
	if !result.Success {
		t.Fatalf("replace_all edit failed: %s", result.Error)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "y\ny\n" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestEditFileOldTextNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "f.txt", "alpha\n")

	et := &EditFile{}
	result := et.Execute(context.Background(), map[string]any{
		"file_path": path, "old_text": "missing", "new_text": "y",
	}, dir)
	if result.Success {
		t.Fatal("expected failure when old_text is absent")
	}
}

func TestDeleteFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "gone.txt", "x")

	dt := &DeleteFile{}
	result := dt.Execute(context.Background(), map[string]any{"file_path": path}, dir)
	if !result.Success {
		t.Fatalf("delete failed: %s", result.Error)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file removed")
	}
}

func TestDeleteFileRefusesDirectory(t *testing.T) {
	dir := t.TempDir()
	dt := &DeleteFile{}
	result := dt.Execute(context.Background(), map[string]any{"file_path": dir}, dir)
	if result.Success {
		t.Fatal("expected refusal to delete a directory")
	}
}

func TestListFilesGlob(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", "package a")
	writeTestFile(t, dir, "b.txt", "b")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(dir, "sub"), "c.go", "package c")

	lt := &ListFiles{}
	result := lt.Execute(context.Background(), map[string]any{"pattern": "**/*.go"}, dir)
	if !result.Success {
		t.Fatalf("list failed: %s", result.Error)
	}
	if !strings.Contains(result.Content, "a.go") || !strings.Contains(result.Content, "sub/c.go") {
		t.Errorf("expected recursive matches, got %q", result.Content)
	}
	if strings.Contains(result.Content, "b.txt") {
		t.Errorf("unexpected match: %q", result.Content)
	}
}

func TestSearchFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", "func Hello() {}\n")
	writeTestFile(t, dir, "b.go", "func World() {}\n")

	st := &SearchFiles{}
	result := st.Execute(context.Background(), map[string]any{"pattern": "hello", "include": ".go"}, dir)
	if !result.Success {
		t.Fatalf("search failed: %s", result.Error)
	}
	if !strings.Contains(result.Content, "a.go:1") {
		t.Errorf("expected match in a.go, got %q", result.Content)
	}
	if strings.Contains(result.Content, "b.go") {
		t.Errorf("unexpected match: %q", result.Content)
	}
}

func TestExecuteCommand(t *testing.T) {
	et := &ExecuteCommand{}
	result := et.Execute(context.Background(), map[string]any{"command": "echo hi"}, t.TempDir())
	if !result.Success {
		t.Fatalf("command failed: %s", result.Error)
	}
	if strings.TrimSpace(result.Content) != "hi" {
		t.Errorf("unexpected output: %q", result.Content)
	}
}

func TestExecuteCommandFailure(t *testing.T) {
	et := &ExecuteCommand{}
	result := et.Execute(context.Background(), map[string]any{"command": "exit 3"}, t.TempDir())
	if result.Success {
		t.Fatal("expected failure for non-zero exit")
	}
}

func TestRegistrySpecsAndExecute(t *testing.T) {
	r := Default(readtrack.NewTracker(), readtrack.NewValidator())

	specs := r.Specs()
	if len(specs) != 8 {
		t.Fatalf("expected 8 tool specs, got %d", len(specs))
	}
	for _, spec := range specs {
		if spec.Name == "" || spec.Parameters == nil {
			t.Errorf("incomplete spec: %+v", spec)
		}
	}

	result := r.Execute(context.Background(), "bogus_tool", nil, "/tmp")
	if result.Success {
		t.Fatal("expected failure for unknown tool")
	}
}
