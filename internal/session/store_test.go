package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yanmxa/codo/internal/provider"
)

func userSession(id, cwd, text string, age time.Duration) *Session {
	return &Session{
		Metadata: Metadata{
			ID:        id,
			Cwd:       cwd,
			CreatedAt: time.Now().Add(-age),
		},
		Messages: []provider.ChatMessage{provider.UserChat(text)},
	}
}

func TestSaveAssignsIDAndTitle(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	sess := &Session{Messages: []provider.ChatMessage{provider.UserChat("fix the login bug")}}
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	if sess.Metadata.ID == "" {
		t.Error("expected an assigned ID")
	}
	if sess.Metadata.Title != "fix the login bug" {
		t.Errorf("title = %q", sess.Metadata.Title)
	}
	if sess.Metadata.MessageCount != 1 {
		t.Errorf("messageCount = %d", sess.Metadata.MessageCount)
	}

	loaded, err := store.Load(sess.Metadata.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Messages[0].Content != "fix the login bug" {
		t.Errorf("roundtrip content = %q", loaded.Messages[0].Content)
	}
}

func TestResaveUpdatesInPlace(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreAt(dir)

	sess := &Session{Messages: []provider.ChatMessage{provider.UserChat("first question")}}
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}
	id := sess.Metadata.ID

	// Continuing a session appends messages and saves under the same ID.
	loaded, err := store.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	loaded.Messages = append(loaded.Messages, provider.UserChat("second question"))
	if err := store.Save(loaded); err != nil {
		t.Fatal(err)
	}

	if loaded.Metadata.ID != id {
		t.Errorf("ID changed on resave: %q -> %q", id, loaded.Metadata.ID)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("session files = %d, resave must not create a new one", len(entries))
	}
	again, err := store.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if again.Metadata.MessageCount != 2 || len(again.Messages) != 2 {
		t.Errorf("resaved session = %d messages (count %d)", len(again.Messages), again.Metadata.MessageCount)
	}
}

func TestLatestByCwd(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	for _, s := range []*Session{
		userSession("sess-a", "/projects/alpha", "first alpha", 0),
		userSession("sess-b", "/projects/beta", "beta", 0),
		userSession("sess-a2", "/projects/alpha", "second alpha", 0),
	} {
		if err := store.Save(s); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond) // distinct UpdatedAt
	}

	got, err := store.LatestByCwd("/projects/alpha")
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.ID != "sess-a2" {
		t.Errorf("latest alpha = %s", got.Metadata.ID)
	}

	if _, err := store.LatestByCwd("/projects/gamma"); err == nil {
		t.Error("expected error for unknown cwd")
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.Metadata.ID != "sess-a2" {
		t.Errorf("global latest = %s", latest.Metadata.ID)
	}
}

func TestCleanupRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreAt(dir)

	old := userSession("old-sess", "/p", "old", 0)
	if err := store.Save(old); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(userSession("new-sess", "/p", "new", 0)); err != nil {
		t.Fatal(err)
	}

	// Backdate the old session past the retention window.
	old.Metadata.UpdatedAt = time.Now().AddDate(0, 0, -(RetentionDays + 1))
	data, _ := json.MarshalIndent(old, "", "  ")
	if err := os.WriteFile(filepath.Join(dir, "old-sess.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := store.Cleanup(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "old-sess.json")); !os.IsNotExist(err) {
		t.Error("expired session should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "new-sess.json")); err != nil {
		t.Error("recent session should survive cleanup")
	}
}

func TestListSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreAt(dir)
	if err := store.Save(userSession("ok", "/p", "hello", 0)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].ID != "ok" {
		t.Errorf("metas = %+v", metas)
	}
}

func TestGenerateTitle(t *testing.T) {
	long := strings.Repeat("word ", 30)
	title := GenerateTitle([]provider.ChatMessage{provider.UserChat(long)})
	if len([]rune(title)) > MaxTitleLength+3 {
		t.Errorf("title too long: %q", title)
	}
	if !strings.HasSuffix(title, "...") {
		t.Errorf("truncated title should end with ellipsis: %q", title)
	}

	if got := GenerateTitle(nil); got != "Untitled Session" {
		t.Errorf("empty session title = %q", got)
	}
}
