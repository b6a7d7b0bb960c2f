package capture

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStore_Save(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name, err := store.Save("site_photo", ".png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(name, "site_photo_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("name = %q", name)
	}
	if strings.ContainsAny(name, "/\\") {
		t.Errorf("name is not a relative filename: %q", name)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("content = %q", data)
	}

	// Same bytes, same name: content addressing makes re-saves idempotent.
	again, err := store.Save("site_photo", ".png", []byte("png-bytes"))
	if err != nil || again != name {
		t.Errorf("re-save = %q, %v", again, err)
	}
}

func TestStore_RejectsEmpty(t *testing.T) {
	// WHY: A zero-byte file would count as a resolved artifact while
	// carrying nothing; the store refuses rather than lying.
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Save("site_photo", ".png", nil); !errors.Is(err, ErrEmptyArtifact) {
		t.Errorf("error = %v, want ErrEmptyArtifact", err)
	}
}

func TestStore_SanitizesKeys(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, err := store.Save("../weird key!", ".html", []byte("<p>x</p>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := strings.TrimSuffix(name, ".html")
	if strings.ContainsAny(base, "/\\! .") {
		t.Errorf("name not sanitized: %q", name)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), name)); err != nil {
		t.Errorf("file missing: %v", err)
	}
}

func TestNewStore_RequiresDir(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
