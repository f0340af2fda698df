package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestFile_ReadReturnsCurrentContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	first := `{"food": ["groceries", "dining"]}`
	if err := os.WriteFile(path, []byte(first), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	f := New(path)
	got, err := f.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != first {
		t.Errorf("Read() = %q, want %q", got, first)
	}

	// Not valid JSON on purpose: the document is passed through untouched.
	second := "{\"travel\": [\"train\"],\n}"
	if err := os.WriteFile(path, []byte(second), 0644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}
	got, err = f.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != second {
		t.Errorf("Read() after edit = %q, want %q", got, second)
	}
}

func TestFile_ReadMissing(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "missing.json"))
	_, err := f.Read(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Read() error = %v, want fs.ErrNotExist", err)
	}
}
