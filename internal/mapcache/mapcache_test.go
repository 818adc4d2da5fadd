package mapcache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "media.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetCoalescesByPath(t *testing.T) {
	path := writeTempFile(t, []byte("hello world"))
	c := New()

	mf1, err := c.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	mf2, err := c.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	if mf1 != mf2 {
		t.Fatalf("expected same MappedFile instance, got different pointers")
	}
	if c.ActiveCount() != 1 {
		t.Fatalf("ActiveCount = %d, want 1", c.ActiveCount())
	}
	if string(mf1.Bytes()) != "hello world" {
		t.Fatalf("unexpected bytes: %q", mf1.Bytes())
	}

	c.Release(path)
	if c.ActiveCount() != 1 {
		t.Fatalf("ActiveCount after one release = %d, want 1 (still one outstanding ref)", c.ActiveCount())
	}
	c.Release(path)
	if c.ActiveCount() != 0 {
		t.Fatalf("ActiveCount after both releases = %d, want 0", c.ActiveCount())
	}
}

func TestGetAfterFullReleaseRemaps(t *testing.T) {
	path := writeTempFile(t, []byte("abc"))
	c := New()

	mf1, _ := c.Get(path)
	c.Release(path)

	mf2, err := c.Get(path)
	if err != nil {
		t.Fatal(err)
	}
	if mf1 == mf2 {
		t.Fatalf("expected a fresh mapping after full release, got the same instance")
	}
	c.Release(path)
}

func TestReleaseUnknownPathIsNoop(t *testing.T) {
	c := New()
	c.Release("/does/not/exist")
	if c.ActiveCount() != 0 {
		t.Fatalf("ActiveCount = %d, want 0", c.ActiveCount())
	}
}

func TestClearDropsAllEntries(t *testing.T) {
	p1 := writeTempFile(t, []byte("one"))
	p2 := writeTempFile(t, []byte("two"))
	c := New()
	if _, err := c.Get(p1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(p2); err != nil {
		t.Fatal(err)
	}
	if c.ActiveCount() != 2 {
		t.Fatalf("ActiveCount = %d, want 2", c.ActiveCount())
	}
	c.Clear()
	if c.ActiveCount() != 0 {
		t.Fatalf("ActiveCount after Clear = %d, want 0", c.ActiveCount())
	}
}

func TestGetMissingFile(t *testing.T) {
	c := New()
	if _, err := c.Get("/nonexistent/path/to/file"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
