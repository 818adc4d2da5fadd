//go:build linux
// +build linux

package browsefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mediacatalog"
)

func TestFileNodeReadReturnsRequestedRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	content := []byte("0123456789")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	cache := mapcache.New()
	n := &FileNode{Entry: mediacatalog.Entry{FilePath: path}, Cache: cache}

	dest := make([]byte, 4)
	res, errno := n.Read(context.Background(), nil, dest, 2)
	if errno != 0 {
		t.Fatalf("unexpected errno %v", errno)
	}
	buf := make([]byte, 4)
	nRead, status := res.Bytes(buf)
	if status != 0 {
		t.Fatalf("unexpected fuse status %v", status)
	}
	if string(nRead) != "2345" {
		t.Fatalf("expected \"2345\", got %q", string(nRead))
	}
}
