//go:build linux
// +build linux

// Package browsefs mounts a flat, read-only FUSE view of the media catalog
// (C17): one file per catalog entry, named by its display name, serving
// bytes straight out of the shared mapped-file cache. Modeled on the
// teacher's internal/vodfs (fs.Inode-embedded node types, NodeLookuper/
// NodeReaddirer/NodeReader, FNV-hashed stable inode numbers), simplified
// because a VOD catalog entry is already a real local file with a known
// size — there is no materializer step to orchestrate.
package browsefs

import (
	"context"
	"hash/fnv"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mediacatalog"
	"github.com/snapetech/rtspvod/internal/safename"
)

func inoFromString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Root is the FUSE root: one entry per catalog entry, keyed by its
// catalog display name.
type Root struct {
	fs.Inode
	Catalog *mediacatalog.Catalog
	Cache   *mapcache.Cache
}

var _ fs.NodeReaddirer = (*Root)(nil)
var _ fs.NodeLookuper = (*Root)(nil)

func (r *Root) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries := r.Catalog.All()
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.TrackCompanion {
			continue // second-track MKV entries share a file with their primary entry
		}
		out = append(out, fuse.DirEntry{
			Name: safename.Sanitize(e.DisplayName),
			Ino:  inoFromString("entry:" + e.StreamPath),
			Mode: fuse.S_IFREG | 0444,
		})
	}
	return fs.NewListDirStream(out), 0
}

func (r *Root) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	for _, e := range r.Catalog.All() {
		if e.TrackCompanion || safename.Sanitize(e.DisplayName) != name {
			continue
		}
		child := &FileNode{Entry: e, Cache: r.Cache}
		ch := r.NewInode(ctx, child, fs.StableAttr{
			Mode: fuse.S_IFREG,
			Ino:  inoFromString("entry:" + e.StreamPath),
		})
		out.Mode = fuse.S_IFREG | 0444
		out.SetEntryTimeout(1 * time.Second)
		out.SetAttrTimeout(1 * time.Second)
		return ch, 0
	}
	return nil, syscall.ENOENT
}

// FileNode is a single catalog entry's underlying media file, served
// read-only out of the mapped-file cache.
type FileNode struct {
	fs.Inode
	Entry mediacatalog.Entry
	Cache *mapcache.Cache
}

var _ fs.NodeGetattrer = (*FileNode)(nil)
var _ fs.NodeOpener = (*FileNode)(nil)
var _ fs.NodeReader = (*FileNode)(nil)

func (n *FileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	mf, err := n.Cache.Get(n.Entry.FilePath)
	if err != nil {
		return syscall.EIO
	}
	defer n.Cache.Release(n.Entry.FilePath)
	out.Size = uint64(mf.Len())
	out.Mode = fuse.S_IFREG | 0444
	return 0
}

func (n *FileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_DIRECT_IO, 0
}

func (n *FileNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	mf, err := n.Cache.Get(n.Entry.FilePath)
	if err != nil {
		return nil, syscall.EIO
	}
	defer n.Cache.Release(n.Entry.FilePath)

	data := mf.Bytes()
	if off >= int64(len(data)) {
		return fuse.ReadResultData(dest[:0]), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	n2 := copy(dest, data[off:end])
	return fuse.ReadResultData(dest[:n2]), 0
}

// Server is the mounted filesystem handle; satisfied by *fuse.Server.
type Server interface {
	Unmount() error
}

// Mount mounts the catalog browse filesystem at mountPoint. The caller
// must call Unmount on the returned Server to clean up.
func Mount(mountPoint string, catalog *mediacatalog.Catalog, cache *mapcache.Cache) (Server, error) {
	root := &Root{Catalog: catalog, Cache: cache}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{Debug: false},
	}
	return fs.Mount(mountPoint, root, opts)
}
