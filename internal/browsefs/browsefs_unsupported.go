//go:build !linux
// +build !linux

package browsefs

import (
	"fmt"

	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mediacatalog"
)

// Server is the mounted filesystem handle.
type Server interface {
	Unmount() error
}

// Mount is unavailable on non-Linux builds because browsefs depends on go-fuse.
func Mount(mountPoint string, catalog *mediacatalog.Catalog, cache *mapcache.Cache) (Server, error) {
	return nil, fmt.Errorf("browsefs mount is only supported on linux builds")
}
