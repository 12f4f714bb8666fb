package binary

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/lnd-binary/internal/target"
)

// CachePath returns <root>/lnd-binary/<version>/<binary name>.
func CachePath(root string, t target.Target) string {
	return filepath.Join(root, target.PackageName, t.Version, t.BinaryName())
}

// LocateCached returns the first cache entry for t that exists as a
// non-empty regular file, checking t.CacheRoots in order.
func LocateCached(t target.Target) (string, bool) {
	for _, root := range t.CacheRoots {
		path := CachePath(root, t)
		if fileExists(path) {
			return path, true
		}
	}
	return "", false
}

// PrepareCacheWrite returns the cache entry path under the first root whose
// version directory can be created and written. Roots that fail produce a
// CacheWrite warning and the next one is tried. An empty path means no root
// is usable.
func PrepareCacheWrite(t target.Target) (string, []Warning) {
	var warnings []Warning

	for _, root := range t.CacheRoots {
		path := CachePath(root, t)
		if err := probeWritable(filepath.Dir(path)); err != nil {
			warnings = append(warnings, Warning{
				Kind:    CacheWrite,
				Message: fmt.Sprintf("cache root %s is not writable: %v", root, err),
			})
			continue
		}
		return path, warnings
	}

	return "", warnings
}

func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	probe.Close()

	return os.Remove(name)
}
