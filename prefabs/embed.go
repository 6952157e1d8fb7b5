package prefabs

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed *.yaml
var PrefabsFS embed.FS

// Dir is where on-disk overrides are looked up. A file there wins over the
// embedded copy so tuning can be edited while the game runs.
var Dir = "prefabs"

// Source tells where a tuning document was read from.
type Source uint8

const (
	SourceEmbedded Source = iota
	SourceDisk
)

func (s Source) String() string {
	if s == SourceDisk {
		return "disk"
	}
	return "embedded"
}

// Load returns the named document, preferring the disk override. A disk file
// that exists but cannot be read is an error rather than a silent fallback.
func Load(name string) ([]byte, Source, error) {
	clean := cleanPrefabPath(name)
	data, err := os.ReadFile(diskPrefabPath(clean))
	switch {
	case err == nil:
		return data, SourceDisk, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, SourceDisk, err
	}
	data, err = PrefabsFS.ReadFile(clean)
	return data, SourceEmbedded, err
}

// ModTime is the disk override's modification time; ok is false when there
// is no override.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPrefabPath(cleanPrefabPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func cleanPrefabPath(path string) string {
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		return after
	}
	return s
}

func diskPrefabPath(clean string) string {
	return filepath.Join(Dir, filepath.FromSlash(clean))
}
