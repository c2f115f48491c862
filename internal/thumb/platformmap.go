package thumb

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/xxxsen/romdex/internal/xmldb"
)

// The libretro-thumbnails repositories replace separators in platform names.
// " - " must be handled before the single space.
var platformNameReplacer = strings.NewReplacer(
	" - ", "_-_",
	" ", "_",
	"/", "_",
	":", "_",
)

// BuildPlatformMap scans the xmldb directory and maps each inferred platform
// label to its libretro-thumbnails repository name. Files mapping to an
// already present label do not overwrite it.
func BuildPlatformMap(xmldbDir string) (map[string]string, error) {
	m := make(map[string]string)
	err := filepath.WalkDir(xmldbDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != ".xml" {
			return nil
		}
		platform := xmldb.InferPlatform(path)
		if _, ok := m[platform]; !ok {
			m[platform] = platformNameReplacer.Replace(platform)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan xmldb for platforms %s: %w", xmldbDir, err)
	}
	return m, nil
}
