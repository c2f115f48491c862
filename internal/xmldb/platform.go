package xmldb

import (
	"path/filepath"
	"strings"
)

// UnknownPlatform is used when no platform can be derived from a path.
const UnknownPlatform = "Unknown"

// InferPlatform derives the platform label from an xmldb file path. The
// convention is "<Platform> (<region/version tags>).xml"; everything before
// the first " (" in the filename stem is the platform.
func InferPlatform(path string) string {
	stem := filepath.Base(path)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return UnknownPlatform
	}
	if idx := strings.Index(stem, " ("); idx >= 0 {
		stem = stem[:idx]
	}
	if stem == "" {
		return UnknownPlatform
	}
	return stem
}
