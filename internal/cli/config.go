package cli

import (
	"github.com/xxxsen/romdex/internal/config"
)

var defaultKeyList = []string{
	"./config.json",
	"/etc/romdex.json",
}

// LoadConfig loads the explicitly requested config file, or falls back to the
// default search paths. A missing explicit file is an error; a missing default
// path is not.
func LoadConfig(explicit string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	return config.LoadFirst(defaultKeyList...)
}
