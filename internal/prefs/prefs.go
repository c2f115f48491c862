package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName = "romdex"
	recentFile = "recent.json"
	maxRecent  = 3
	appDirPerm = 0o755
	recentPerm = 0o644
)

// RecentFilters records the last used filter values so the UI layer can
// offer them first. Missing or unparseable files fall back to an empty
// default, never an error.
type RecentFilters struct {
	Platforms []string `json:"platforms"`
	Regions   []string `json:"regions"`
	Languages []string `json:"languages"`
}

// Load reads the recent filters from the user config directory.
func Load() *RecentFilters {
	path, err := recentPath()
	if err != nil {
		return &RecentFilters{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &RecentFilters{}
	}
	var rf RecentFilters
	if err := json.Unmarshal(data, &rf); err != nil {
		return &RecentFilters{}
	}
	return &rf
}

// Save writes the recent filters back to the user config directory.
func (rf *RecentFilters) Save() error {
	path, err := recentPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), appDirPerm); err != nil {
		return fmt.Errorf("ensure prefs dir: %w", err)
	}
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(path, data, recentPerm); err != nil {
		return fmt.Errorf("write prefs %s: %w", path, err)
	}
	return nil
}

// Remember pushes the used filter values to the front of their lists.
func (rf *RecentFilters) Remember(platform, region, language string) {
	if platform != "" {
		rf.Platforms = AddRecent(rf.Platforms, platform)
	}
	if region != "" {
		rf.Regions = AddRecent(rf.Regions, region)
	}
	if language != "" {
		rf.Languages = AddRecent(rf.Languages, language)
	}
}

// AddRecent moves value to the front of list, keeping at most maxRecent
// values.
func AddRecent(list []string, value string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	if len(out) > maxRecent {
		out = out[:maxRecent]
	}
	return out
}

func recentPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appDirName, recentFile), nil
}
