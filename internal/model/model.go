package model

// GameEntry represents one parsed game record from an xmldb file.
// It is immutable after the index build; optional fields use the empty
// string for "absent".
type GameEntry struct {
	Platform    string `json:"platform"`
	Name        string `json:"name"`
	ArchiveName string `json:"archive_name,omitempty"`
	Region      string `json:"region,omitempty"`
	Languages   string `json:"languages,omitempty"`
	FilePath    string `json:"file_path"`
	GameIdx     int    `json:"game_idx"`
}

// Facets carries the deduplicated sorted value lists used to populate
// filter choices.
type Facets struct {
	Platforms []string `json:"platforms"`
	Regions   []string `json:"regions"`
	Languages []string `json:"languages"`
}
