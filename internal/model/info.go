package model

// PlaylistEntry is a lightweight listing entry returned by the info command
type PlaylistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// InfoResult is the lightweight metadata document returned without downloading
type InfoResult struct {
	URL      string          `json:"url"`
	Info     map[string]any  `json:"info,omitempty"`
	Playlist string          `json:"playlist_id,omitempty"`
	Entries  []PlaylistEntry `json:"entries,omitempty"`
}
