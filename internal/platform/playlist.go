package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/yt-archiver/internal/model"
)

// Timeout constants
const (
	DefaultListTimeout = 60 * time.Second
)

// URL parameters
const (
	PlaylistQueryParam = "list"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// PlaylistItem is one entry reported by a playlist source
type PlaylistItem struct {
	VideoID string
	Title   string
}

// PlaylistSource fetches all entries of a playlist by id
type PlaylistSource interface {
	Items(ctx context.Context, playlistID string) ([]PlaylistItem, error)
}

// ytdlpSource lists playlists through the native ytdlp client
type ytdlpSource struct{}

func (ytdlpSource) Items(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]PlaylistItem, 0, len(items))
	for _, it := range items {
		out = append(out, PlaylistItem{VideoID: it.VideoID, Title: it.Title})
	}
	return out, nil
}

// PlaylistLister resolves playlist URLs into lightweight entries without downloading
type PlaylistLister struct {
	source  PlaylistSource
	timeout time.Duration
}

// NewPlaylistLister creates a lister backed by the native ytdlp client
func NewPlaylistLister() *PlaylistLister {
	return &PlaylistLister{source: ytdlpSource{}, timeout: DefaultListTimeout}
}

// NewPlaylistListerWithSource creates a lister backed by src
func NewPlaylistListerWithSource(src PlaylistSource) *PlaylistLister {
	return &PlaylistLister{source: src, timeout: DefaultListTimeout}
}

// SetTimeout sets the timeout for listing operations
func (p *PlaylistLister) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// List returns the playlist id and its entries
func (p *PlaylistLister) List(ctx context.Context, rawURL string) (string, []model.PlaylistEntry, error) {
	playlistID := ExtractPlaylistID(rawURL)
	if playlistID == "" {
		return "", nil, fmt.Errorf("invalid playlist URL: %s", rawURL)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	items, err := p.source.Items(ctx, playlistID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	entries := make([]model.PlaylistEntry, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		entries = append(entries, model.PlaylistEntry{
			ID:    it.VideoID,
			Title: it.Title,
			URL:   fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
		})
	}
	return playlistID, entries, nil
}

// IsPlaylistURL reports whether rawURL carries a playlist id
func IsPlaylistURL(rawURL string) bool {
	return ExtractPlaylistID(rawURL) != ""
}

// ExtractPlaylistID returns the value of the "list" query parameter, or ""
func ExtractPlaylistID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Query().Get(PlaylistQueryParam)
}
