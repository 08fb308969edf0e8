package platform

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeSource struct {
	items []PlaylistItem
	err   error
	gotID string
}

func (f *fakeSource) Items(_ context.Context, id string) ([]PlaylistItem, error) {
	f.gotID = id
	return f.items, f.err
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"playlist URL", "https://www.youtube.com/playlist?list=PL123", "PL123"},
		{"watch URL with list", "https://www.youtube.com/watch?v=abc&list=PL456&index=2", "PL456"},
		{"video URL", "https://www.youtube.com/watch?v=abc", ""},
		{"garbage", "://bad", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPlaylistID(tt.url); got != tt.expected {
				t.Errorf("ExtractPlaylistID(%q) = %q, expected %q", tt.url, got, tt.expected)
			}
			if IsPlaylistURL(tt.url) != (tt.expected != "") {
				t.Errorf("IsPlaylistURL(%q) mismatch", tt.url)
			}
		})
	}
}

func TestPlaylistLister_List(t *testing.T) {
	src := &fakeSource{items: []PlaylistItem{
		{VideoID: "v1", Title: "First"},
		{VideoID: "", Title: "Broken"},
		{VideoID: "v2", Title: "Second"},
	}}
	lister := NewPlaylistListerWithSource(src)

	id, entries, err := lister.List(context.Background(), "https://www.youtube.com/playlist?list=PLx")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if id != "PLx" || src.gotID != "PLx" {
		t.Errorf("expected playlist id PLx, got %q (source saw %q)", id, src.gotID)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].URL != "https://www.youtube.com/watch?v=v2" {
		t.Errorf("unexpected entry URL %s", entries[1].URL)
	}
}

func TestPlaylistLister_Errors(t *testing.T) {
	lister := NewPlaylistListerWithSource(&fakeSource{err: errors.New("offline")})
	lister.SetTimeout(time.Second)

	if _, _, err := lister.List(context.Background(), "https://www.youtube.com/watch?v=abc"); err == nil {
		t.Error("expected error for non-playlist URL")
	}
	if _, _, err := lister.List(context.Background(), "https://www.youtube.com/playlist?list=PL"); err == nil {
		t.Error("expected source error to propagate")
	}
}
