package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Keys of the engine metadata mapping the pipeline relies on
const (
	InfoKeyID         = "id"
	InfoKeyUploadDate = "upload_date"
	InfoKeyIsLive     = "is_live"
	InfoKeyTitle      = "title"
)

// Item is one resolved media unit produced by the download engine
type Item struct {
	ID         string
	UploadDate string         // engine provided YYYYMMDD, empty if absent
	IsLive     bool           // live items are never finalized
	Info       map[string]any // raw engine metadata
}

// ItemFromInfo builds an Item from an engine metadata mapping
func ItemFromInfo(info map[string]any) Item {
	item := Item{Info: info}
	item.ID = stringValue(info[InfoKeyID])
	item.UploadDate = stringValue(info[InfoKeyUploadDate])
	if live, ok := info[InfoKeyIsLive].(bool); ok {
		item.IsLive = live
	}
	return item
}

// Title returns the item title if the engine reported one
func (it Item) Title() string {
	return stringValue(it.Info[InfoKeyTitle])
}

// HasID reports whether the engine supplied a usable id. The id itself is kept
// verbatim because the engine names its output directory from the raw value.
func (it Item) HasID() bool {
	return strings.TrimSpace(it.ID) != ""
}

// DirName returns the per-item directory name used in scratch and archive layouts
func (it Item) DirName() string {
	return fmt.Sprintf("%s_%s", it.UploadDate, it.ID)
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		// JSON numbers decode as float64; upload dates sometimes arrive unquoted
		return fmt.Sprintf("%.0f", val)
	default:
		return ""
	}
}
