package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/model"
)

func TestStripInfo(t *testing.T) {
	info := map[string]any{
		"id":                  "abc",
		"title":               "t",
		"formats":             []any{},
		"requested_formats":   []any{},
		"format":              "251 - audio only",
		"format_id":           "251",
		"requested_subtitles": map[string]any{},
		"_type":               "video",
		"_version":            map[string]any{},
		"subtitles":           map[string]any{"en": []any{}},
	}

	out := StripInfo(info)
	assert.Equal(t, map[string]any{
		"id":        "abc",
		"title":     "t",
		"subtitles": map[string]any{"en": []any{}},
	}, out)
	assert.Contains(t, info, "formats", "input is not mutated")
}

func TestWriteSuccess(t *testing.T) {
	result := &model.PipelineResult{Items: []model.ItemResult{{
		ID: "id1",
		ArchiveRecord: model.ArchiveRecord{
			Path:   "2024/01/20240101_id1.zip",
			Size:   42,
			Digest: model.NewSHA256Digest("ab"),
		},
		UploadDate: "20240101",
		Info:       map[string]any{"title": "<b>&</b>", "bad": math.NaN(), "fn": func() {}},
	}}}

	var buf bytes.Buffer
	require.NoError(t, WriteSuccess(&buf, result))

	out := buf.String()
	assert.Contains(t, out, "\n  {\n    \"id\": \"id1\"")
	assert.Contains(t, out, `"title": "<b>&</b>"`)
	assert.Contains(t, out, `"digest": "sha256:ab"`)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	info := decoded[0]["info"].(map[string]any)
	assert.Nil(t, info["bad"])
	assert.Nil(t, info["fn"])
	assert.NotContains(t, decoded[0], "files")
}

func TestWriteSuccess_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSuccess(&buf, &model.PipelineResult{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		msg    string
		reason model.Reason
	}{
		{"network", model.Errorf(model.ReasonNetwork, "connection reset"), "connection reset", model.ReasonNetwork},
		{"system", model.NewError(model.ReasonSystem, "disk full", errors.New("x")), "disk full", model.ReasonSystem},
		{"unclassified", errors.New("boom"), "errors.errorString: boom", model.ReasonUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteError(&buf, tt.err))

			var payload ErrorPayload
			require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
			assert.Equal(t, tt.msg, payload.Error)
			assert.Equal(t, tt.reason, payload.Reason)
		})
	}
}

func TestFail(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.Wrap(zap.New(core))

	var buf bytes.Buffer
	code := Fail(&buf, log, errors.New("nil map write"))
	assert.Equal(t, 231, code)
	assert.True(t, strings.Contains(buf.String(), `"reason": "unknown"`))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "stacktrace")

	buf.Reset()
	Fail(&buf, log, model.Errorf(model.ReasonNetwork, "timed out"))
	assert.NotContains(t, logs.All()[1].ContextMap(), "stacktrace")
}
