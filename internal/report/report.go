// Package report renders the pipeline's sole output channel: a success
// document on stdout or a structured error on stderr.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/ytget/yt-archiver/internal/logger"
	"github.com/ytget/yt-archiver/internal/model"
)

// ExitCodeFailure is the process exit status of every failed invocation
const ExitCodeFailure = 0xE7

// PrivateKeyPrefix marks engine-internal metadata keys
const PrivateKeyPrefix = "_"

// redundantKeys are format selection internals and duplicate subtitle listings
var redundantKeys = []string{
	"formats",
	"requested_formats",
	"format",
	"format_id",
	"requested_subtitles",
}

// ErrorPayload is the failure document
type ErrorPayload struct {
	Error  string       `json:"error"`
	Reason model.Reason `json:"reason"`
}

// StripInfo returns a copy of info without redundant and private keys
func StripInfo(info map[string]any) map[string]any {
	out := make(map[string]any, len(info))
	for k, v := range info {
		if strings.HasPrefix(k, PrivateKeyPrefix) {
			continue
		}
		out[k] = v
	}
	for _, k := range redundantKeys {
		delete(out, k)
	}
	return out
}

// WriteSuccess writes the ordered item records as indented JSON
func WriteSuccess(w io.Writer, result *model.PipelineResult) error {
	items := []model.ItemResult{}
	if result != nil && result.Items != nil {
		items = append(items, result.Items...)
	}
	for i := range items {
		if items[i].Info != nil {
			items[i].Info = sanitize(items[i].Info).(map[string]any)
		}
	}
	return WriteJSON(w, items)
}

// WriteError writes the failure document for err
func WriteError(w io.Writer, err error) error {
	return WriteJSON(w, NewErrorPayload(err))
}

// NewErrorPayload converts err to its failure document
func NewErrorPayload(err error) ErrorPayload {
	if e, ok := model.AsError(err); ok {
		return ErrorPayload{Error: e.Error(), Reason: e.Reason}
	}
	return ErrorPayload{Error: describe(err), Reason: model.ReasonUnknown}
}

// Fail reports err once: it logs it (with a stack for unclassified errors),
// writes the failure document to w and returns the exit code.
func Fail(w io.Writer, log logger.Logger, err error) int {
	if log == nil {
		log = logger.NewNop()
	}
	payload := NewErrorPayload(err)
	if _, known := model.AsError(err); known {
		log.Error("pipeline failed",
			logger.String("reason", payload.Reason.String()),
			logger.Bool("retryable", payload.Reason.IsRetryable()),
			logger.Error(err))
	} else {
		log.Error("unexpected error", logger.Error(err), logger.Stack("stacktrace"))
	}

	if werr := WriteJSON(w, payload); werr != nil {
		log.Error("could not write error payload", logger.Error(werr))
	}
	return ExitCodeFailure
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*") + ": " + err.Error()
}

// WriteJSON writes v as indented JSON without HTML escaping
func WriteJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// sanitize replaces values encoding/json cannot represent with nil
func sanitize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, json.Number:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		return sanitize(float64(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = sanitize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitize(item)
		}
		return out
	}

	if _, err := json.Marshal(v); err != nil {
		return nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return nil
	}
	return v
}
