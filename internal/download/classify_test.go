package download

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/yt-archiver/internal/model"
)

func TestParseRemoteCause(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
		errno  int
	}{
		{
			name: "transport error",
			stderr: "WARNING: retrying\nERROR: [youtube] abc: Unable to download API page: " +
				"<urlopen error [Errno -3] Temporary failure in name resolution> " +
				"(caused by TransportError('<urlopen error [Errno -3] Temporary failure in name resolution>'))",
			want:  "TransportError",
			errno: -3,
		},
		{
			name:   "http error",
			stderr: "ERROR: unable to download video data: HTTP Error 503: Service Unavailable",
			want:   "HTTPError",
		},
		{
			name:   "disk full",
			stderr: "ERROR: unable to write data: [Errno 28] No space left on device",
			want:   "OSError",
			errno:  28,
		},
		{
			name:   "read timeout hint",
			stderr: "ERROR: The read operation timed out",
			want:   "URLError",
		},
		{
			name:   "extractor failure",
			stderr: "ERROR: [youtube] abc: Video unavailable",
		},
		{
			name:   "no error line",
			stderr: "WARNING: something",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := ParseRemoteCause(tt.stderr)
			if tt.want == "" {
				assert.Nil(t, cause)
				return
			}
			require.NotNil(t, cause)
			assert.Equal(t, tt.want, cause.Name)
			assert.Equal(t, tt.errno, cause.Errno)
		})
	}
}

func TestClassify(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "example.com"}

	tests := []struct {
		name   string
		err    error
		split  bool
		reason model.Reason
		raw    bool // returned unchanged
	}{
		{"remote transport", &EngineError{Cause: &RemoteCause{Name: "URLError"}}, true, model.ReasonNetwork, false},
		{"remote transport merged", &EngineError{Cause: &RemoteCause{Name: "URLError"}}, false, model.ReasonSystem, false},
		{"remote reset errno", &EngineError{Cause: &RemoteCause{Name: "OSError", Errno: 104}}, true, model.ReasonNetwork, false},
		{"remote disk full", &EngineError{Cause: &RemoteCause{Name: "OSError", Errno: 28}}, true, model.ReasonSystem, false},
		{"remote extractor", &EngineError{Cause: &RemoteCause{Name: "ExtractorError"}}, true, "", true},
		{"go net error", &EngineError{Cause: dnsErr}, true, model.ReasonNetwork, false},
		{"go conn reset", &EngineError{Cause: &os.SyscallError{Syscall: "read", Err: syscall.ECONNRESET}}, true, model.ReasonNetwork, false},
		{"go path error", &EngineError{Cause: &os.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}}, true, model.ReasonSystem, false},
		{"engine no cause", &EngineError{Message: "boom"}, true, "", true},
		{"not an engine error", errors.New("bug"), true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, tt.split)
			if tt.raw {
				assert.Same(t, tt.err, got)
				_, classified := model.AsError(got)
				assert.False(t, classified)
				return
			}
			classified, ok := model.AsError(got)
			require.True(t, ok, "expected classified error, got %T", got)
			assert.Equal(t, tt.reason, classified.Reason)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_WrappedEngineError(t *testing.T) {
	err := fmt.Errorf("batch: %w", &EngineError{Message: "unable to download", Cause: &RemoteCause{Name: "HTTPError"}})
	got := Classify(err, true)

	assert.Equal(t, model.ReasonNetwork, model.ReasonOf(got))
	assert.Equal(t, "unable to download", got.Error())
}

func TestLastErrorLine(t *testing.T) {
	out := "ERROR: first\n[info] noise\nERROR:  second  \n"
	assert.Equal(t, "second", LastErrorLine(out))
	assert.Empty(t, LastErrorLine("all good"))
}
