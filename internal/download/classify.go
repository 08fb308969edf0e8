package download

import (
	"errors"
	"net"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/ytget/yt-archiver/internal/model"
)

// EngineError is a download-level failure raised by the engine
type EngineError struct {
	Message  string
	ExitCode int
	Cause    error
}

func (e *EngineError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "download failed"
}

func (e *EngineError) Unwrap() error { return e.Cause }

// RemoteCause is the underlying exception the engine process reported
type RemoteCause struct {
	Name   string
	Errno  int // 0 when not reported
	Detail string
}

func (c *RemoteCause) Error() string {
	if c.Detail == "" {
		return c.Name
	}
	return c.Name + ": " + c.Detail
}

type causeFamily int

const (
	familyUnrecognized causeFamily = iota
	familyNetwork
	familySystem
)

// exception names reported by yt-dlp as "(caused by <Name>(...))"
var (
	networkExceptions = map[string]bool{
		"URLError":               true,
		"HTTPError":              true,
		"TransportError":         true,
		"HTTPException":          true,
		"RemoteDisconnected":     true,
		"IncompleteRead":         true,
		"BadStatusLine":          true,
		"ConnectionError":        true,
		"ConnectionResetError":   true,
		"ConnectionRefusedError": true,
		"ConnectionAbortedError": true,
		"BrokenPipeError":        true,
		"TimeoutError":           true,
		"timeout":                true,
		"gaierror":               true,
		"SSLError":               true,
		"ProxyError":             true,
	}
	systemExceptions = map[string]bool{
		"OSError":           true,
		"IOError":           true,
		"PermissionError":   true,
		"FileNotFoundError": true,
		"IsADirectoryError": true,
		"BlockingIOError":   true,
	}
	// errno values of transport faults, Linux numbering; negative values are resolver errors
	networkErrnos = map[int]bool{
		-2: true, -3: true, -5: true,
		32:  true, // EPIPE
		101: true, // ENETUNREACH
		103: true, // ECONNABORTED
		104: true, // ECONNRESET
		110: true, // ETIMEDOUT
		111: true, // ECONNREFUSED
		113: true, // EHOSTUNREACH
	}
	networkSyscallErrnos = []syscall.Errno{
		syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED, syscall.ETIMEDOUT,
		syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.EPIPE,
	}
)

var (
	causedByRe   = regexp.MustCompile(`caused by (\w+)\(`)
	httpErrorRe  = regexp.MustCompile(`HTTP Error (\d{3})`)
	errnoRe      = regexp.MustCompile(`\[Errno (-?\d+)\]`)
	networkHints = []string{
		"timed out",
		"Connection reset",
		"Connection refused",
		"Name or service not known",
		"Temporary failure in name resolution",
		"Network is unreachable",
		"Unable to download webpage",
	}
)

// Classify turns an *EngineError with a recognized system-level cause into a
// classified *model.Error. Every other error is returned unchanged.
// With split disabled network faults are reported as system faults.
func Classify(err error, split bool) error {
	var engErr *EngineError
	if !errors.As(err, &engErr) {
		return err
	}

	switch familyOf(engErr.Cause) {
	case familyNetwork:
		reason := model.ReasonNetwork
		if !split {
			reason = model.ReasonSystem
		}
		return model.NewError(reason, engErr.Error(), err)
	case familySystem:
		return model.NewError(model.ReasonSystem, engErr.Error(), err)
	default:
		return err
	}
}

func familyOf(cause error) causeFamily {
	if cause == nil {
		return familyUnrecognized
	}

	var remote *RemoteCause
	if errors.As(cause, &remote) {
		switch {
		case networkExceptions[remote.Name]:
			return familyNetwork
		case remote.Errno != 0 && networkErrnos[remote.Errno]:
			return familyNetwork
		case systemExceptions[remote.Name]:
			return familySystem
		}
		return familyUnrecognized
	}

	var errno syscall.Errno
	if errors.As(cause, &errno) {
		for _, n := range networkSyscallErrnos {
			if errno == n {
				return familyNetwork
			}
		}
		return familySystem
	}

	var netErr net.Error
	if errors.As(cause, &netErr) {
		return familyNetwork
	}
	var urlErr *url.Error
	if errors.As(cause, &urlErr) {
		return familyNetwork
	}

	var pathErr *os.PathError
	var sysErr *os.SyscallError
	var execErr *exec.Error
	if errors.As(cause, &pathErr) || errors.As(cause, &sysErr) || errors.As(cause, &execErr) {
		return familySystem
	}
	return familyUnrecognized
}

// ParseRemoteCause extracts the underlying exception from engine stderr, or nil
func ParseRemoteCause(stderr string) *RemoteCause {
	line := LastErrorLine(stderr)
	if line == "" {
		return nil
	}

	cause := &RemoteCause{Detail: line}
	if m := errnoRe.FindStringSubmatch(line); m != nil {
		cause.Errno, _ = strconv.Atoi(m[1])
	}

	switch {
	case causedByRe.MatchString(line):
		m := causedByRe.FindAllStringSubmatch(line, -1)
		// innermost cause wins
		cause.Name = m[len(m)-1][1]
	case httpErrorRe.MatchString(line):
		cause.Name = "HTTPError"
	case cause.Errno != 0:
		cause.Name = "OSError"
	default:
		for _, hint := range networkHints {
			if strings.Contains(line, hint) {
				cause.Name = "URLError"
				break
			}
		}
	}
	if cause.Name == "" {
		return nil
	}
	return cause
}

// LastErrorLine returns the last "ERROR:" line of engine output without its prefix
func LastErrorLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if rest, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
