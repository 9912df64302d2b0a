// package testing holds the doubles and fixtures shared by ldx tests.
package testing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var (
	errWrite = errors.New("write failed")
	errRead  = errors.New("read failed")
)

// FWriter fails every write.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (int, error) {
	return 0, errWrite
}

// LimitedWriter passes writes through to target until maxWrites is reached.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, fmt.Errorf("%w: limit of %d reached", errWrite, l.maxWrites)
	}
	l.written++
	return l.target.Write(p)
}

// MockRoundTripper answers every request with the same response or error.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (f *FCloser) Read(p []byte) (int, error) { return 0, errRead }

func (f *FCloser) Close() error { return nil }

// BackendConfig is the subset of config.toml tests vary.
type BackendConfig struct {
	BaseURL  string
	Token    string
	Database string
	LogFile  string
}

// WriteConfig writes a config.toml into dir that points ldx at a test backend
// and returns its path. Empty database and log paths default to files in dir.
func WriteConfig(t *testing.T, dir string, c BackendConfig) string {
	t.Helper()
	if c.Database == "" {
		c.Database = filepath.Join(dir, "ldx.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(dir, "ldx.log")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[api]\nbase_url = %q\n\n", c.BaseURL)
	fmt.Fprintf(&b, "[auth]\ntoken = %q\n\n", c.Token)
	fmt.Fprintf(&b, "[database]\npath = %q\n\n", c.Database)
	b.WriteString("[scanner]\nengine = \"wedge\"\ndevice = \"-\"\nlookup_delay_ms = 1\n\n")
	fmt.Fprintf(&b, "[log]\nlevel = \"error\"\nfile = %q\n", c.LogFile)

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("Failed to write config %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
