//go:build integration

package integration

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot resolves the repository root relative to this file.
func projectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

var (
	buildOnce sync.Once
	buildErr  error
)

// serveSession wraps a running `magus serve` subprocess and its pipes.
type serveSession struct {
	proc  *exec.Cmd
	stdin io.WriteCloser
	out   *bufio.Scanner
}

// startServe builds the binary (once per test run) and starts a serve
// subprocess. The process is killed on test cleanup.
func startServe(t *testing.T) *serveSession {
	t.Helper()
	root := projectRoot()

	buildOnce.Do(func() {
		build := exec.Command("go", "build", "-o", "dist/magus", "./cmd/magus")
		build.Dir = root
		if out, err := build.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("go build: %v\n%s", err, out)
		}
	})
	require.NoError(t, buildErr)

	proc := exec.Command(filepath.Join(root, "dist", "magus"), "serve")
	proc.Dir = root

	stdin, err := proc.StdinPipe()
	require.NoError(t, err)
	stdout, err := proc.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, proc.Start())

	t.Cleanup(func() {
		stdin.Close()
		proc.Process.Kill()
	})

	return &serveSession{proc: proc, stdin: stdin, out: bufio.NewScanner(stdout)}
}

// send writes one request line to the server's stdin.
func (s *serveSession) send(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(s.stdin, line+"\n")
	require.NoError(t, err)
}

// next reads and decodes one response line, failing the test on timeout.
func (s *serveSession) next(t *testing.T, timeout time.Duration) map[string]any {
	t.Helper()

	lines := make(chan string, 1)
	go func() {
		if s.out.Scan() {
			lines <- s.out.Text()
		}
	}()

	select {
	case line := <-lines:
		var msg map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		return msg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for server output")
		return nil
	}
}

// awaitReady consumes the startup handshake.
func (s *serveSession) awaitReady(t *testing.T) {
	t.Helper()
	ready := s.next(t, 60*time.Second)
	require.True(t, ready["success"].(bool), "server failed to start: %v", ready)
}

func TestServeIntegration_ReadySignal(t *testing.T) {
	s := startServe(t)

	ready := s.next(t, 60*time.Second)
	assert.True(t, ready["success"].(bool))
	assert.Equal(t, "ready", ready["type"])
}

func TestServeIntegration_ScanZipHeader(t *testing.T) {
	s := startServe(t)
	s.awaitReady(t)

	// A zip local file header in the middle of otherwise boring bytes.
	content := base64.StdEncoding.EncodeToString([]byte("padding bytes PK\x03\x04 trailing data"))
	s.send(t, fmt.Sprintf(`{"type":"scan","payload":{"content":"%s","source":"firmware.bin"}}`, content))

	resp := s.next(t, 30*time.Second)
	require.True(t, resp["success"].(bool), "scan should succeed")
	assert.Equal(t, "scan", resp["type"])

	data := resp["data"].(map[string]any)
	candidates := data["candidates"].([]any)
	assert.NotEmpty(t, candidates, "zip header should produce a candidate offset")
}

func TestServeIntegration_ScanBatch(t *testing.T) {
	s := startServe(t)
	s.awaitReady(t)

	clean := base64.StdEncoding.EncodeToString([]byte("nothing to see here"))
	gz := base64.StdEncoding.EncodeToString([]byte("\x1f\x8b\x08 gzip member bytes"))
	s.send(t, fmt.Sprintf(
		`{"type":"scan_batch","payload":{"items":[{"source":"a.txt","content":"%s"},{"source":"b.gz","content":"%s"}]}}`,
		clean, gz))

	resp := s.next(t, 30*time.Second)
	require.True(t, resp["success"].(bool), "batch scan should succeed")
	assert.Equal(t, "scan_batch", resp["type"])

	data := resp["data"].(map[string]any)
	assert.GreaterOrEqual(t, data["total"].(float64), float64(1), "gzip member should contribute a candidate")
}

func TestServeIntegration_CloseCommand(t *testing.T) {
	s := startServe(t)
	s.awaitReady(t)

	s.send(t, `{"type":"close","payload":{}}`)

	done := make(chan error, 1)
	go func() { done <- s.proc.Wait() }()

	select {
	case err := <-done:
		assert.NoError(t, err, "process should exit cleanly")
	case <-time.After(10 * time.Second):
		t.Fatal("process did not exit after close command")
	}
}
