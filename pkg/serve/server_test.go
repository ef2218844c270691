package serve

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/magus/pkg/scanner"
)

const testDefs = "0\tstring\tPK\\x03\\x04\tZip archive\n" +
	"0\tstring\t\\x1f\\x8b\\x08\tgzip compressed data\n"

func b64(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

func newTestCore(t *testing.T) *scanner.Core {
	t.Helper()
	core, err := scanner.NewCore(testDefs, nil)
	require.NoError(t, err)
	t.Cleanup(core.Close)
	return core
}

// runServer feeds input to a fresh server until EOF and decodes every
// output line. The first response is always the ready handshake.
func runServer(t *testing.T, input string) []Response {
	t.Helper()

	out := &bytes.Buffer{}
	srv := NewServer(newTestCore(t), strings.NewReader(input), out)
	require.NoError(t, srv.Run(context.Background()))

	var responses []Response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses
}

// unpack decodes a successful response's data payload into dst.
func unpack(t *testing.T, resp Response, dst any) {
	t.Helper()
	require.True(t, resp.Success, "response error: %s", resp.Error)
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func TestServerReadyHandshake(t *testing.T) {
	responses := runServer(t, "")
	require.Len(t, responses, 1)
	assert.Equal(t, "ready", responses[0].Type)

	var ready ReadyData
	unpack(t, responses[0], &ready)
	assert.Equal(t, Version, ready.Version)
}

func TestServerScan(t *testing.T) {
	line := fmt.Sprintf(`{"type":"scan","payload":{"content":%q,"source":"update.zip"}}`,
		b64("....PK\x03\x04....\x1f\x8b\x08.."))

	responses := runServer(t, line+"\n")
	require.Len(t, responses, 2)
	assert.Equal(t, TypeScan, responses[1].Type)

	var result scanner.ScanResult
	unpack(t, responses[1], &result)
	assert.Equal(t, "update.zip", result.Source)
	assert.Equal(t, []int64{4, 12}, result.Candidates)
}

func TestServerScanWithBound(t *testing.T) {
	// Bound 12 excludes the gzip magic at offset 12.
	line := fmt.Sprintf(`{"type":"scan","payload":{"content":%q,"source":"bounded.bin","bound":12}}`,
		b64("....PK\x03\x04....\x1f\x8b\x08.."))

	responses := runServer(t, line+"\n")
	require.Len(t, responses, 2)

	var result scanner.ScanResult
	unpack(t, responses[1], &result)
	assert.Equal(t, []int64{4}, result.Candidates)
}

func TestServerScanBatch(t *testing.T) {
	line := fmt.Sprintf(
		`{"type":"scan_batch","payload":{"items":[{"source":"s1","content":%q},{"source":"s2","content":%q}]}}`,
		b64("no magic here"), b64("PK\x03\x04...."))

	responses := runServer(t, line+"\n")
	require.Len(t, responses, 2)
	assert.Equal(t, TypeScanBatch, responses[1].Type)

	var batch scanner.BatchScanResult
	unpack(t, responses[1], &batch)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, 1, batch.Total)
	assert.Empty(t, batch.Results[0].Candidates)
	assert.Equal(t, []int64{0}, batch.Results[1].Candidates)
}

func TestServerInfo(t *testing.T) {
	responses := runServer(t, `{"type":"info","payload":{}}`+"\n")
	require.Len(t, responses, 2)
	assert.Equal(t, TypeInfo, responses[1].Type)

	var info InfoData
	unpack(t, responses[1], &info)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, 2, info.Signatures)
	assert.NotEmpty(t, info.Engine)
}

func TestServerCloseCommand(t *testing.T) {
	// Close exits before EOF; only the handshake goes out.
	responses := runServer(t, `{"type":"close","payload":{}}`+"\n")
	assert.Len(t, responses, 1)
}

func TestServerUnknownType(t *testing.T) {
	responses := runServer(t, `{"type":"invalid","payload":{}}`+"\n")
	require.Len(t, responses, 2)

	assert.False(t, responses[1].Success)
	assert.Contains(t, responses[1].Error, "unknown request type")
}

func TestServerMalformedInput(t *testing.T) {
	responses := runServer(t, "{invalid json}\n")
	require.Len(t, responses, 2)

	assert.False(t, responses[1].Success)
	assert.Equal(t, "decode", responses[1].Type)
}

func TestServerShutdownOnContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	srv := NewServer(newTestCore(t), pr, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// Let the handshake go out, then cancel while the reader blocks.
	time.Sleep(100 * time.Millisecond)
	cancel()
	pw.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
