package snippet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/config"
	atlaserrors "github.com/codeatlas/codeatlas/internal/errors"
)

func testCfg() config.Snippet {
	return config.Snippet{MinBytes: 1024, MaxBytes: 512 * 1024}
}

func TestRead_WithinBoundsReturnsFullContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("hello world"), 0o644))

	res, err := Read(dir, "a.js", 1024, testCfg())
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Content)
	assert.False(t, res.Truncated)
	assert.Equal(t, int64(11), res.Size)
}

func TestRead_TruncatesWhenFileExceedsMaxBytes(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("x", 2000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.js"), []byte(content), 0o644))

	res, err := Read(dir, "big.js", 1024, testCfg())
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Content, 1024)
	assert.Equal(t, int64(2000), res.Size)
}

func TestRead_ClampsBelowMinBytes(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("y", 2000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.js"), []byte(content), 0o644))

	res, err := Read(dir, "f.js", 10, testCfg())
	require.NoError(t, err)
	assert.Len(t, res.Content, 1024)
}

func TestRead_ClampsAboveMaxBytes(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("z", 2000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.js"), []byte(content), 0o644))

	res, err := Read(dir, "f.js", 10*1024*1024, testCfg())
	require.NoError(t, err)
	assert.Equal(t, 2000, len(res.Content))
	assert.False(t, res.Truncated)
}

func TestRead_RejectsPathEscapingRoot(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(dir, "../../etc/passwd", 1024, testCfg())
	require.Error(t, err)

	var ae *atlaserrors.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, atlaserrors.ErrorTypePermission, ae.Type)
}

func TestRead_RejectsAbsolutePathEscapingRoot(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(dir, "/etc/passwd", 1024, testCfg())
	require.Error(t, err)

	var ae *atlaserrors.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, atlaserrors.ErrorTypePermission, ae.Type)
}
