// Package snippet implements the §6 source-snippet interface: a
// byte-bounded read of a single file for display by external callers
// (the CLI snippet subcommand and the MCP snippet tool). It never walks
// or parses a project; it only resolves one path safely and slices it.
// The root-relative path on the returned Result is computed with
// pkg/pathutil, the module's shared absolute-to-relative conversion
// layer for boundaries that hand a path back to an external caller.
package snippet

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeatlas/codeatlas/internal/config"
	atlaserrors "github.com/codeatlas/codeatlas/internal/errors"
	"github.com/codeatlas/codeatlas/pkg/pathutil"
)

// Result is the §6 source-snippet response shape.
type Result struct {
	Path      string
	Size      int64
	Content   string
	Truncated bool
}

// Read returns the first min(fileSize, maxBytes) bytes of filePath,
// resolved relative to rootPath. maxBytes is clamped into
// [cfg.MinBytes, cfg.MaxBytes]. Paths that escape rootPath are rejected
// with a permission-class AnalysisError.
func Read(rootPath, filePath string, maxBytes int64, cfg config.Snippet) (Result, error) {
	if maxBytes < cfg.MinBytes {
		maxBytes = cfg.MinBytes
	}
	if maxBytes > cfg.MaxBytes {
		maxBytes = cfg.MaxBytes
	}

	abs, rel, err := resolve(rootPath, filePath)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Result{}, atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeFilesystem, "stat", err).WithPath(rel)
	}
	if info.IsDir() {
		return Result{}, atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeFilesystem, "read", os.ErrInvalid).WithPath(rel)
	}

	f, err := os.Open(abs)
	if err != nil {
		return Result{}, atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeFilesystem, "open", err).WithPath(rel)
	}
	defer f.Close()

	readLen := info.Size()
	if readLen > maxBytes {
		readLen = maxBytes
	}

	buf := make([]byte, readLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Result{}, atlaserrors.NewAnalysisError(atlaserrors.ErrorTypeFilesystem, "read", err).WithPath(rel)
	}
	buf = buf[:n]

	return Result{
		Path:      rel,
		Size:      info.Size(),
		Content:   string(buf),
		Truncated: info.Size() > int64(n),
	}, nil
}

// resolve joins filePath onto rootPath and rejects any result that
// escapes the root, whether via ".." segments or an absolute path.
func resolve(rootPath, filePath string) (abs string, rel string, err error) {
	if filepath.IsAbs(filePath) {
		return "", "", atlaserrors.NewAnalysisError(atlaserrors.ErrorTypePermission, "resolve",
			os.ErrPermission).WithPath(filePath)
	}

	rootAbs, err := filepath.Abs(rootPath)
	if err != nil {
		return "", "", atlaserrors.NewAnalysisError(atlaserrors.ErrorTypePermission, "resolve", err).WithPath(filePath)
	}
	rootAbs = filepath.Clean(rootAbs)

	joined := filepath.Clean(filepath.Join(rootAbs, filepath.FromSlash(filePath)))

	if joined != rootAbs && !strings.HasPrefix(joined, rootAbs+string(filepath.Separator)) {
		return "", "", atlaserrors.NewAnalysisError(atlaserrors.ErrorTypePermission, "resolve",
			os.ErrPermission).WithPath(filePath)
	}

	return joined, pathutil.ToRelative(joined, rootAbs), nil
}
