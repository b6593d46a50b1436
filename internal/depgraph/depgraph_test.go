package depgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecifiers_JS(t *testing.T) {
	content := []byte(`
import {foo} from './a.js';
import bar from "bar-pkg";
const x = import('./dynamic.js');
const y = require('./required.js');
`)
	specs := Specifiers("javascript", content)
	assert.Contains(t, specs, "./a.js")
	assert.Contains(t, specs, "bar-pkg")
	assert.Contains(t, specs, "./dynamic.js")
	assert.Contains(t, specs, "./required.js")
}

func TestSpecifiers_Python(t *testing.T) {
	content := []byte("import os\nfrom pkg.sub import x\n")
	specs := Specifiers("python", content)
	assert.Contains(t, specs, "os")
	assert.Contains(t, specs, "pkg.sub")
}

func TestSpecifiers_Go(t *testing.T) {
	content := []byte(`
import "fmt"
import (
	"os"
	"strings"
)
`)
	specs := Specifiers("go", content)
	assert.Contains(t, specs, "fmt")
	assert.Contains(t, specs, "os")
	assert.Contains(t, specs, "strings")
}

func TestResolve_ExactPathWinsOverIndex(t *testing.T) {
	fileSet := map[string]bool{
		"src/x.ts":       true,
		"src/x/index.ts": true,
	}
	target, ok := Resolve("src", "./x.ts", fileSet)
	require.True(t, ok)
	assert.Equal(t, "src/x.ts", target)
}

func TestResolve_FallsBackToProbeExtensions(t *testing.T) {
	fileSet := map[string]bool{"src/util.js": true}
	target, ok := Resolve("src", "./util", fileSet)
	require.True(t, ok)
	assert.Equal(t, "src/util.js", target)
}

func TestResolve_FallsBackToIndex(t *testing.T) {
	fileSet := map[string]bool{"src/widgets/index.js": true}
	target, ok := Resolve("src", "./widgets", fileSet)
	require.True(t, ok)
	assert.Equal(t, "src/widgets/index.js", target)
}

func TestResolve_Unresolvable(t *testing.T) {
	_, ok := Resolve("src", "./missing", map[string]bool{})
	assert.False(t, ok)
}

func TestIsRelative(t *testing.T) {
	assert.True(t, IsRelative("./a"))
	assert.True(t, IsRelative("../a"))
	assert.True(t, IsRelative("/abs/a"))
	assert.False(t, IsRelative("lodash"))
}

func TestBuild_LocalEdgeAndExportUsageInput(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.js")
	bPath := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(aPath, []byte("export function foo(){}\n"), 0o644))
	require.NoError(t, os.WriteFile(bPath, []byte("import {foo} from './a.js';\nfoo();\n"), 0o644))

	files := []BuildInput{
		{Path: "a.js", Language: "javascript", Size: 30, AbsPath: aPath},
		{Path: "b.js", Language: "javascript", Size: 40, AbsPath: bPath},
	}
	fileSet := map[string]bool{"a.js": true, "b.js": true}

	deps, resolution, issues := Build(files, fileSet, 256*1024)
	assert.Empty(t, issues)

	found := false
	for _, e := range deps.Edges {
		if e.Source == "b.js" && e.Target == "a.js" && e.Kind == "local" {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, "a.js", resolution["b.js"]["./a.js"])
}

func TestBuild_ExternalSpecifierNoUnresolvedEntry(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "m.py")
	require.NoError(t, os.WriteFile(p, []byte("from pkg.sub import x\n"), 0o644))

	files := []BuildInput{{Path: "m.py", Language: "python", Size: 20, AbsPath: p}}
	deps, _, _ := Build(files, map[string]bool{"m.py": true}, 256*1024)
	assert.Empty(t, deps.Unresolved)

	foundExternal := false
	for _, e := range deps.Edges {
		if e.Kind == "external" && e.Specifier == "pkg.sub" {
			foundExternal = true
		}
	}
	assert.True(t, foundExternal)
}

func TestBuild_OversizeFileSkipped(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.js")
	require.NoError(t, os.WriteFile(p, []byte("import './x.js';"), 0o644))

	files := []BuildInput{{Path: "big.js", Language: "javascript", Size: 999999, AbsPath: p}}
	deps, _, _ := Build(files, map[string]bool{"big.js": true}, 10)
	require.Len(t, deps.Unresolved, 1)
	assert.Contains(t, deps.Unresolved[0].Reason, "too large")
}
