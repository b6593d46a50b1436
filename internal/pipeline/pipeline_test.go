package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/codeatlas/codeatlas/internal/config"
)

// TestMain ensures the errgroup-based metrics fan-out in Analyze (§4.5a)
// never leaks a goroutine across a run.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestAnalyze_RootNotFoundIsFatal(t *testing.T) {
	cfg := config.Default(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := Analyze(cfg)
	require.Error(t, err)
}

func TestAnalyze_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default(dir)
	require.NoError(t, config.NewValidator().ValidateAndSetDefaults(cfg))

	report, err := Analyze(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Totals.Files)
	assert.Equal(t, 1, report.Summary.Totals.Directories)
	assert.Empty(t, report.Issues)
	assert.Equal(t, "No notable architectural facts detected.", report.Narrative.Overview)
}

func TestAnalyze_LocalImportEdgeAndExportUsage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.js", "export function foo() {\n  return 1;\n}\n")
	writeFile(t, dir, "b.js", "import {foo} from './a.js';\nfoo();\n")

	cfg := config.Default(dir)
	require.NoError(t, config.NewValidator().ValidateAndSetDefaults(cfg))

	report, err := Analyze(cfg)
	require.NoError(t, err)

	foundLocal := false
	for _, e := range report.Dependencies.Edges {
		if e.Source == "b.js" && e.Target == "a.js" && e.Kind == "local" {
			foundLocal = true
		}
	}
	assert.True(t, foundLocal)
	assert.Equal(t, 1, report.StructureGraph.ExportUsage["a.js#foo"])

	for _, sym := range report.StructureGraph.Symbols {
		assert.Empty(t, sym.Text)
	}
}

func TestAnalyze_IdenticalFunctionsProduceClones(t *testing.T) {
	dir := t.TempDir()
	body := "function add(a, b) {\n  let total = a + b;\n  if (total > 100) {\n    total = 100;\n  }\n  return total;\n}\n"
	writeFile(t, dir, "a.js", body)
	writeFile(t, dir, "b.js", body)

	cfg := config.Default(dir)
	require.NoError(t, config.NewValidator().ValidateAndSetDefaults(cfg))

	report, err := Analyze(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Clones)
}

func TestAnalyze_TraversalRespectsMaxEntries(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, dir, string(rune('a'+i))+".txt", "x")
	}

	cfg := config.Default(dir)
	cfg.Walk.MaxEntries = 3
	require.NoError(t, config.NewValidator().ValidateAndSetDefaults(cfg))

	report, err := Analyze(cfg)
	require.NoError(t, err)
	assert.True(t, report.Summary.Totals.Truncated)
	assert.LessOrEqual(t, report.Summary.Totals.Files+report.Summary.Totals.Directories, 3)
}
