package smells

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeatlas/codeatlas/internal/types"
)

func issueTypes(issues []types.Issue) []string {
	out := make([]string, len(issues))
	for i, iss := range issues {
		out[i] = iss.Type
	}
	return out
}

func TestDetect_LongFunctionWarningAndError(t *testing.T) {
	warn := types.Symbol{Kind: types.SymbolFunction, Path: "a.js", StartLine: 1, EndLine: 50, Text: "function f() {}"}
	assert.Contains(t, issueTypes(Detect(warn)), "long-function")

	errSym := types.Symbol{Kind: types.SymbolFunction, Path: "a.js", StartLine: 1, EndLine: 100, Text: "function f() {}"}
	issues := Detect(errSym)
	found := false
	for _, iss := range issues {
		if iss.Type == "long-function" {
			assert.Equal(t, types.SeverityError, iss.Severity)
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetect_ManyParameters(t *testing.T) {
	sym := types.Symbol{
		Kind: types.SymbolFunction, Path: "a.js", StartLine: 1, EndLine: 2,
		Text: "function f(a, b, c, d, e) {\n}",
	}
	assert.Contains(t, issueTypes(Detect(sym)), "many-parameters")
}

func TestDetect_ManyParameters_ArrowSignature(t *testing.T) {
	sym := types.Symbol{
		Kind: types.SymbolFunction, Path: "a.js", StartLine: 1, EndLine: 1,
		Text: "(a, b, c, d, e, f, g, h) => a + b",
	}
	issues := Detect(sym)
	found := false
	for _, iss := range issues {
		if iss.Type == "many-parameters" && iss.Severity == types.SeverityError {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetect_BranchHeavy(t *testing.T) {
	var b strings.Builder
	b.WriteString("function f(x) {\n")
	for i := 0; i < 16; i++ {
		b.WriteString("if (x) {}\n")
	}
	b.WriteString("}\n")
	sym := types.Symbol{Kind: types.SymbolFunction, Path: "a.js", StartLine: 1, EndLine: 18, Text: b.String()}
	assert.Contains(t, issueTypes(Detect(sym)), "branch-heavy")
}

func TestDetect_NoIssuesForSmallFunction(t *testing.T) {
	sym := types.Symbol{
		Kind: types.SymbolFunction, Path: "a.js", StartLine: 1, EndLine: 3,
		Text: "function f(a) {\n  return a;\n}",
	}
	assert.Empty(t, Detect(sym))
}

func TestDetect_LargeClass(t *testing.T) {
	sym := types.Symbol{Kind: types.SymbolClass, Path: "a.js", StartLine: 1, EndLine: 100, Text: "class C {}"}
	assert.Contains(t, issueTypes(Detect(sym)), "large-class")
}

func TestDetect_ManyMethods(t *testing.T) {
	var b strings.Builder
	b.WriteString("class C {\n")
	for i := 0; i < 16; i++ {
		b.WriteString("  method")
		b.WriteString(string(rune('a' + i)))
		b.WriteString("() {}\n")
	}
	b.WriteString("}\n")
	sym := types.Symbol{Kind: types.SymbolClass, Path: "a.js", StartLine: 1, EndLine: 18, Text: b.String()}
	assert.Contains(t, issueTypes(Detect(sym)), "many-methods")
}

func TestCountParams(t *testing.T) {
	assert.Equal(t, 0, countParams("function f() {}"))
	assert.Equal(t, 1, countParams("function f(a) {}"))
	assert.Equal(t, 3, countParams("function f(a, b, c) {\n  return a;\n}"))
}

func TestIssue_CarriesSymbolIDAndLine(t *testing.T) {
	sym := types.Symbol{
		ID: "function:a.js#f", Kind: types.SymbolFunction, Path: "a.js",
		StartLine: 5, EndLine: 55, Text: "function f() {}",
	}
	issues := Detect(sym)
	for _, iss := range issues {
		assert.Equal(t, "function:a.js#f", iss.SymbolID)
		assert.Equal(t, 5, iss.Line)
	}
}
