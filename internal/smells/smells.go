// Package smells implements spec.md §4.5b: size/branch/parameter/method-
// count threshold checks over function-like symbols and classes.
package smells

import (
	"regexp"
	"strings"

	"github.com/codeatlas/codeatlas/internal/types"
)

var (
	paramSignatureRe = regexp.MustCompile(`(?s)^[^{(]*\(([^)]*)\)\s*(\{|=>)`)
	branchRe         = regexp.MustCompile(`\b(if|else if|for|while|switch|case|catch)\b|&&|\|\|`)
	methodNameRe     = regexp.MustCompile(`(?m)^\s*(async\s+)?(static\s+)?([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)
)

const (
	longFunctionWarn  = 50
	longFunctionError = 100

	manyParamsWarn  = 5
	manyParamsError = 8

	branchHeavyWarn  = 15
	branchHeavyError = 25

	largeClassWarn  = 100
	largeClassError = 200

	manyMethodsWarn  = 15
	manyMethodsError = 25
)

// Detect inspects a symbol's text and returns the issues it triggers.
// Fallback file-scope symbols (kind=file) are checked the same as any
// function-like symbol would be; clone detection is what excludes them,
// not this pass.
func Detect(sym types.Symbol) []types.Issue {
	lineCount := sym.EndLine - sym.StartLine + 1
	switch sym.Kind {
	case types.SymbolClass:
		return detectClass(sym, lineCount)
	default:
		return detectFunction(sym, lineCount)
	}
}

func detectFunction(sym types.Symbol, lineCount int) []types.Issue {
	var issues []types.Issue

	if lineCount >= longFunctionError {
		issues = append(issues, issue(sym, types.SeverityError, "long-function", "function has 100 or more lines"))
	} else if lineCount >= longFunctionWarn {
		issues = append(issues, issue(sym, types.SeverityWarning, "long-function", "function has 50 or more lines"))
	}

	if paramCount := countParams(sym.Text); paramCount >= manyParamsError {
		issues = append(issues, issue(sym, types.SeverityError, "many-parameters", "function takes 8 or more parameters"))
	} else if paramCount >= manyParamsWarn {
		issues = append(issues, issue(sym, types.SeverityWarning, "many-parameters", "function takes 5 or more parameters"))
	}

	branches := len(branchRe.FindAllString(sym.Text, -1))
	if branches >= branchHeavyError {
		issues = append(issues, issue(sym, types.SeverityError, "branch-heavy", "function contains 25 or more branch points"))
	} else if branches >= branchHeavyWarn {
		issues = append(issues, issue(sym, types.SeverityWarning, "branch-heavy", "function contains 15 or more branch points"))
	}

	return issues
}

func detectClass(sym types.Symbol, lineCount int) []types.Issue {
	var issues []types.Issue

	if lineCount >= largeClassError {
		issues = append(issues, issue(sym, types.SeverityError, "large-class", "class has 200 or more lines"))
	} else if lineCount >= largeClassWarn {
		issues = append(issues, issue(sym, types.SeverityWarning, "large-class", "class has 100 or more lines"))
	}

	methods := len(methodNameRe.FindAllString(sym.Text, -1))
	if methods >= manyMethodsError {
		issues = append(issues, issue(sym, types.SeverityError, "many-methods", "class declares 25 or more methods"))
	} else if methods >= manyMethodsWarn {
		issues = append(issues, issue(sym, types.SeverityWarning, "many-methods", "class declares 15 or more methods"))
	}

	return issues
}

// countParams extracts the parameter list from a function/method signature
// preceding its first `{` or `=>` and counts comma-separated entries (a
// bare, empty signature counts zero).
func countParams(text string) int {
	m := paramSignatureRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	params := strings.TrimSpace(m[1])
	if params == "" {
		return 0
	}
	return strings.Count(params, ",") + 1
}

func issue(sym types.Symbol, severity types.IssueSeverity, issueType, message string) types.Issue {
	return types.Issue{
		Category: types.IssueCategorySmell,
		Severity: severity,
		Path:     sym.Path,
		Type:     issueType,
		Message:  message,
		SymbolID: sym.ID,
		Line:     sym.StartLine,
	}
}
