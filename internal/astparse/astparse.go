// Package astparse implements the §4.2 JS/TypeScript AST pass: top-level
// symbol extraction, intra-file call tracking, and export/import
// descriptor collection over a real tree-sitter parse. Every other
// language, and any file tree-sitter fails on, gets the FallbackSymbol
// whole-file unit instead.
package astparse

import (
	"sort"
	"strings"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codeatlas/codeatlas/internal/types"
)

const defaultSnippetCap = 128 * 1024

// jsLanguage and tsLanguage are shared across every .js/.jsx/.mjs/.cjs and
// .ts/.tsx file respectively; one TypeScript grammar covers both its
// extensions, same as the dedicated TSX grammar is skipped upstream.
var (
	jsLanguage = tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	tsLanguage = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
)

// Result is one file's §4.2 AST-pass output.
type Result struct {
	Symbols       []types.Symbol
	IncomingCalls map[string]map[string]bool // calleeID -> set of callerIDs
	Exports       types.ExportSet
	Imports       []types.ImportDescriptor
}

func languageFor(ext string) *tree_sitter.Language {
	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		return jsLanguage
	case ".ts", ".tsx":
		return tsLanguage
	default:
		return nil
	}
}

// Parse runs the JS/TS AST pass over one file's content. ok is false when
// the extension isn't JS/TS, the file exceeds maxFileBytes, or tree-sitter
// fails to produce a tree — callers fall back to FallbackSymbol.
func Parse(relPath, language, ext string, content []byte, maxFileBytes int64, snippetCap int) (Result, bool) {
	if int64(len(content)) > maxFileBytes {
		return Result{}, false
	}
	lang := languageFor(ext)
	if lang == nil {
		return Result{}, false
	}
	if snippetCap <= 0 {
		snippetCap = defaultSnippetCap
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return Result{}, false
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return Result{}, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return Result{}, false
	}

	e := &extractor{
		relPath:    relPath,
		language:   language,
		content:    content,
		snippetCap: snippetCap,
		byID:       map[string]types.Symbol{},
		spans:      map[string][2]uint{},
		exports:    types.ExportSet{},
	}
	e.visitProgram(root)
	e.collectCalls(root)

	symbols := make([]types.Symbol, 0, len(e.byID))
	for _, s := range e.byID {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].StartLine != symbols[j].StartLine {
			return symbols[i].StartLine < symbols[j].StartLine
		}
		return symbols[i].Name < symbols[j].Name
	})

	return Result{
		Symbols:       symbols,
		IncomingCalls: e.calls,
		Exports:       e.exports,
		Imports:       e.imports,
	}, true
}

// FallbackSymbol builds the whole-file unit used when no real AST is
// available: a non-JS/TS language, an oversize file, or a tree-sitter
// parse failure.
func FallbackSymbol(relPath, language string, content []byte) types.Symbol {
	lineCount := strings.Count(string(content), "\n") + 1
	return types.Symbol{
		ID:        "file:" + relPath + "#__file__",
		FileID:    "file:" + relPath,
		Name:      "__file__",
		Kind:      types.SymbolFile,
		Path:      relPath,
		Language:  language,
		StartLine: 1,
		EndLine:   lineCount,
		Text:      string(content),
	}
}

type extractor struct {
	relPath    string
	language   string
	content    []byte
	snippetCap int

	byID    map[string]types.Symbol
	spans   map[string][2]uint // id -> [startByte, endByte)
	exports types.ExportSet
	imports []types.ImportDescriptor
	calls   map[string]map[string]bool
}

func (e *extractor) text(n *tree_sitter.Node) string {
	return string(e.content[n.StartByte():n.EndByte()])
}

func (e *extractor) line(n *tree_sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

func startsUpper(name string) bool {
	r := []rune(name)
	if len(r) == 0 {
		return false
	}
	return unicode.IsUpper(r[0])
}

// addSymbol records a top-level symbol, applying the function->component
// capitalization rule and retaining the longer text on ID collision.
func (e *extractor) addSymbol(kind types.SymbolKind, name string, node *tree_sitter.Node) {
	if name == "" || node == nil {
		return
	}
	if kind == types.SymbolFunction && startsUpper(name) {
		kind = types.SymbolComponent
	}
	id := string(kind) + ":" + e.relPath + "#" + name

	text := e.text(node)
	if len(text) > e.snippetCap {
		text = text[:e.snippetCap]
	}

	sym := types.Symbol{
		ID:        id,
		FileID:    "file:" + e.relPath,
		Name:      name,
		Kind:      kind,
		Path:      e.relPath,
		Language:  e.language,
		StartLine: e.line(node),
		EndLine:   int(node.EndPosition().Row) + 1,
		Text:      text,
	}

	if existing, ok := e.byID[id]; ok && len(existing.Text) >= len(sym.Text) {
		return
	}
	e.byID[id] = sym
	e.spans[id] = [2]uint{uint(node.StartByte()), uint(node.EndByte())}
}

func (e *extractor) visitProgram(root *tree_sitter.Node) {
	count := int(root.ChildCount())
	for i := 0; i < count; i++ {
		e.visitTopLevel(root.Child(uint(i)))
	}
}

func (e *extractor) visitTopLevel(n *tree_sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "function_declaration", "generator_function_declaration":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			e.addSymbol(types.SymbolFunction, e.text(nameNode), n)
		}
	case "class_declaration":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			e.addSymbol(types.SymbolClass, e.text(nameNode), n)
		}
	case "lexical_declaration", "variable_declaration":
		e.visitVariableDeclarators(n)
	case "export_statement":
		e.visitExportStatement(n)
	case "import_statement":
		e.visitImportStatement(n)
	}
}

// visitVariableDeclarators handles program-scope `const/let/var x = ...`,
// creating a symbol only when the initializer is function-shaped.
func (e *extractor) visitVariableDeclarators(n *tree_sitter.Node) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(uint(i))
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		valueNode := child.ChildByFieldName("value")
		if nameNode == nil || valueNode == nil {
			continue
		}
		switch valueNode.Kind() {
		case "arrow_function", "function_expression", "generator_function":
			e.addSymbol(types.SymbolFunction, e.text(nameNode), valueNode)
		}
	}
}

func (e *extractor) registerDeclaratorExports(n *tree_sitter.Node) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(uint(i))
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			e.exports[e.text(nameNode)] = true
		}
	}
}

func findChildOfKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(uint(i))
		if c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

func hasChildOfKind(n *tree_sitter.Node, kind string) bool {
	return findChildOfKind(n, kind) != nil
}

// visitExportStatement implements the export half of §4.2: named
// declaration exports register the declaration as a top-level symbol and
// add its name(s) to ExportSet; `export default` does the same under the
// "default" key; `export { a, b as c }` without a source registers the
// named/aliased identifiers; re-exports (`export ... from '...'`) are not
// attributed to this file.
func (e *extractor) visitExportStatement(n *tree_sitter.Node) {
	isDefault := hasChildOfKind(n, "default")

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		if isDefault {
			e.exports["default"] = true
			e.visitDefaultDeclaration(decl)
			return
		}
		switch decl.Kind() {
		case "function_declaration", "generator_function_declaration":
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				name := e.text(nameNode)
				e.addSymbol(types.SymbolFunction, name, decl)
				e.exports[name] = true
			}
		case "class_declaration":
			if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
				name := e.text(nameNode)
				e.addSymbol(types.SymbolClass, name, decl)
				e.exports[name] = true
			}
		case "lexical_declaration", "variable_declaration":
			e.visitVariableDeclarators(decl)
			e.registerDeclaratorExports(decl)
		}
		return
	}

	if isDefault {
		if value := n.ChildByFieldName("value"); value != nil {
			e.exports["default"] = true
			e.visitDefaultDeclaration(value)
			return
		}
	}

	if n.ChildByFieldName("source") != nil {
		return // re-export, not attributed to this file
	}
	if clause := findChildOfKind(n, "export_clause"); clause != nil {
		e.registerExportClauseNames(clause)
	}
}

// visitDefaultDeclaration handles `export default <decl>`, naming the
// symbol after the declaration when possible, else "default".
func (e *extractor) visitDefaultDeclaration(decl *tree_sitter.Node) {
	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		name := "default"
		if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
			name = e.text(nameNode)
		}
		kind := types.SymbolFunction
		if decl.Kind() == "class_declaration" {
			kind = types.SymbolClass
		}
		e.addSymbol(kind, name, decl)
	case "arrow_function", "function_expression":
		e.addSymbol(types.SymbolFunction, "default", decl)
	}
}

func (e *extractor) registerExportClauseNames(clause *tree_sitter.Node) {
	count := int(clause.ChildCount())
	for i := 0; i < count; i++ {
		spec := clause.Child(uint(i))
		if spec == nil || spec.Kind() != "export_specifier" {
			continue
		}
		var exported string
		if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
			exported = e.text(aliasNode)
		} else if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
			exported = e.text(nameNode)
		}
		if exported != "" {
			e.exports[exported] = true
		}
	}
}

// visitImportStatement collects one ImportDescriptor per import statement:
// default import contributes "default", named imports contribute the
// source-side (pre-alias) identifier, namespace imports set HasNamespace.
func (e *extractor) visitImportStatement(n *tree_sitter.Node) {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return
	}
	desc := types.ImportDescriptor{
		Specifier: strings.Trim(e.text(sourceNode), `"'`),
		Names:     map[string]bool{},
	}
	if clause := findChildOfKind(n, "import_clause"); clause != nil {
		e.visitImportClause(clause, &desc)
	}
	e.imports = append(e.imports, desc)
}

func (e *extractor) visitImportClause(clause *tree_sitter.Node, desc *types.ImportDescriptor) {
	count := int(clause.ChildCount())
	for i := 0; i < count; i++ {
		c := clause.Child(uint(i))
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "identifier":
			desc.Names["default"] = true
		case "namespace_import":
			desc.HasNamespace = true
		case "named_imports":
			e.visitNamedImports(c, desc)
		}
	}
}

func (e *extractor) visitNamedImports(n *tree_sitter.Node, desc *types.ImportDescriptor) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		spec := n.Child(uint(i))
		if spec == nil || spec.Kind() != "import_specifier" {
			continue
		}
		if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
			desc.Names[e.text(nameNode)] = true
		}
	}
}

// walk performs a pre-order traversal, descending into a node's children
// only while visit returns true for it.
func walk(n *tree_sitter.Node, visit func(*tree_sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		walk(n.Child(uint(i)), visit)
	}
}

// collectCalls records, for every call to a top-level function-like
// symbol, the enclosing top-level symbol that made the call (§4.2).
// Self-calls, calls from outside any top-level symbol, and calls whose
// narrowest enclosing top-level span is a class (a method body, since
// methods aren't tracked as their own spans) are ignored: only a
// function-like caller participates.
func (e *extractor) collectCalls(root *tree_sitter.Node) {
	e.calls = map[string]map[string]bool{}

	nameToID := map[string]string{}
	for id, s := range e.byID {
		if s.IsFunctionLike() {
			nameToID[s.Name] = id
		}
	}
	if len(nameToID) == 0 {
		return
	}

	walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil && fn.Kind() == "identifier" {
				if calleeID, ok := nameToID[e.text(fn)]; ok {
					if callerID := e.enclosingTopLevel(n.StartByte()); callerID != "" && callerID != calleeID {
						if caller, ok := e.byID[callerID]; ok && caller.IsFunctionLike() {
							if e.calls[calleeID] == nil {
								e.calls[calleeID] = map[string]bool{}
							}
							e.calls[calleeID][callerID] = true
						}
					}
				}
			}
		}
		return true
	})
}

// enclosingTopLevel returns the ID of the narrowest top-level symbol span
// containing byte offset b, or "" if none contains it.
func (e *extractor) enclosingTopLevel(b uint) string {
	best := ""
	var bestLen uint = ^uint(0)
	for id, rng := range e.spans {
		if b >= rng[0] && b < rng[1] {
			if l := rng[1] - rng[0]; l < bestLen {
				bestLen = l
				best = id
			}
		}
	}
	return best
}
