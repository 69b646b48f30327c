package parser

import (
	"context"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Compile-time check.
var _ Extractor = (*TreeSitterExtractor)(nil)

// astExtractor collects facts from a parsed tree-sitter AST.
type astExtractor interface {
	Extract(root *tree_sitter.Node, source []byte) Structure
}

// TreeSitterExtractor implements Extractor with tree-sitter grammars for
// Python and JavaScript (parsed with the TSX grammar, which accepts plain
// JS, JSX and TypeScript). Languages without a grammar are handed to the
// fallback extractor. A new tree-sitter parser is created per Extract call.
type TreeSitterExtractor struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]astExtractor
	fallback   Extractor
}

// NewTreeSitterExtractor loads the grammars and verifies each one can be
// bound to a parser. Grammar loading crosses into C, so panics are
// converted into errors.
func NewTreeSitterExtractor() (ex *TreeSitterExtractor, err error) {
	defer func() {
		if r := recover(); r != nil {
			ex = nil
			err = fmt.Errorf("tree-sitter: grammar load panicked: %v", r)
		}
	}()

	langs := map[Language]*tree_sitter.Language{
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangJavaScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
	}

	probe := tree_sitter.NewParser()
	defer probe.Close()
	for lang, tsLang := range langs {
		if err := probe.SetLanguage(tsLang); err != nil {
			return nil, fmt.Errorf("tree-sitter: set language %s: %w", lang, err)
		}
	}

	return &TreeSitterExtractor{
		languages: langs,
		extractors: map[Language]astExtractor{
			LangPython:     &pyExtractor{},
			LangJavaScript: &jsExtractor{},
		},
		fallback: NewRegexExtractor(),
	}, nil
}

// Name identifies the extractor.
func (p *TreeSitterExtractor) Name() string { return "tree-sitter" }

// Extract parses source and collects its declarations.
func (p *TreeSitterExtractor) Extract(ctx context.Context, path string, source []byte, lang Language) (Structure, error) {
	tsLang, ok := p.languages[lang]
	if !ok {
		return p.fallback.Extract(ctx, path, source, lang)
	}

	ext, ok := p.extractors[lang]
	if !ok {
		return Structure{}, fmt.Errorf("tree-sitter: no extractor for language %s", lang)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return Structure{}, fmt.Errorf("tree-sitter: set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return Structure{}, fmt.Errorf("tree-sitter: nil tree for %s", path)
	}
	defer tree.Close()

	return ext.Extract(tree.RootNode(), source), nil
}

// nodeFact builds a fact spanning node, named by its "name" field.
func nodeFact(node *tree_sitter.Node, source []byte, kind FactKind) (Fact, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Fact{}, false
	}
	return Fact{
		Name:      nameNode.Utf8Text(source),
		Line:      int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Kind:      kind,
		Signature: firstLine(node.Utf8Text(source)),
	}, true
}

// lineFact records the source line a node starts on, used for imports.
func lineFact(node *tree_sitter.Node, source []byte) Fact {
	return Fact{
		Name: firstLine(node.Utf8Text(source)),
		Line: int(node.StartPosition().Row) + 1,
		Kind: FactImport,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "{"))
}
