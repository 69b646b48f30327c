package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor collects facts from Python syntax trees.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) Structure {
	var st Structure

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &st)
	return st
}

func (e *pyExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, st *Structure) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_definition":
		kind := FactFunction
		if isPyMethod(node) {
			kind = FactMethod
		}
		if fact, ok := nodeFact(node, source, kind); ok {
			fact.Docstring = pyDocstring(node, source)
			st.Functions = append(st.Functions, fact)
		}

	case "class_definition":
		if fact, ok := nodeFact(node, source, FactClass); ok {
			fact.Docstring = pyDocstring(node, source)
			st.Classes = append(st.Classes, fact)
		}

	case "import_statement", "import_from_statement", "future_import_statement":
		st.Imports = append(st.Imports, lineFact(node, source))
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, st)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, st)
		}
		cursor.GotoParent()
	}
}

// isPyMethod reports whether a function_definition sits directly in a class
// body, possibly behind decorators.
func isPyMethod(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent != nil && parent.Kind() == "decorated_definition" {
		parent = parent.Parent()
	}
	if parent == nil || parent.Kind() != "block" {
		return false
	}
	owner := parent.Parent()
	return owner != nil && owner.Kind() == "class_definition"
}

// pyDocstring returns the first line of the string literal that opens the
// body of a function or class, if any.
func pyDocstring(node *tree_sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	text := strings.Trim(str.Utf8Text(source), "\"'")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
