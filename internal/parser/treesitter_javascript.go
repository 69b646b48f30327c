package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// jsExtractor collects facts from JavaScript and TypeScript syntax trees.
type jsExtractor struct{}

func (e *jsExtractor) Extract(root *tree_sitter.Node, source []byte) Structure {
	var st Structure

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &st)
	return st
}

func (e *jsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, st *Structure) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		if fact, ok := nodeFact(node, source, FactFunction); ok {
			st.Functions = append(st.Functions, fact)
		}

	case "method_definition":
		if fact, ok := nodeFact(node, source, FactMethod); ok {
			st.Functions = append(st.Functions, fact)
		}

	case "class_declaration", "abstract_class_declaration":
		if fact, ok := nodeFact(node, source, FactClass); ok {
			st.Classes = append(st.Classes, fact)
		}

	case "variable_declarator":
		if fact, ok := e.functionValue(node, source); ok {
			st.Functions = append(st.Functions, fact)
		}

	case "import_statement":
		st.Imports = append(st.Imports, lineFact(node, source))

	case "call_expression":
		if isRequireCall(node, source) {
			st.Imports = append(st.Imports, lineFact(node, source))
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, st)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, st)
		}
		cursor.GotoParent()
	}
}

// functionValue handles "const foo = () => {...}" and "const foo = function() {...}".
func (e *jsExtractor) functionValue(node *tree_sitter.Node, source []byte) (Fact, bool) {
	value := node.ChildByFieldName("value")
	if value == nil {
		return Fact{}, false
	}
	switch value.Kind() {
	case "arrow_function", "function_expression", "function":
	default:
		return Fact{}, false
	}
	fact, ok := nodeFact(node, source, FactFunction)
	if !ok {
		return Fact{}, false
	}
	fact.EndLine = int(value.EndPosition().Row) + 1
	return fact, true
}

func isRequireCall(node *tree_sitter.Node, source []byte) bool {
	fn := node.ChildByFieldName("function")
	return fn != nil && fn.Kind() == "identifier" && fn.Utf8Text(source) == "require"
}
