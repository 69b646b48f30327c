package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Compile-time check.
var _ Extractor = (*RegexExtractor)(nil)

// RegexExtractor finds declarations with line-anchored patterns. It needs no
// native grammars and therefore always works.
type RegexExtractor struct{}

// NewRegexExtractor creates a RegexExtractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Name identifies the extractor.
func (e *RegexExtractor) Name() string { return "regex" }

var (
	pyClassRe    = regexp.MustCompile(`^\s*class\s+(\w+).*:`)
	pyFuncRe     = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\([^)]*\).*:`)
	pyImportRe   = regexp.MustCompile(`^\s*(?:import|from)\s+[\w.]+`)
	jsClassRe    = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`)
	jsFuncDeclRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`)
	jsFuncVarRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>|\w+\s*=>)`)
	jsPropFuncRe = regexp.MustCompile(`^\s*(\w+)\s*:\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*=>)`)
	jsMethodRe   = regexp.MustCompile(`^\s*(?:(?:static|async|public|private|protected|get|set)\s+)*(\w+)\s*\([^)]*\)\s*(?::\s*[\w<>\[\]|, ]+)?\s*\{`)
	jsImportRe   = regexp.MustCompile(`^\s*(?:import\b|(?:const|let|var)\s+.*=\s*require\s*\(|require\s*\()`)
	javaClassRe  = regexp.MustCompile(`^\s*(?:(?:public|private|protected|abstract|final|static|sealed)\s+)*(?:class|interface|enum|record)\s+(\w+)`)
	javaMethodRe = regexp.MustCompile(`^\s*((?:(?:public|private|protected|static|final|abstract|synchronized|native|default)\s+)*)([\w<>\[\],.?]+)\s+(\w+)\s*\([^;]*$`)
	javaImportRe = regexp.MustCompile(`^\s*import\s+`)
)

// Keywords that look like a method name or return type to the line patterns.
var notDeclarations = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "new": true, "else": true, "throw": true, "case": true,
	"function": true, "do": true, "try": true, "with": true,
}

// Extract returns the declarations found in source.
func (e *RegexExtractor) Extract(_ context.Context, path string, source []byte, lang Language) (Structure, error) {
	lines := strings.Split(string(source), "\n")
	switch lang {
	case LangPython:
		return extractPythonLines(lines), nil
	case LangJavaScript:
		return extractJSLines(lines), nil
	case LangJava:
		return extractJavaLines(lines), nil
	default:
		return Structure{}, fmt.Errorf("regex extractor: unsupported language %q for %s", lang, path)
	}
}

func extractPythonLines(lines []string) Structure {
	var st Structure
	for i, line := range lines {
		lineNo := i + 1
		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			st.Classes = append(st.Classes, Fact{
				Name:      m[1],
				Line:      lineNo,
				EndLine:   indentBlockEnd(lines, i),
				Kind:      FactClass,
				Signature: strings.TrimSpace(line),
				Docstring: pyDocstringAfter(lines, i),
			})
			continue
		}
		if m := pyFuncRe.FindStringSubmatch(line); m != nil {
			kind := FactFunction
			if indentOf(line) > 0 {
				kind = FactMethod
			}
			st.Functions = append(st.Functions, Fact{
				Name:      m[1],
				Line:      lineNo,
				EndLine:   indentBlockEnd(lines, i),
				Kind:      kind,
				Signature: strings.TrimSpace(line),
				Docstring: pyDocstringAfter(lines, i),
			})
			continue
		}
		if pyImportRe.MatchString(line) {
			st.Imports = append(st.Imports, importFact(line, lineNo))
		}
	}
	return st
}

func extractJSLines(lines []string) Structure {
	var st Structure
	depth := 0
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		switch {
		case jsImportRe.MatchString(line):
			st.Imports = append(st.Imports, importFact(line, lineNo))
		case jsClassRe.MatchString(line):
			m := jsClassRe.FindStringSubmatch(line)
			st.Classes = append(st.Classes, braceFact(lines, i, m[1], FactClass))
		default:
			if name := jsFunctionName(line, depth); name != "" {
				kind := FactFunction
				if depth > 0 && jsMethodRe.MatchString(line) {
					kind = FactMethod
				}
				st.Functions = append(st.Functions, braceFact(lines, i, name, kind))
			}
		}
		if !strings.HasPrefix(trimmed, "//") {
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth < 0 {
				depth = 0
			}
		}
	}
	return st
}

func jsFunctionName(line string, depth int) string {
	for _, re := range []*regexp.Regexp{jsFuncDeclRe, jsFuncVarRe, jsPropFuncRe} {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	// Bare "name(...) {" is only a method inside a class or object body.
	if depth > 0 {
		if m := jsMethodRe.FindStringSubmatch(line); m != nil && !notDeclarations[m[1]] {
			return m[1]
		}
	}
	return ""
}

func extractJavaLines(lines []string) Structure {
	var st Structure
	for i, line := range lines {
		lineNo := i + 1
		if javaImportRe.MatchString(line) {
			st.Imports = append(st.Imports, importFact(line, lineNo))
			continue
		}
		if m := javaClassRe.FindStringSubmatch(line); m != nil {
			st.Classes = append(st.Classes, braceFact(lines, i, m[1], FactClass))
			continue
		}
		if m := javaMethodRe.FindStringSubmatch(line); m != nil {
			if notDeclarations[m[2]] || notDeclarations[m[3]] {
				continue
			}
			st.Functions = append(st.Functions, braceFact(lines, i, m[3], FactMethod))
		}
	}
	return st
}

func importFact(line string, lineNo int) Fact {
	return Fact{Name: strings.TrimSpace(line), Line: lineNo, Kind: FactImport}
}

// braceFact builds a fact whose body is delimited by braces.
func braceFact(lines []string, idx int, name string, kind FactKind) Fact {
	return Fact{
		Name:      name,
		Line:      idx + 1,
		EndLine:   braceBlockEnd(lines, idx),
		Kind:      kind,
		Signature: strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(lines[idx]), "{")),
	}
}

// braceBlockEnd returns the 1-based line that closes the first brace opened
// at or after lines[idx], or 0 when the braces never balance.
func braceBlockEnd(lines []string, idx int) int {
	depth := 0
	opened := false
	for i := idx; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i + 1
		}
		// Declarations without a body on the following lines end at the semicolon.
		if !opened && strings.HasSuffix(strings.TrimSpace(lines[i]), ";") {
			return i + 1
		}
	}
	return 0
}

// indentBlockEnd returns the 1-based last line of the indented block that
// starts at lines[idx].
func indentBlockEnd(lines []string, idx int) int {
	base := indentOf(lines[idx])
	end := idx
	for i := idx + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if indentOf(lines[i]) <= base {
			break
		}
		end = i
	}
	return end + 1
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// pyDocstringAfter returns the first line of a docstring that directly
// follows the definition at lines[idx].
func pyDocstringAfter(lines []string, idx int) string {
	for i := idx + 1; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			continue
		}
		for _, q := range []string{`"""`, `'''`} {
			if strings.HasPrefix(t, q) {
				return strings.TrimSpace(strings.Trim(t, `"'`))
			}
		}
		return ""
	}
	return ""
}
