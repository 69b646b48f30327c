package parser

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Language identifies the source language of a record.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangUnknown    Language = "unknown"
)

// SupportedLanguages are the languages the normalizer extracts structure for.
var SupportedLanguages = []Language{LangPython, LangJavaScript, LangJava}

var extToLanguage = map[string]Language{
	".py":   LangPython,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".ts":   LangJavaScript,
	".tsx":  LangJavaScript,
	".java": LangJava,
}

// LanguageForPath maps a file extension to its Language.
func LanguageForPath(path string) Language {
	if lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// FactKind is the kind of structural fact.
type FactKind string

const (
	FactClass    FactKind = "class"
	FactFunction FactKind = "function"
	FactMethod   FactKind = "method"
	FactImport   FactKind = "import"
)

// Fact is a lightweight structural fact about a source file.
type Fact struct {
	Name      string   `json:"name"`
	Line      int      `json:"line"`
	EndLine   int      `json:"end_line,omitempty"` // 0 when the extractor cannot tell
	Kind      FactKind `json:"type"`
	Signature string   `json:"signature,omitempty"`
	Docstring string   `json:"docstring,omitempty"`
}

// Span returns the number of lines the fact covers, or 0 when unknown.
func (f Fact) Span() int {
	if f.EndLine < f.Line || f.EndLine == 0 {
		return 0
	}
	return f.EndLine - f.Line + 1
}

// Structure is what an extractor pulls out of one file.
type Structure struct {
	Classes   []Fact
	Functions []Fact
	Imports   []Fact
}

// Record is the normalized form of a single source file. Records are built
// once by NewRecord and not mutated afterwards.
type Record struct {
	Path      string   `json:"path"`
	Language  Language `json:"language"`
	Content   string   `json:"content"`
	Lines     int      `json:"lines"`
	Chars     int      `json:"chars"`
	Classes   []Fact   `json:"classes"`
	Functions []Fact   `json:"functions"`
	Imports   []Fact   `json:"imports"`
	Parsed    bool     `json:"parsed"`
	Error     string   `json:"error,omitempty"`
}

// NewRecord builds a Record and derives its counts. A non-nil err or empty
// content produces an unparsed record; Parsed is true only when err is nil
// and content is non-empty.
func NewRecord(path string, lang Language, content string, st Structure, err error) Record {
	rec := Record{
		Path:      path,
		Language:  lang,
		Content:   content,
		Classes:   nonNil(st.Classes),
		Functions: nonNil(st.Functions),
		Imports:   nonNil(st.Imports),
	}
	if content != "" {
		rec.Lines = len(strings.Split(content, "\n"))
		rec.Chars = utf8.RuneCountInString(content)
	}

	switch {
	case err != nil:
		rec.Error = err.Error()
		if rec.Error == "" {
			rec.Error = "parse failed"
		}
	case content == "":
		rec.Error = "empty file"
	default:
		rec.Parsed = true
	}
	return rec
}

// FailedRecord builds an unparsed record carrying only a path and an error.
func FailedRecord(path string, lang Language, err error) Record {
	return NewRecord(path, lang, "", Structure{}, err)
}

// HasStructure reports whether the record declares at least one function or class.
func (r Record) HasStructure() bool {
	return len(r.Functions) > 0 || len(r.Classes) > 0
}

// Stem returns the file name without directory and extension.
func (r Record) Stem() string {
	base := filepath.Base(r.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func nonNil(f []Fact) []Fact {
	if f == nil {
		return []Fact{}
	}
	return f
}

// Set maps file paths to their records.
type Set map[string]Record

// Add stores rec under its path.
func (s Set) Add(rec Record) {
	s[rec.Path] = rec
}

// Paths returns all keys in sorted order.
func (s Set) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Records returns every record ordered by path.
func (s Set) Records() []Record {
	out := make([]Record, 0, len(s))
	for _, p := range s.Paths() {
		out = append(out, s[p])
	}
	return out
}

// Parsed returns the successfully parsed records ordered by path.
func (s Set) Parsed() []Record {
	out := make([]Record, 0, len(s))
	for _, p := range s.Paths() {
		if rec := s[p]; rec.Parsed {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records, parsed or not.
func (s Set) Len() int { return len(s) }
