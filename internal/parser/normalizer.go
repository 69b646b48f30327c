package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrUnsupported is recorded for files whose extension maps to no language.
var ErrUnsupported = errors.New("unsupported file type")

// Extractor pulls structural facts out of one source file.
// Implementations: TreeSitterExtractor (AST based), RegexExtractor (line patterns).
type Extractor interface {
	// Extract returns the classes, functions and imports declared in source.
	Extract(ctx context.Context, path string, source []byte, lang Language) (Structure, error)

	// Name identifies the extractor in logs and summaries.
	Name() string
}

// Normalizer turns files on disk into Records using an Extractor.
type Normalizer struct {
	extractor Extractor
	logger    *zap.Logger
}

// NewNormalizer creates a Normalizer. A nil logger is replaced with a no-op logger.
func NewNormalizer(extractor Extractor, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{extractor: extractor, logger: logger}
}

// Parse reads and normalizes a single file. Failures are recorded in the
// returned record rather than returned as errors.
func (n *Normalizer) Parse(ctx context.Context, path string) Record {
	lang := LanguageForPath(path)
	if lang == LangUnknown {
		return FailedRecord(path, lang, ErrUnsupported)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FailedRecord(path, lang, fmt.Errorf("read %s: %w", path, err))
	}
	if !utf8.Valid(data) {
		return FailedRecord(path, lang, fmt.Errorf("decode %s: invalid UTF-8 content", path))
	}

	content := string(data)
	if content == "" {
		return NewRecord(path, lang, content, Structure{}, nil)
	}

	st, err := n.extract(ctx, path, data, lang)
	if err != nil {
		n.logger.Debug("parser: extraction failed",
			zap.String("path", path),
			zap.String("extractor", n.extractor.Name()),
			zap.Error(err))
		return NewRecord(path, lang, content, Structure{}, err)
	}
	return NewRecord(path, lang, content, st, nil)
}

// ParseAll normalizes paths one after another. One file's failure never
// stops the batch. Once ctx is cancelled the remaining files are recorded
// as cancelled.
func (n *Normalizer) ParseAll(ctx context.Context, paths []string) Set {
	set := make(Set, len(paths))
	for _, p := range paths {
		if ctx.Err() != nil {
			set.Add(FailedRecord(p, LanguageForPath(p), errors.New("cancelled")))
			continue
		}
		set.Add(n.Parse(ctx, p))
	}
	return set
}

// extract shields the caller from panics raised inside an extractor.
func (n *Normalizer) extract(ctx context.Context, path string, data []byte, lang Language) (st Structure, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract %s: panic: %v", path, r)
		}
	}()
	return n.extractor.Extract(ctx, path, data, lang)
}
