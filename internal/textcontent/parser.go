package textcontent

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var commentPattern = regexp.MustCompile(`<!--[\s\S]*?-->`)

// Recorder receives parser and fetcher events for metrics.
type Recorder interface {
	RecordParseWarning()
	RecordFetchFallback(reason string)
}

type noopRecorder struct{}

func (noopRecorder) RecordParseWarning()        {}
func (noopRecorder) RecordFetchFallback(string) {}

// Option customises a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for per-line warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(p *Parser) {
		if rec != nil {
			p.recorder = rec
		}
	}
}

// Parser converts documents to TextContent. The zero value is not usable; use
// NewParser or the package level Parse.
type Parser struct {
	logger   *zap.Logger
	recorder Recorder
}

// NewParser builds a parser with the provided options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		logger:   zap.NewNop(),
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse converts doc using a parser without logging.
func Parse(doc string) TextContent {
	return defaultParser.Parse(doc)
}

// Parse converts doc into a fully shaped record. It never fails: lines that
// cannot be applied are logged and skipped, and an unexpected failure of the
// whole pass yields Empty().
func (p *Parser) Parse(doc string) (result TextContent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("textcontent: parse failed", zap.Any("panic", r))
			result = Empty()
		}
	}()

	result = Empty()
	cleaned, _ := stripComments(doc)
	var section string
	for _, raw := range strings.Split(cleaned, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if next, ok := headingSection(line); ok {
			section = next
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		if err := p.apply(&result, section, key, value); err != nil {
			p.recorder.RecordParseWarning()
			p.logger.Warn("textcontent: skipping line", zap.String("line", line), zap.Error(err))
		}
	}
	return result
}

func (p *Parser) apply(dst *TextContent, section, key, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("apply %s.%s: %v", section, key, r)
		}
	}()

	def, ok := lookupSection(section)
	if !ok {
		return nil
	}
	field := def.rule.resolve(section, key)
	if ref := def.field(field); ref != nil {
		*ref(dst) = value
		return nil
	}
	dst.setExtra(section, field, value)
	return nil
}

// headingSection reports whether line is a "# " heading and returns the
// section it selects.
func headingSection(line string) (string, bool) {
	if !strings.HasPrefix(line, "# ") {
		return "", false
	}
	return sectionName(line[2:]), true
}

func splitKeyValue(line string) (string, string, bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

// stripComments removes comment blocks and returns, for each line of the
// cleaned text, the 1-based line of doc it starts on.
func stripComments(doc string) (string, []int) {
	matches := commentPattern.FindAllStringIndex(doc, -1)
	var b strings.Builder
	b.Grow(len(doc))
	origins := []int{1}
	line := 1
	copySegment := func(seg string) {
		b.WriteString(seg)
		for i := 0; i < len(seg); i++ {
			if seg[i] == '\n' {
				line++
				origins = append(origins, line)
			}
		}
	}
	prev := 0
	for _, m := range matches {
		copySegment(doc[prev:m[0]])
		line += strings.Count(doc[m[0]:m[1]], "\n")
		prev = m[1]
	}
	copySegment(doc[prev:])
	return b.String(), origins
}
