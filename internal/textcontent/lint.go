package textcontent

import (
	"fmt"
	"strings"
)

// Reason classifies a lint finding.
type Reason string

const (
	ReasonMissingColon   Reason = "missing_colon"
	ReasonEmptyKey       Reason = "empty_key"
	ReasonEmptyValue     Reason = "empty_value"
	ReasonNoSection      Reason = "no_section"
	ReasonUnknownSection Reason = "unknown_section"
	ReasonUnknownField   Reason = "unknown_field"
	ReasonPrefixMissing  Reason = "prefix_missing"
	ReasonOverridden     Reason = "overridden"
	ReasonIgnoredHeading Reason = "ignored_heading"
)

// Diagnostic describes a line the parser skips or applies in a surprising way.
// Line numbers refer to the document as written, comments included.
type Diagnostic struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Section string `json:"section,omitempty"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s (%s)", d.Line, d.Message, d.Reason)
}

// Lint walks doc with the same rules as Parse and reports findings in document
// order.
func Lint(doc string) []Diagnostic {
	cleaned, origins := stripComments(doc)
	var (
		out     []Diagnostic
		section string
		known   bool
		seen    = make(map[string]int)
	)
	report := func(idx int, line string, reason Reason, format string, args ...any) {
		out = append(out, Diagnostic{
			Line:    origins[idx],
			Text:    line,
			Section: section,
			Reason:  reason,
			Message: fmt.Sprintf(format, args...),
		})
	}

	for idx, raw := range strings.Split(cleaned, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if next, ok := headingSection(line); ok {
			section = next
			_, known = lookupSection(section)
			if !known {
				report(idx, line, ReasonUnknownSection, "section %q is not part of the schema; its lines are ignored", section)
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			report(idx, line, ReasonIgnoredHeading, "heading needs a single space after '#'")
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			report(idx, line, ReasonMissingColon, "line has no ':' separator")
			continue
		}
		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		switch {
		case key == "":
			report(idx, line, ReasonEmptyKey, "key is empty")
			continue
		case value == "":
			report(idx, line, ReasonEmptyValue, "value for %q is empty", key)
			continue
		}

		if section == "" {
			report(idx, line, ReasonNoSection, "%q appears before any section heading", key)
			continue
		}
		if !known {
			continue
		}

		def, _ := lookupSection(section)
		field := def.rule.resolve(section, key)
		if def.rule.name == rulePrefixStrip.name && !strings.HasPrefix(key, section+"_") {
			report(idx, line, ReasonPrefixMissing, "key %q lacks the %q prefix", key, section+"_")
		}
		if def.field(field) == nil {
			report(idx, line, ReasonUnknownField, "field %q is not defined for section %q", field, section)
		}
		target := section + "." + field
		if first, ok := seen[target]; ok {
			report(idx, line, ReasonOverridden, "%s overrides the value from line %d", target, first)
		}
		seen[target] = origins[idx]
	}
	return out
}
