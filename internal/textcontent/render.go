package textcontent

import (
	"sort"
	"strings"
)

// Render writes c back in document form. Empty fields are omitted and
// Parse(Render(c)) reproduces c for single-line values.
func Render(c TextContent) string {
	var b strings.Builder
	for _, section := range schema {
		lines := renderSection(&c, &section)
		if len(lines) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("# ")
		b.WriteString(section.heading)
		b.WriteByte('\n')
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderSection(c *TextContent, section *sectionSpec) []string {
	var lines []string
	for _, f := range section.fields {
		if value := singleLine(*f.ref(c)); value != "" {
			lines = append(lines, documentKey(section, f.name)+": "+value)
		}
	}
	extra := c.Extra[section.name]
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if value := singleLine(extra[name]); value != "" {
			lines = append(lines, documentKey(section, name)+": "+value)
		}
	}
	return lines
}

func documentKey(section *sectionSpec, field string) string {
	if section.rule.name == rulePrefixStrip.name {
		return section.name + "_" + field
	}
	return field
}

func singleLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
