package textcontent

import "strings"

// fieldRule maps a document key to the destination field name within a section.
type fieldRule struct {
	name    string
	resolve func(section, key string) string
}

var (
	ruleFirstSegment = fieldRule{name: "first-segment", resolve: firstSegment}
	rulePrefixStrip  = fieldRule{name: "prefix-strip", resolve: stripSectionPrefix}
)

// firstSegment keeps the part of the key before the first underscore.
func firstSegment(_ string, key string) string {
	if idx := strings.IndexByte(key, '_'); idx >= 0 {
		return key[:idx]
	}
	return key
}

// stripSectionPrefix removes the first occurrence of "<section>_". Keys without
// the prefix are used unchanged.
func stripSectionPrefix(section, key string) string {
	return strings.Replace(key, section+"_", "", 1)
}

type fieldSpec struct {
	name string
	ref  func(*TextContent) *string
}

type sectionSpec struct {
	name    string
	heading string
	rule    fieldRule
	fields  []fieldSpec
}

func (s *sectionSpec) field(name string) func(*TextContent) *string {
	for _, f := range s.fields {
		if f.name == name {
			return f.ref
		}
	}
	return nil
}

// schema is the dispatch table driving both parsing and rendering. Adding a
// section means adding an entry here.
var schema = []sectionSpec{
	{
		name: "header", heading: "Header", rule: ruleFirstSegment,
		fields: []fieldSpec{
			{"logo", func(c *TextContent) *string { return &c.Header.Logo }},
			{"home", func(c *TextContent) *string { return &c.Header.Home }},
			{"products", func(c *TextContent) *string { return &c.Header.Products }},
		},
	},
	{
		name: "hero", heading: "Hero", rule: rulePrefixStrip,
		fields: []fieldSpec{
			{"title", func(c *TextContent) *string { return &c.Hero.Title }},
			{"subtitle", func(c *TextContent) *string { return &c.Hero.Subtitle }},
			{"ctaCatalog", func(c *TextContent) *string { return &c.Hero.CTACatalog }},
			{"ctaWorkshop", func(c *TextContent) *string { return &c.Hero.CTAWorkshop }},
		},
	},
	{
		name: "workshop", heading: "Workshop", rule: rulePrefixStrip,
		fields: []fieldSpec{
			{"title", func(c *TextContent) *string { return &c.Workshop.Title }},
			{"qualityTitle", func(c *TextContent) *string { return &c.Workshop.QualityTitle }},
			{"qualityContent", func(c *TextContent) *string { return &c.Workshop.QualityContent }},
			{"priceTitle", func(c *TextContent) *string { return &c.Workshop.PriceTitle }},
			{"priceContent", func(c *TextContent) *string { return &c.Workshop.PriceContent }},
		},
	},
	{
		name: "natural", heading: "Natural", rule: rulePrefixStrip,
		fields: []fieldSpec{
			{"title", func(c *TextContent) *string { return &c.Natural.Title }},
			{"subtitle", func(c *TextContent) *string { return &c.Natural.Subtitle }},
			{"content", func(c *TextContent) *string { return &c.Natural.Content }},
		},
	},
	{
		name: "testimonial", heading: "Testimonial", rule: rulePrefixStrip,
		fields: []fieldSpec{
			{"content", func(c *TextContent) *string { return &c.Testimonial.Content }},
			{"author", func(c *TextContent) *string { return &c.Testimonial.Author }},
		},
	},
	{
		name: "about", heading: "About", rule: ruleFirstSegment,
		fields: []fieldSpec{
			{"title", func(c *TextContent) *string { return &c.About.Title }},
			{"content", func(c *TextContent) *string { return &c.About.Content }},
		},
	},
	{
		name: "products", heading: "Products", rule: ruleFirstSegment,
		fields: []fieldSpec{
			{"title", func(c *TextContent) *string { return &c.Products.Title }},
			{"content", func(c *TextContent) *string { return &c.Products.Content }},
		},
	},
	{
		name: "contact", heading: "Contact", rule: ruleFirstSegment,
		fields: []fieldSpec{
			{"title", func(c *TextContent) *string { return &c.Contact.Title }},
			{"content", func(c *TextContent) *string { return &c.Contact.Content }},
		},
	},
	{
		name: contactInfoSection, heading: "Contact Information", rule: ruleFirstSegment,
		fields: []fieldSpec{
			{"phone", func(c *TextContent) *string { return &c.ContactInfo.Phone }},
			{"email", func(c *TextContent) *string { return &c.ContactInfo.Email }},
			{"address", func(c *TextContent) *string { return &c.ContactInfo.Address }},
			{"hours", func(c *TextContent) *string { return &c.ContactInfo.Hours }},
		},
	},
	{
		name: "cta", heading: "CTA", rule: ruleFirstSegment,
		fields: []fieldSpec{
			{"text", func(c *TextContent) *string { return &c.CTA.Text }},
			{"phone", func(c *TextContent) *string { return &c.CTA.Phone }},
		},
	},
	{
		name: "footer", heading: "Footer", rule: rulePrefixStrip,
		fields: []fieldSpec{
			{"aboutTitle", func(c *TextContent) *string { return &c.Footer.AboutTitle }},
			{"aboutContent", func(c *TextContent) *string { return &c.Footer.AboutContent }},
			{"contactTitle", func(c *TextContent) *string { return &c.Footer.ContactTitle }},
			{"contactContent", func(c *TextContent) *string { return &c.Footer.ContactContent }},
			{"quickLinksTitle", func(c *TextContent) *string { return &c.Footer.QuickLinksTitle }},
			{"rights", func(c *TextContent) *string { return &c.Footer.Rights }},
		},
	},
}

const (
	contactInfoSection = "contactInfo"
	contactInfoHeading = "contact information"
)

var sectionIndex = indexSchema(schema)

func indexSchema(sections []sectionSpec) map[string]*sectionSpec {
	index := make(map[string]*sectionSpec, len(sections))
	for i := range sections {
		index[sections[i].name] = &sections[i]
	}
	return index
}

func lookupSection(name string) (*sectionSpec, bool) {
	def, ok := sectionIndex[name]
	return def, ok
}

// Sections lists the section names in document order.
func Sections() []string {
	out := make([]string, 0, len(schema))
	for _, s := range schema {
		out = append(out, s.name)
	}
	return out
}

// sectionName converts a heading line body ("Contact Information Section") to
// its section key.
func sectionName(heading string) string {
	name := strings.Replace(strings.ToLower(heading), " section", "", 1)
	if name == contactInfoHeading {
		return contactInfoSection
	}
	return name
}
