// Package textcontent turns the site copy document (text-content.txt) into the
// typed record rendered by the storefront pages.
package textcontent

// DocumentPath is the path the storefront serves the raw document under.
const DocumentPath = "/data/text-content.txt"

// TextContent holds every piece of page copy. Fields the document does not set
// stay empty and the display site supplies its own fallback.
type TextContent struct {
	Header      Header      `json:"header"`
	Hero        Hero        `json:"hero"`
	Workshop    Workshop    `json:"workshop"`
	Natural     Natural     `json:"natural"`
	Testimonial Testimonial `json:"testimonial"`
	About       Block       `json:"about"`
	Products    Block       `json:"products"`
	Contact     Block       `json:"contact"`
	ContactInfo ContactInfo `json:"contactInfo"`
	CTA         CTA         `json:"cta"`
	Footer      Footer      `json:"footer"`

	// Extra records writes to field names outside the schema, keyed by section
	// then field. Page rendering never reads it.
	Extra map[string]map[string]string `json:"extra,omitempty"`
}

// Header is the navigation bar copy.
type Header struct {
	Logo     string `json:"logo"`
	Home     string `json:"home"`
	Products string `json:"products"`
}

// Hero is the landing banner copy.
type Hero struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	CTACatalog  string `json:"ctaCatalog"`
	CTAWorkshop string `json:"ctaWorkshop"`
}

type Workshop struct {
	Title          string `json:"title"`
	QualityTitle   string `json:"qualityTitle"`
	QualityContent string `json:"qualityContent"`
	PriceTitle     string `json:"priceTitle"`
	PriceContent   string `json:"priceContent"`
}

type Natural struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
}

type Testimonial struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Block is a titled paragraph shared by the about, products and contact sections.
type Block struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ContactInfo struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
}

type CTA struct {
	Text  string `json:"text"`
	Phone string `json:"phone"`
}

type Footer struct {
	AboutTitle      string `json:"aboutTitle"`
	AboutContent    string `json:"aboutContent"`
	ContactTitle    string `json:"contactTitle"`
	ContactContent  string `json:"contactContent"`
	QuickLinksTitle string `json:"quickLinksTitle"`
	Rights          string `json:"rights"`
}

// Empty returns a record with every field set to the empty string.
func Empty() TextContent {
	return TextContent{}
}

// IsEmpty reports whether no known field carries a value.
func (c TextContent) IsEmpty() bool {
	for _, section := range schema {
		for _, f := range section.fields {
			if *f.ref(&c) != "" {
				return false
			}
		}
	}
	return true
}

// Field returns the value stored for section/field, including tolerated extra
// fields. The boolean is false when nothing was recorded.
func (c TextContent) Field(section, field string) (string, bool) {
	def, ok := lookupSection(section)
	if !ok {
		return "", false
	}
	if ref := def.field(field); ref != nil {
		v := *ref(&c)
		return v, v != ""
	}
	v, ok := c.Extra[section][field]
	return v, ok
}

func (c *TextContent) setExtra(section, field, value string) {
	if c.Extra == nil {
		c.Extra = make(map[string]map[string]string)
	}
	if c.Extra[section] == nil {
		c.Extra[section] = make(map[string]string)
	}
	c.Extra[section][field] = value
}

// Or returns value when it is non-empty and fallback otherwise.
func Or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// WithFallback returns a copy of c where every empty known field takes the
// value from fallback. Extra fields are kept from c only.
func (c TextContent) WithFallback(fallback TextContent) TextContent {
	out := c
	for _, section := range schema {
		for _, f := range section.fields {
			dst := f.ref(&out)
			if *dst == "" {
				*dst = *f.ref(&fallback)
			}
		}
	}
	return out
}
