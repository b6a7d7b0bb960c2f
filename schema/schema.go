// Package schema defines the shared record types flowing through the
// extraction pipeline: the lossless raw view of a scraped page, the
// taxonomy-mapped canonical project, and preview artifact records.
//
// Raw records are immutable once constructed. The canonical project is
// built once by the mapper and only its presentation fields are touched
// afterwards (by the quality layer, which works on copies).
package schema

// ValueType classifies an extracted field value.
type ValueType string

const (
	ValueText    ValueType = "TEXT"
	ValueNumber  ValueType = "NUMBER"
	ValueDate    ValueType = "DATE"
	ValueURL     ValueType = "URL"
	ValueUnknown ValueType = "UNKNOWN"
)

// FieldRecord is one label/value pair recovered from the page.
// Value is empty when the label had no resolvable value (whitespace-only
// values normalize to absent). Links holds every href found under the
// value node, de-duplicated in document order.
type FieldRecord struct {
	Label          string    `json:"label"`
	Value          string    `json:"value,omitempty"`
	ValueType      ValueType `json:"value_type"`
	Links          []string  `json:"links,omitempty"`
	PreviewPresent bool      `json:"preview_present,omitempty"`
	PreviewHint    string    `json:"preview_hint,omitempty"`
}

// SectionRecord groups the fields found under one page heading, in
// document order. Title is the heading text as found; fields with no
// preceding heading land in the sentinel section "General".
type SectionRecord struct {
	Title  string        `json:"title"`
	Fields []FieldRecord `json:"fields"`
}

// GeneralSection is the sentinel title for fields with no preceding heading.
const GeneralSection = "General"

// RawExtractedProject is the complete, lossless view of one page.
// SourceFile is a logical run key, not necessarily a filesystem path.
type RawExtractedProject struct {
	SourceFile string          `json:"source_file"`
	Sections   []SectionRecord `json:"sections"`
}

// FieldCount returns the total number of fields across all sections.
func (r *RawExtractedProject) FieldCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Fields)
	}
	return n
}
