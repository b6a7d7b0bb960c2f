// Package mapper turns the raw section/field dump into the typed
// canonical project record.
//
// Mapping is total and lossless: a section or label either matches the
// taxonomy or its content goes verbatim into the unmapped side-channel.
// No field is ever dropped and nothing in here returns an error for
// per-field problems — a malformed number on a page with hundreds of
// usable fields degrades to an absent value.
package mapper

import (
	"fmt"
	"log/slog"

	"github.com/openrera/rerapipe/schema"
	"github.com/openrera/rerapipe/taxonomy"
)

// Hints carry values scraped from the upstream listing page. They are
// constructor defaults only: a hint never overrides a value actually
// present in the page HTML.
type Hints struct {
	RegistrationNumber string
	ProjectName        string
}

// Config configures the mapper.
type Config struct {
	Taxonomy *taxonomy.Taxonomy
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Mapper maps raw extractions against one immutable taxonomy version.
type Mapper struct {
	tax    *taxonomy.Taxonomy
	logger *slog.Logger
}

// New creates a Mapper. The taxonomy is required; it is the only
// process-start resource whose absence is fatal.
func New(cfg Config) (*Mapper, error) {
	cfg.defaults()
	if cfg.Taxonomy == nil {
		return nil, fmt.Errorf("mapper: %w", taxonomy.ErrResource)
	}
	return &Mapper{tax: cfg.Taxonomy, logger: cfg.Logger}, nil
}

// logical sections that accumulate one typed entry per section occurrence.
const (
	secProject   = "project_details"
	secPromoter  = "promoter_details"
	secLand      = "land_details"
	secBuilding  = "building_details"
	secUnitType  = "unit_types"
	secBank      = "bank_details"
	secDocuments = "documents"
	secQuarterly = "quarterly_updates"
)

// Map builds the canonical project. It always succeeds.
func (m *Mapper) Map(raw *schema.RawExtractedProject, hints Hints) *schema.CanonicalProject {
	p := &schema.CanonicalProject{
		SourceFile: raw.SourceFile,
		RawData: schema.RawData{
			Sections:         make(map[string]map[string]string),
			UnmappedSections: make(map[string]map[string]string),
		},
		Previews: make(map[string]schema.PreviewArtifact),
	}

	for _, sec := range raw.Sections {
		logical, ok := m.tax.Section(sec.Title)
		if !ok {
			m.mapUnmatchedSection(p, sec)
			continue
		}
		occ := m.mapMatchedSection(p, logical, sec)
		m.accumulate(p, logical, sec, occ)
	}

	m.populateDetails(p, hints)

	if len(p.RawData.UnmappedSections) == 0 {
		p.RawData.UnmappedSections = nil
	}
	return p
}

// mapMatchedSection writes one section occurrence into RawData.Sections
// and returns the occurrence's own key/value view (used for multi-entry
// accumulation). Fields whose label has no taxonomy match fall through
// to the unmapped side-channel under the raw section title, preserving
// page fidelity for QA diffing.
func (m *Mapper) mapMatchedSection(p *schema.CanonicalProject, logical string, sec schema.SectionRecord) map[string]string {
	dst := p.RawData.Sections[logical]
	if dst == nil {
		dst = make(map[string]string)
		p.RawData.Sections[logical] = dst
	}

	occ := make(map[string]string)
	for _, f := range sec.Fields {
		key, ok := m.tax.Key(logical, f.Label)
		if !ok {
			m.toUnmapped(p, sec.Title, f)
			continue
		}
		occ[key] = f.Value

		// First occurrence wins in the flat view; a later duplicate with
		// a different value is preserved verbatim in the side-channel so
		// the completeness invariant holds.
		if prev, exists := dst[key]; exists {
			if prev != f.Value {
				m.toUnmapped(p, sec.Title, f)
			}
		} else {
			dst[key] = f.Value
		}

		if f.PreviewPresent {
			m.addPlaceholder(p, key, f.PreviewHint)
		}
	}
	return occ
}

// mapUnmatchedSection routes an entire unmatched section into the
// side-channel. Preview triggers are still captured — keyed by the
// normalized label — so unmapped sections get their artifacts resolved.
func (m *Mapper) mapUnmatchedSection(p *schema.CanonicalProject, sec schema.SectionRecord) {
	m.logger.Debug("mapper: unmatched section", "title", sec.Title, "fields", len(sec.Fields))
	for _, f := range sec.Fields {
		m.toUnmapped(p, sec.Title, f)
	}
}

func (m *Mapper) toUnmapped(p *schema.CanonicalProject, rawTitle string, f schema.FieldRecord) {
	dst := p.RawData.UnmappedSections[rawTitle]
	if dst == nil {
		dst = make(map[string]string)
		p.RawData.UnmappedSections[rawTitle] = dst
	}

	label := f.Label
	if _, taken := dst[label]; taken {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s #%d", f.Label, n)
			if _, taken := dst[candidate]; !taken {
				label = candidate
				break
			}
		}
	}
	dst[label] = f.Value

	if f.PreviewPresent {
		m.addPlaceholder(p, m.tax.NormalizeKey(f.Label), f.PreviewHint)
	}
}

func (m *Mapper) addPlaceholder(p *schema.CanonicalProject, key, hint string) {
	if _, taken := p.Previews[key]; taken {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s_%d", key, n)
			if _, taken := p.Previews[candidate]; !taken {
				key = candidate
				break
			}
		}
	}
	p.Previews[key] = schema.NewPlaceholder(key, hint)
}
