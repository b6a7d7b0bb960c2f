// Package taxonomy loads the static mapping from page wording to the
// canonical schema: section-title variants to logical section names, and
// per-section field-label variants to canonical keys.
//
// The resource is external, versioned configuration (the registry
// periodically re-words its forms), loaded once at process start into an
// immutable Taxonomy value passed by reference into the mapper. Matching
// happens on normalized keys so variants differing only by punctuation,
// case, or whitespace collapse to one canonical form.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ErrResource is returned when the taxonomy resource cannot be loaded.
// This is a fatal, process-start condition.
var ErrResource = errors.New("taxonomy: resource load failed")

// KeyNormalizer collapses label/title variants onto a matching key.
// Isolated behind an interface so the matching strategy can change
// without touching callers.
type KeyNormalizer interface {
	NormalizeKey(s string) string
}

// charClassNormalizer lowercases and strips non-alphanumeric runes.
type charClassNormalizer struct{}

func (charClassNormalizer) NormalizeKey(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// file format

type resource struct {
	Version  string        `yaml:"version"`
	Sections []sectionSpec `yaml:"sections"`
}

type sectionSpec struct {
	Name          string              `yaml:"name"`
	TitleVariants []string            `yaml:"title_variants"`
	Fields        map[string][]string `yaml:"fields"`
}

// Taxonomy is the immutable lookup resource. Safe for concurrent use.
type Taxonomy struct {
	version  string
	sections map[string]string            // normalized title variant -> logical name
	fields   map[string]map[string]string // logical name -> normalized label variant -> canonical key
	norm     KeyNormalizer
}

//go:embed cg_rera.yaml
var defaultResource []byte

// Default returns the taxonomy bundled with the binary, for QA tooling
// and tests. Production runs load their versioned resource with LoadFile.
func Default() *Taxonomy {
	t, err := Load(defaultResource)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded resource invalid: %v", err))
	}
	return t
}

// LoadFile reads a YAML taxonomy resource from disk.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	return Load(data)
}

// Load parses a YAML taxonomy resource.
func Load(data []byte) (*Taxonomy, error) {
	var res resource
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	if len(res.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections defined", ErrResource)
	}

	t := &Taxonomy{
		version:  res.Version,
		sections: make(map[string]string),
		fields:   make(map[string]map[string]string),
		norm:     charClassNormalizer{},
	}

	for _, s := range res.Sections {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: section with empty name", ErrResource)
		}
		keys := make(map[string]string)
		t.fields[s.Name] = keys

		// The logical name itself always matches its own section.
		t.sections[t.norm.NormalizeKey(s.Name)] = s.Name
		for _, v := range s.TitleVariants {
			t.sections[t.norm.NormalizeKey(v)] = s.Name
		}
		for key, variants := range s.Fields {
			keys[t.norm.NormalizeKey(key)] = key
			for _, v := range variants {
				keys[t.norm.NormalizeKey(v)] = key
			}
		}
	}
	return t, nil
}

// Version returns the resource version string.
func (t *Taxonomy) Version() string { return t.version }

// NormalizeKey exposes the matching normalization.
func (t *Taxonomy) NormalizeKey(s string) string { return t.norm.NormalizeKey(s) }

// Section resolves a raw section title to its logical section name.
func (t *Taxonomy) Section(rawTitle string) (string, bool) {
	name, ok := t.sections[t.norm.NormalizeKey(rawTitle)]
	return name, ok
}

// Key resolves a raw field label within a logical section to its
// canonical key.
func (t *Taxonomy) Key(logical, rawLabel string) (string, bool) {
	keys, ok := t.fields[logical]
	if !ok {
		return "", false
	}
	key, ok := keys[t.norm.NormalizeKey(rawLabel)]
	return key, ok
}
