// Package quality is the advisory layer downstream of the mapper:
// Normalize canonicalizes presentation (casing, spelling, separators)
// without ever changing meaning, and Validate emits advisory messages
// that never block persistence.
package quality

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/openrera/rerapipe/schema"
)

// Controlled vocabularies. Lookup happens on a lowercased, squeezed key;
// unrecognized values fall back to title case rather than being dropped.

var statusVocab = map[string]string{
	"registered":     "Registered",
	"new":            "Registered",
	"newregistered":  "Registered",
	"extended":       "Extended",
	"extension":      "Extended",
	"lapsed":         "Lapsed",
	"expired":        "Lapsed",
	"revoked":        "Revoked",
	"cancelled":      "Revoked",
	"complete":       "Completed",
	"completed":      "Completed",
	"underprogress":  "Ongoing",
	"ongoing":        "Ongoing",
	"inprogress":     "Ongoing",
}

var projectTypeVocab = map[string]string{
	"residential":          "Residential",
	"residentialproject":   "Residential",
	"commercial":           "Commercial",
	"commercialproject":    "Commercial",
	"mixed":                "Mixed",
	"mixeddevelopment":     "Mixed",
	"mixeduse":             "Mixed",
	"plotted":              "Plotted",
	"plotteddevelopment":   "Plotted",
	"grouphousing":         "Residential",
}

// districtVocab fixes the spellings the registry itself cannot agree on.
var districtVocab = map[string]string{
	"raipur":        "Raipur",
	"bilaspur":      "Bilaspur",
	"durg":          "Durg",
	"bhilai":        "Durg",
	"korba":         "Korba",
	"raigarh":       "Raigarh",
	"rajnandgaon":   "Rajnandgaon",
	"jagdalpur":     "Bastar",
	"bastar":        "Bastar",
	"ambikapur":     "Surguja",
	"surguja":       "Surguja",
	"janjgirchampa": "Janjgir-Champa",
	"jashpur":       "Jashpur",
	"kanker":        "Kanker",
	"kawardha":      "Kabirdham",
	"kabirdham":     "Kabirdham",
	"mahasamund":    "Mahasamund",
	"dhamtari":      "Dhamtari",
	"balod":         "Balod",
	"balodabazar":   "Baloda Bazar",
	"bemetara":      "Bemetara",
	"mungeli":       "Mungeli",
	"surajpur":      "Surajpur",
	"gariaband":     "Gariaband",
}

var (
	separatorRuns = regexp.MustCompile(`([-/._])[-/._]*`)
	regNoStrip    = regexp.MustCompile(`\s+`)
)

// titleCase builds a fresh Caser per call: a cases.Caser carries scan
// state and cannot be shared across the parallel pipeline workers.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Normalize returns a copy of the project with canonical presentation
// for status, district, project type, and registration number, and with
// free-text fields trimmed. Pure and non-failing; meaning is preserved.
func Normalize(p *schema.CanonicalProject) *schema.CanonicalProject {
	out := *p
	d := p.ProjectDetails

	d.Status = vocabOrTitle(statusVocab, d.Status)
	d.ProjectType = vocabOrTitle(projectTypeVocab, d.ProjectType)
	d.District = vocabOrTitle(districtVocab, d.District)
	d.Tehsil = titleIfLowerOrUpper(d.Tehsil)
	d.RegistrationNumber = NormalizeRegistrationNumber(d.RegistrationNumber)
	d.ProjectName = strings.TrimSpace(d.ProjectName)
	d.Address = strings.TrimSpace(d.Address)

	out.ProjectDetails = d
	return &out
}

// NormalizeRegistrationNumber strips whitespace, upper-cases, and
// collapses repeated separators ("PCGRERA--0123" -> "PCGRERA-0123").
func NormalizeRegistrationNumber(s string) string {
	s = regNoStrip.ReplaceAllString(strings.TrimSpace(s), "")
	s = separatorRuns.ReplaceAllString(s, "$1")
	return strings.ToUpper(s)
}

func vocabOrTitle(vocab map[string]string, s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if canonical, ok := vocab[key]; ok {
		return canonical
	}
	return titleCase(strings.ToLower(s))
}

// titleIfLowerOrUpper title-cases shouty or all-lower values but leaves
// mixed-case proper names alone.
func titleIfLowerOrUpper(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if s == strings.ToUpper(s) || s == strings.ToLower(s) {
		return titleCase(strings.ToLower(s))
	}
	return s
}
