package taxonomy

import (
	"errors"
	"testing"
)

const sampleResource = `
version: "2024.2"
sections:
  - name: project_details
    title_variants:
      - "Project Details"
      - "PROJECT INFORMATION"
    fields:
      project_name:
        - "Project Name"
        - "Name of the Project"
      registration_number:
        - "Registration No."
        - "RERA Regn. No"
`

func TestLoad_VariantsCollapse(t *testing.T) {
	// WHAT: Title and label variants differing only by case, punctuation,
	// or whitespace resolve to the same canonical name.
	tax, err := Load([]byte(sampleResource))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tax.Version() != "2024.2" {
		t.Errorf("version = %q", tax.Version())
	}

	titles := []string{"Project Details", "project details", "PROJECT  INFORMATION", "Project-Details", "project_details"}
	for _, title := range titles {
		name, ok := tax.Section(title)
		if !ok || name != "project_details" {
			t.Errorf("Section(%q) = %q, %v", title, name, ok)
		}
	}

	labels := []string{"Registration No.", "registration no", "RERA REGN NO", "Registration   No:"}
	for _, label := range labels {
		key, ok := tax.Key("project_details", label)
		if !ok || key != "registration_number" {
			t.Errorf("Key(%q) = %q, %v", label, key, ok)
		}
	}
}

func TestLoad_UnknownLookups(t *testing.T) {
	// WHAT: Unknown titles and labels report no match instead of guessing.
	tax, err := Load([]byte(sampleResource))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tax.Section("Grievance Details"); ok {
		t.Error("unknown section matched")
	}
	if _, ok := tax.Key("project_details", "Special Field"); ok {
		t.Error("unknown label matched")
	}
	if _, ok := tax.Key("no_such_section", "Project Name"); ok {
		t.Error("label matched in unknown section")
	}
}

func TestLoad_InvalidResource(t *testing.T) {
	// WHAT: Malformed or empty resources fail with ErrResource.
	// WHY: A missing taxonomy is the one fatal process-start condition.
	cases := []struct {
		name string
		data string
	}{
		{"bad yaml", ":\n  - ["},
		{"no sections", `version: "1"`},
		{"empty section name", "sections:\n  - title_variants: [\"X\"]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.data))
			if !errors.Is(err, ErrResource) {
				t.Errorf("error = %v, want ErrResource", err)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("does-not-exist.yaml")
	if !errors.Is(err, ErrResource) {
		t.Errorf("error = %v, want ErrResource", err)
	}
}

func TestDefault_EmbeddedResource(t *testing.T) {
	// WHAT: The bundled CG RERA resource loads and covers the sections the
	// registry pages carry.
	tax := Default()
	for _, logical := range []string{
		"project_details", "promoter_details", "land_details",
		"building_details", "unit_types", "bank_details",
		"documents", "quarterly_updates",
	} {
		if _, ok := tax.Section(logical); !ok {
			t.Errorf("embedded resource missing section %q", logical)
		}
	}
	if key, ok := tax.Key("project_details", "Project Name"); !ok || key != "project_name" {
		t.Errorf("Key(Project Name) = %q, %v", key, ok)
	}
}

func TestNormalizeKey(t *testing.T) {
	tax := Default()
	cases := []struct{ in, want string }{
		{"Project Name", "projectname"},
		{"RERA Regn. No.", "reraregnno"},
		{"  Total-Units_2 ", "totalunits2"},
	}
	for _, tc := range cases {
		if got := tax.NormalizeKey(tc.in); got != tc.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
