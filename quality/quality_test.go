package quality

import (
	"strings"
	"sync"
	"testing"

	"github.com/openrera/rerapipe/schema"
)

func TestNormalize_Vocabularies(t *testing.T) {
	// WHAT: Known variants map onto the controlled vocabulary regardless
	// of casing and spacing; unknown values fall back to title case so
	// nothing is ever dropped.
	cases := []struct {
		name                   string
		status, wantStatus     string
		ptype, wantType        string
		district, wantDistrict string
	}{
		{"canonical passthrough", "Registered", "Registered", "Residential", "Residential", "Raipur", "Raipur"},
		{"case folded", "REGISTERED", "Registered", "residential", "Residential", "raipur", "Raipur"},
		{"synonyms", "Under Progress", "Ongoing", "Group Housing", "Residential", "Bhilai", "Durg"},
		{"spelling fix", "Expired", "Lapsed", "Mixed Use", "Mixed", "Jagdalpur", "Bastar"},
		{"unknown falls back", "pre launch", "Pre Launch", "farm house", "Farm House", "naya raipur", "Naya Raipur"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &schema.CanonicalProject{ProjectDetails: schema.ProjectDetails{
				Status:      tc.status,
				ProjectType: tc.ptype,
				District:    tc.district,
			}}
			got := Normalize(p).ProjectDetails
			if got.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tc.wantStatus)
			}
			if got.ProjectType != tc.wantType {
				t.Errorf("type = %q, want %q", got.ProjectType, tc.wantType)
			}
			if got.District != tc.wantDistrict {
				t.Errorf("district = %q, want %q", got.District, tc.wantDistrict)
			}
		})
	}
}

func TestNormalize_Tehsil(t *testing.T) {
	// WHAT: Shouty or all-lower tehsil names get title case; mixed-case
	// proper names are left alone.
	cases := []struct{ in, want string }{
		{"DHARSIWA", "Dharsiwa"},
		{"dharsiwa", "Dharsiwa"},
		{"Mandir Hasaud", "Mandir Hasaud"},
		{"McLeod Ganj", "McLeod Ganj"},
		{"", ""},
	}
	for _, tc := range cases {
		p := &schema.CanonicalProject{ProjectDetails: schema.ProjectDetails{Tehsil: tc.in}}
		if got := Normalize(p).ProjectDetails.Tehsil; got != tc.want {
			t.Errorf("tehsil %q = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRegistrationNumber(t *testing.T) {
	cases := []struct{ in, want string }{
		{"PCGRERA250518000999", "PCGRERA250518000999"},
		{" pcgrera 2505 18000999 ", "PCGRERA250518000999"},
		{"PCGRERA--0123", "PCGRERA-0123"},
		{"PCG/RERA//0123", "PCG/RERA/0123"},
		{"PCG-._0123", "PCG-0123"},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizeRegistrationNumber(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalize_ConcurrentCalls(t *testing.T) {
	// WHAT: Normalize runs on every pipeline worker in parallel; the
	// title-case fallback must not share caser state across calls.
	// WHY: a shared cases.Caser races under concurrent use.
	p := &schema.CanonicalProject{ProjectDetails: schema.ProjectDetails{
		Status:      "pre launch",
		ProjectType: "farm house",
		District:    "naya raipur",
		Tehsil:      "DHARSIWA",
	}}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got := Normalize(p).ProjectDetails
				if got.District != "Naya Raipur" || got.Tehsil != "Dharsiwa" {
					t.Errorf("concurrent normalize = %+v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	// WHY: Normalize is advertised as pure; the mapper's output is shared
	// with the raw QA dump.
	p := &schema.CanonicalProject{ProjectDetails: schema.ProjectDetails{Status: "REGISTERED"}}
	_ = Normalize(p)
	if p.ProjectDetails.Status != "REGISTERED" {
		t.Errorf("input mutated: %q", p.ProjectDetails.Status)
	}
}

func TestValidate_Advisories(t *testing.T) {
	// WHAT: Validation produces advisory strings and never blocks; a
	// fully populated, sane record produces none.
	negArea := -10.0
	negUnits := -1

	clean := &schema.CanonicalProject{ProjectDetails: schema.ProjectDetails{
		District: "Raipur", Status: "Registered", Pincode: "492001",
	}}
	if msgs := Validate(clean); len(msgs) != 0 {
		t.Errorf("unexpected advisories: %v", msgs)
	}

	dirty := &schema.CanonicalProject{
		ProjectDetails: schema.ProjectDetails{
			Pincode:    "49200",
			TotalArea:  &negArea,
			TotalUnits: &negUnits,
		},
		UnitTypes: []schema.UnitType{{CarpetArea: &negArea}},
	}
	msgs := Validate(dirty)

	wantFragments := []string{
		"no district",
		"no status",
		`pincode "49200"`,
		"total area -10 is negative",
		"total units -1 is negative",
		"unit type 1: carpet area -10 is negative",
	}
	for _, frag := range wantFragments {
		found := false
		for _, m := range msgs {
			if strings.Contains(m, frag) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing advisory containing %q in %v", frag, msgs)
		}
	}
	if len(msgs) != len(wantFragments) {
		t.Errorf("advisories = %d, want %d: %v", len(msgs), len(wantFragments), msgs)
	}
}
