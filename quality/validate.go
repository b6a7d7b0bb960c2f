package quality

import (
	"fmt"
	"regexp"

	"github.com/openrera/rerapipe/schema"
)

var pincodeShape = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Validate checks a canonical project and returns advisory messages.
// It is pure and non-failing: messages flag suspicious records for QA
// review but never block downstream persistence.
func Validate(p *schema.CanonicalProject) []string {
	var msgs []string
	d := p.ProjectDetails

	if d.District == "" {
		msgs = append(msgs, "project has no district")
	}
	if d.Status == "" {
		msgs = append(msgs, "project has no status")
	}
	if d.Pincode != "" && !pincodeShape.MatchString(d.Pincode) {
		msgs = append(msgs, fmt.Sprintf("pincode %q is not a 6-digit postal code", d.Pincode))
	}
	if d.TotalArea != nil && *d.TotalArea < 0 {
		msgs = append(msgs, fmt.Sprintf("total area %v is negative", *d.TotalArea))
	}
	if d.TotalUnits != nil && *d.TotalUnits < 0 {
		msgs = append(msgs, fmt.Sprintf("total units %d is negative", *d.TotalUnits))
	}

	for i, l := range p.Lands {
		if l.TotalArea != nil && *l.TotalArea < 0 {
			msgs = append(msgs, fmt.Sprintf("land %d: area %v is negative", i+1, *l.TotalArea))
		}
	}
	for i, u := range p.UnitTypes {
		if u.CarpetArea != nil && *u.CarpetArea < 0 {
			msgs = append(msgs, fmt.Sprintf("unit type %d: carpet area %v is negative", i+1, *u.CarpetArea))
		}
		if u.Count != nil && *u.Count < 0 {
			msgs = append(msgs, fmt.Sprintf("unit type %d: count %d is negative", i+1, *u.Count))
		}
	}

	return msgs
}
