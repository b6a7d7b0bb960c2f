package mapper

import (
	"github.com/openrera/rerapipe/schema"
)

// accumulate appends one typed entry for a repeated logical section
// occurrence. Repeated sections (multiple promoters, buildings, unit
// types) build true multi-entry lists rather than keeping only the last
// occurrence.
func (m *Mapper) accumulate(p *schema.CanonicalProject, logical string, sec schema.SectionRecord, occ map[string]string) {
	if len(occ) == 0 {
		return
	}
	switch logical {
	case secPromoter:
		p.Promoters = append(p.Promoters, schema.PromoterDetails{
			Name:    occ["name"],
			Type:    occ["type"],
			Address: occ["address"],
			Email:   occ["email"],
			Phone:   occ["phone"],
		})
	case secLand:
		p.Lands = append(p.Lands, schema.LandDetails{
			KhasraNumber:     occ["khasra_number"],
			Village:          occ["village"],
			TotalArea:        coerceFloat(occ["total_area"]),
			LitigationStatus: occ["litigation_status"],
		})
	case secBuilding:
		p.Buildings = append(p.Buildings, schema.BuildingDetails{
			Name:   occ["name"],
			Floors: coerceInt(occ["floors"]),
			Units:  coerceInt(occ["units"]),
			Status: occ["status"],
		})
	case secUnitType:
		p.UnitTypes = append(p.UnitTypes, schema.UnitType{
			Name:        occ["name"],
			CarpetArea:  coerceFloat(occ["carpet_area"]),
			Count:       coerceInt(occ["count"]),
			BookedCount: coerceInt(occ["booked_count"]),
		})
	case secBank:
		p.Banks = append(p.Banks, schema.BankDetails{
			BankName:      occ["bank_name"],
			Branch:        occ["branch"],
			AccountNumber: occ["account_number"],
			IFSC:          occ["ifsc"],
		})
	case secDocuments:
		p.Documents = append(p.Documents, m.documentsFromOccurrence(sec, occ)...)
	case secQuarterly:
		p.QuarterlyUpdates = append(p.QuarterlyUpdates, schema.QuarterlyUpdate{
			Quarter:    occ["quarter"],
			Status:     occ["status"],
			ReportedOn: coerceDate(occ["reported_on"]),
		})
	}
}

// docKindKeys are canonical keys that each denote one named document on
// the page (as opposed to the row-wise name/type/date layout).
var docKindKeys = []string{
	"registration_certificate",
	"approved_layout_plan",
	"building_permission",
	"site_photo",
}

func (m *Mapper) documentsFromOccurrence(sec schema.SectionRecord, occ map[string]string) []schema.Document {
	var docs []schema.Document

	if occ["name"] != "" {
		docs = append(docs, schema.Document{
			Name:         occ["name"],
			DocumentType: occ["document_type"],
			UploadedOn:   coerceDate(occ["uploaded_on"]),
			URL:          firstLinkFor(sec, "name"),
		})
	}
	for _, kind := range docKindKeys {
		if _, present := occ[kind]; present {
			docs = append(docs, schema.Document{
				Name:         occ[kind],
				DocumentType: kind,
				URL:          firstNavigableLink(sec),
			})
		}
	}
	return docs
}

// firstLinkFor returns the first href found on any field of the section
// occurrence; the registry attaches the document link to whichever cell
// it rendered last.
func firstLinkFor(sec schema.SectionRecord, _ string) string {
	return firstNavigableLink(sec)
}

func firstNavigableLink(sec schema.SectionRecord) string {
	for _, f := range sec.Fields {
		for _, l := range f.Links {
			if isNavigable(l) {
				return l
			}
		}
	}
	return ""
}

// populateDetails reads the canonical project_details keys into the
// typed record, coercing numerics and dates. Hints fill blanks only.
func (m *Mapper) populateDetails(p *schema.CanonicalProject, hints Hints) {
	keys := p.RawData.Sections[secProject]

	d := schema.ProjectDetails{
		RegistrationNumber: keys["registration_number"],
		ProjectName:        keys["project_name"],
		ProjectType:        keys["project_type"],
		Status:             keys["status"],
		District:           keys["district"],
		Tehsil:             keys["tehsil"],
		Address:            keys["address"],
		TotalUnits:         coerceInt(keys["total_units"]),
		TotalArea:          coerceFloat(keys["total_area"]),
		LaunchDate:         coerceDate(keys["launch_date"]),
		CompletionDate:     coerceDate(keys["completion_date"]),
	}
	d.Pincode = extractPincode(d.Address)

	if d.RegistrationNumber == "" {
		d.RegistrationNumber = hints.RegistrationNumber
	}
	if d.ProjectName == "" {
		d.ProjectName = hints.ProjectName
	}
	p.ProjectDetails = d
}
