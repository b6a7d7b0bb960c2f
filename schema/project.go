package schema

// ProjectDetails is the core typed record for one registered project.
// Numeric fields are pointers so a failed coercion stays distinguishable
// from a genuine zero.
type ProjectDetails struct {
	RegistrationNumber string   `json:"registration_number,omitempty"`
	ProjectName        string   `json:"project_name,omitempty"`
	ProjectType        string   `json:"project_type,omitempty"`
	Status             string   `json:"status,omitempty"`
	District           string   `json:"district,omitempty"`
	Tehsil             string   `json:"tehsil,omitempty"`
	Address            string   `json:"address,omitempty"`
	Pincode            string   `json:"pincode,omitempty"`
	TotalUnits         *int     `json:"total_units,omitempty"`
	TotalArea          *float64 `json:"total_area,omitempty"`
	LaunchDate         string   `json:"launch_date,omitempty"`
	CompletionDate     string   `json:"completion_date,omitempty"`
}

// PromoterDetails describes one promoter entity behind the project.
type PromoterDetails struct {
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// LandDetails describes one land parcel under the project.
type LandDetails struct {
	KhasraNumber     string   `json:"khasra_number,omitempty"`
	Village          string   `json:"village,omitempty"`
	TotalArea        *float64 `json:"total_area,omitempty"`
	LitigationStatus string   `json:"litigation_status,omitempty"`
}

// BuildingDetails describes one building/tower in the project.
type BuildingDetails struct {
	Name   string `json:"name,omitempty"`
	Floors *int   `json:"floors,omitempty"`
	Units  *int   `json:"units,omitempty"`
	Status string `json:"status,omitempty"`
}

// UnitType describes one apartment/unit configuration on offer.
type UnitType struct {
	Name        string   `json:"name,omitempty"`
	CarpetArea  *float64 `json:"carpet_area,omitempty"`
	Count       *int     `json:"count,omitempty"`
	BookedCount *int     `json:"booked_count,omitempty"`
}

// BankDetails describes the designated project bank account.
type BankDetails struct {
	BankName      string `json:"bank_name,omitempty"`
	Branch        string `json:"branch,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
}

// Document references one certificate/plan/photo the page links to.
type Document struct {
	Name         string `json:"name,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	UploadedOn   string `json:"uploaded_on,omitempty"`
	URL          string `json:"url,omitempty"`
}

// QuarterlyUpdate is one progress report filed by the promoter.
type QuarterlyUpdate struct {
	Quarter    string `json:"quarter,omitempty"`
	Status     string `json:"status,omitempty"`
	ReportedOn string `json:"reported_on,omitempty"`
}

// RawData preserves every extracted field, mapped or not.
//
// Invariant: every FieldRecord value from the raw extraction appears
// exactly once — either under a canonical key in Sections, or verbatim
// under UnmappedSections (keyed by raw section title and raw label).
type RawData struct {
	Sections         map[string]map[string]string `json:"sections"`
	UnmappedSections map[string]map[string]string `json:"unmapped_sections,omitempty"`
}

// CanonicalProject is the typed record tree persisted downstream.
// Field names in RawData.Sections are the canonical keys from the
// taxonomy; changing a canonical key is a breaking change for every
// downstream consumer.
type CanonicalProject struct {
	SourceFile       string                     `json:"source_file"`
	ProjectDetails   ProjectDetails             `json:"project_details"`
	Promoters        []PromoterDetails          `json:"promoters,omitempty"`
	Lands            []LandDetails              `json:"lands,omitempty"`
	Buildings        []BuildingDetails          `json:"buildings,omitempty"`
	UnitTypes        []UnitType                 `json:"unit_types,omitempty"`
	Banks            []BankDetails              `json:"banks,omitempty"`
	Documents        []Document                 `json:"documents,omitempty"`
	QuarterlyUpdates []QuarterlyUpdate          `json:"quarterly_updates,omitempty"`
	RawData          RawData                    `json:"raw_data"`
	Previews         map[string]PreviewArtifact `json:"previews,omitempty"`
}
