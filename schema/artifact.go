package schema

// ArtifactState tracks a preview artifact through its lifecycle.
// Transitions return new values rather than mutating shared state:
//
//	Discovered → TargetResolved → Downloaded | Captured | Failed
//
// Discovered placeholders come out of the mapper; the capture component
// advances them and hands the finalized records back for serialization.
type ArtifactState string

const (
	StateDiscovered     ArtifactState = "discovered"
	StateTargetResolved ArtifactState = "target_resolved"
	StateDownloaded     ArtifactState = "downloaded"
	StateCaptured       ArtifactState = "captured"
	StateFailed         ArtifactState = "failed"
)

// ArtifactType classifies the acquired bytes.
type ArtifactType string

const (
	ArtifactPDF     ArtifactType = "pdf"
	ArtifactImage   ArtifactType = "image"
	ArtifactHTML    ArtifactType = "html"
	ArtifactUnknown ArtifactType = "unknown"
)

// PreviewArtifact is the record for one "Preview" trigger found on the
// page. Notes is an append-only diagnostic trail: every acquisition step
// attempted, successful or not, adds one line so the outcome is
// reconstructable after the fact.
type PreviewArtifact struct {
	FieldKey  string        `json:"field_key"`
	State     ArtifactState `json:"state"`
	Type      ArtifactType  `json:"artifact_type"`
	Hint      string        `json:"hint,omitempty"`
	SourceURL string        `json:"source_url,omitempty"`
	Files     []string      `json:"files,omitempty"`
	Notes     []string      `json:"notes,omitempty"`
}

// NewPlaceholder creates an unresolved artifact for a preview trigger.
func NewPlaceholder(fieldKey, hint string) PreviewArtifact {
	return PreviewArtifact{
		FieldKey: fieldKey,
		State:    StateDiscovered,
		Type:     ArtifactUnknown,
		Hint:     hint,
	}
}

// WithNote returns a copy with one line appended to the diagnostic trail.
func (a PreviewArtifact) WithNote(note string) PreviewArtifact {
	notes := make([]string, len(a.Notes), len(a.Notes)+1)
	copy(notes, a.Notes)
	a.Notes = append(notes, note)
	return a
}

// WithTarget returns a copy advanced to TargetResolved with the
// post-redirect source URL recorded.
func (a PreviewArtifact) WithTarget(url string) PreviewArtifact {
	a.State = StateTargetResolved
	a.SourceURL = url
	return a
}

// WithFile returns a copy advanced to Downloaded with a stored-file
// reference appended. The first classified file decides the artifact
// type; supplementary files (markdown renditions, screenshots) do not
// re-classify it.
func (a PreviewArtifact) WithFile(path string, t ArtifactType) PreviewArtifact {
	files := make([]string, len(a.Files), len(a.Files)+1)
	copy(files, a.Files)
	a.Files = append(files, path)
	a.State = StateDownloaded
	if a.Type == ArtifactUnknown {
		a.Type = t
	}
	return a
}

// AsCaptured returns a copy marked as an in-page capture (inline modal
// saved as HTML/screenshot rather than a downloaded document).
func (a PreviewArtifact) AsCaptured() PreviewArtifact {
	a.State = StateCaptured
	if a.Type == ArtifactUnknown {
		a.Type = ArtifactHTML
	}
	return a
}

// Fail returns a copy finalized without any stored file.
func (a PreviewArtifact) Fail(note string) PreviewArtifact {
	a = a.WithNote(note)
	a.State = StateFailed
	return a
}

// Finalized reports whether the artifact reached a terminal state.
func (a PreviewArtifact) Finalized() bool {
	switch a.State {
	case StateDownloaded, StateCaptured, StateFailed:
		return true
	}
	return false
}
