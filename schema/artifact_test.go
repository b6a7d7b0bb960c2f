package schema

import "testing"

func TestPreviewArtifact_Lifecycle(t *testing.T) {
	// WHAT: Transitions return new values; the original placeholder is
	// never mutated.
	ph := NewPlaceholder("site_photo", "#lnk")
	if ph.State != StateDiscovered || ph.Type != ArtifactUnknown {
		t.Fatalf("placeholder = %+v", ph)
	}

	resolved := ph.WithTarget("https://rera.example/photo.png")
	if resolved.State != StateTargetResolved || resolved.SourceURL == "" {
		t.Errorf("resolved = %+v", resolved)
	}
	done := resolved.WithFile("site_photo_ab.png", ArtifactImage)
	if done.State != StateDownloaded || done.Type != ArtifactImage || len(done.Files) != 1 {
		t.Errorf("downloaded = %+v", done)
	}

	if ph.State != StateDiscovered || len(ph.Files) != 0 || len(ph.Notes) != 0 {
		t.Errorf("placeholder mutated: %+v", ph)
	}
}

func TestPreviewArtifact_FirstFileDecidesType(t *testing.T) {
	// WHY: Supplementary files (markdown rendition, screenshot) must not
	// re-classify an artifact already typed by its primary file.
	a := NewPlaceholder("cert", "").WithFile("cert.html", ArtifactHTML)
	a = a.WithFile("cert.png", ArtifactImage)
	if a.Type != ArtifactHTML {
		t.Errorf("type = %s, want html", a.Type)
	}
	if len(a.Files) != 2 {
		t.Errorf("files = %v", a.Files)
	}
}

func TestPreviewArtifact_NotesAppendOnly(t *testing.T) {
	a := NewPlaceholder("cert", "")
	b := a.WithNote("first")
	c := b.WithNote("second")
	d := b.WithNote("fork")

	if len(a.Notes) != 0 || len(b.Notes) != 1 || len(c.Notes) != 2 {
		t.Errorf("notes = %v / %v / %v", a.Notes, b.Notes, c.Notes)
	}
	// Appending to a copy must not leak into siblings sharing a prefix.
	if c.Notes[1] != "second" || d.Notes[1] != "fork" {
		t.Errorf("aliasing: %v vs %v", c.Notes, d.Notes)
	}
}

func TestPreviewArtifact_Finalized(t *testing.T) {
	cases := []struct {
		state ArtifactState
		want  bool
	}{
		{StateDiscovered, false},
		{StateTargetResolved, false},
		{StateDownloaded, true},
		{StateCaptured, true},
		{StateFailed, true},
	}
	for _, tc := range cases {
		a := PreviewArtifact{State: tc.state}
		if a.Finalized() != tc.want {
			t.Errorf("Finalized(%s) = %v", tc.state, !tc.want)
		}
	}
}

func TestPreviewArtifact_Fail(t *testing.T) {
	a := NewPlaceholder("cert", "#x").Fail("Preview element not found")
	if a.State != StateFailed || len(a.Files) != 0 {
		t.Errorf("failed = %+v", a)
	}
	if len(a.Notes) != 1 || a.Notes[0] != "Preview element not found" {
		t.Errorf("notes = %v", a.Notes)
	}
}
