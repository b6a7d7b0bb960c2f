package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openrera/rerapipe/capture"
	"github.com/openrera/rerapipe/mapper"
	"github.com/openrera/rerapipe/schema"
	"github.com/openrera/rerapipe/taxonomy"
)

const projectPage = `<html><body>
	<h2>Project Details</h2>
	<table>
		<tr><td>Project Name</td><td>Garden Villas</td></tr>
		<tr><td>Registration No.</td><td>PCGRERA 2505 18000999</td></tr>
		<tr><td>District</td><td><select><option>--Select--</option><option selected>raipur</option></select></td></tr>
		<tr><td>Project Status</td><td>REGISTERED</td></tr>
		<tr><td>Project Address</td><td>12 Station Road, Raipur 492001</td></tr>
	</table>
	<h2>Documents</h2>
	<table>
		<tr><td>Registration Certificate</td><td><input type="button" value="Preview"></td></tr>
	</table>
</body></html>`

// stubElement and stubPage are the minimal capture.Page collaborators for
// driving the click-target path without a browser.

type stubElement struct{}

func (stubElement) Attribute(context.Context, string) (string, error) { return "", nil }
func (stubElement) Click(context.Context) error                       { return nil }
func (stubElement) Text(context.Context) (string, error)              { return "Preview", nil }

type stubPage struct {
	resolveErr error
}

func (p *stubPage) URL() string { return "https://rera.example/project.aspx" }

func (p *stubPage) Resolve(_ context.Context, hint string) (capture.Element, error) {
	if p.resolveErr != nil {
		return nil, p.resolveErr
	}
	if hint != "Preview" {
		return nil, fmt.Errorf("no element for %q", hint)
	}
	return stubElement{}, nil
}

func (p *stubPage) WaitOpen() func(ctx context.Context) (capture.Page, error) {
	return func(context.Context) (capture.Page, error) {
		return nil, errors.New("no popup opened")
	}
}

func (p *stubPage) OpenTab(_ context.Context, url string) (capture.Page, error) {
	return nil, fmt.Errorf("navigation refused for %s", url)
}

func (p *stubPage) HTML(context.Context) (string, error) {
	return "<html><body>Certificate No. PCGRERA250518000999</body></html>", nil
}

func (p *stubPage) Screenshot(context.Context) ([]byte, error) { return nil, nil }
func (p *stubPage) Dismiss(context.Context) error              { return nil }

func (p *stubPage) Fetch(_ context.Context, url string) (*capture.FetchResult, error) {
	return nil, fmt.Errorf("no session fetch for %s", url)
}

func (p *stubPage) Close() error { return nil }

type refusingDownloader struct{}

func (refusingDownloader) Fetch(context.Context, string, string) (*capture.FetchResult, error) {
	return nil, errors.New("network fallback disabled")
}

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	if cfg.Taxonomy == nil {
		cfg.Taxonomy = taxonomy.Default()
	}
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}

func TestProcess_EndToEnd(t *testing.T) {
	// WHAT: A full run over a saved page with a browser stub: extraction,
	// mapping, normalization, and click-target modal capture.
	store, err := capture.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	capt, err := capture.New(capture.Config{
		Store:      store,
		Downloader: refusingDownloader{},
		Politeness: time.Nanosecond,
	})
	if err != nil {
		t.Fatalf("capturer: %v", err)
	}
	p := newTestPipeline(t, Config{Capturer: capt})

	res, err := p.Process(context.Background(), Input{
		SourceID: "PCGRERA250518000999",
		HTML:     projectPage,
		Page:     &stubPage{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := res.Project.ProjectDetails
	if d.ProjectName != "Garden Villas" {
		t.Errorf("project name = %q", d.ProjectName)
	}
	if d.District != "Raipur" {
		t.Errorf("district = %q", d.District)
	}
	if d.Status != "Registered" {
		t.Errorf("status = %q", d.Status)
	}
	if d.RegistrationNumber != "PCGRERA250518000999" {
		t.Errorf("registration number = %q", d.RegistrationNumber)
	}
	if d.Pincode != "492001" {
		t.Errorf("pincode = %q", d.Pincode)
	}

	a, ok := res.Project.Previews["registration_certificate"]
	if !ok {
		t.Fatalf("previews = %v", res.Project.Previews)
	}
	if a.State != schema.StateCaptured || len(a.Files) == 0 {
		t.Errorf("artifact = %+v", a)
	}
	clickNoted := false
	for _, n := range a.Notes {
		if strings.Contains(n, "target: click") {
			clickNoted = true
		}
	}
	if !clickNoted {
		t.Errorf("notes = %v", a.Notes)
	}
	if len(res.Validation) != 0 {
		t.Errorf("unexpected advisories: %v", res.Validation)
	}
}

func TestProcess_OfflineLeavesPlaceholders(t *testing.T) {
	// WHAT: Without a page handle the sync stages still run and preview
	// placeholders stay in discovered state.
	p := newTestPipeline(t, Config{})

	res, err := p.Process(context.Background(), Input{SourceID: "p1", HTML: projectPage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Project.ProjectDetails.ProjectName != "Garden Villas" {
		t.Errorf("project name = %q", res.Project.ProjectDetails.ProjectName)
	}
	a := res.Project.Previews["registration_certificate"]
	if a.State != schema.StateDiscovered {
		t.Errorf("state = %s", a.State)
	}
}

func TestProcess_HintsFillBlanks(t *testing.T) {
	p := newTestPipeline(t, Config{})
	res, err := p.Process(context.Background(), Input{
		SourceID: "p1",
		HTML:     "<html><body></body></html>",
		Hints:    mapper.Hints{ProjectName: "From Listing", RegistrationNumber: "PCGRERA0001"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Project.ProjectDetails.ProjectName != "From Listing" {
		t.Errorf("project name = %q", res.Project.ProjectDetails.ProjectName)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	// WHY: QA diffs consecutive runs; identical input must serialize to
	// identical bytes.
	p := newTestPipeline(t, Config{})

	var dumps [2][]byte
	for i := range dumps {
		res, err := p.Process(context.Background(), Input{SourceID: "p1", HTML: projectPage})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := json.Marshal(res.Project)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		dumps[i] = data
	}
	if string(dumps[0]) != string(dumps[1]) {
		t.Error("runs serialized differently")
	}
}

func TestProcess_WritesOutputFiles(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, Config{OutputDir: dir})

	_, err := p.Process(context.Background(), Input{SourceID: "reg/0001", HTML: projectPage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"reg_0001.raw.json", "reg_0001.project.json", "reg_0001.artifacts.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestProcessAll_OrderAndErrors(t *testing.T) {
	// WHAT: ProcessAll returns one result per input, in input order, with
	// per-input failures isolated.
	p := newTestPipeline(t, Config{Workers: 2})

	inputs := []Input{
		{SourceID: "a", HTML: projectPage},
		{SourceID: "b", HTML: "<html><body><p>empty listing</p></body></html>"},
		{SourceID: "c", HTML: projectPage},
	}
	results := p.ProcessAll(context.Background(), inputs)

	if len(results) != len(inputs) {
		t.Fatalf("results = %d", len(results))
	}
	for i, res := range results {
		if res.SourceID != inputs[i].SourceID {
			t.Errorf("result %d = %q, want %q", i, res.SourceID, inputs[i].SourceID)
		}
		if res.Err != nil {
			t.Errorf("result %d failed: %v", i, res.Err)
		}
	}
	if results[0].Project.ProjectDetails.ProjectName != "Garden Villas" {
		t.Errorf("result 0 = %+v", results[0].Project.ProjectDetails)
	}
}

func TestProcessAll_Cancelled(t *testing.T) {
	p := newTestPipeline(t, Config{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.ProcessAll(ctx, []Input{{SourceID: "a", HTML: projectPage}})
	if len(results) != 1 {
		t.Fatalf("results = %d", len(results))
	}
	// Either the worker picked it up before cancellation or the feed loop
	// stopped; both leave one entry with the source id intact.
	if results[0].SourceID != "a" {
		t.Errorf("source = %q", results[0].SourceID)
	}
}
