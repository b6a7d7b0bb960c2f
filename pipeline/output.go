package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openrera/rerapipe/schema"
)

// artifactMeta is the per-project artifact metadata record consumed by
// storage and QA tooling.
type artifactMeta struct {
	ArtifactType schema.ArtifactType `json:"artifact_type"`
	SourceURL    string              `json:"source_url,omitempty"`
	Files        []string            `json:"files,omitempty"`
	Notes        []string            `json:"notes,omitempty"`
}

// WriteArtifacts serializes the three output artifacts for one result:
// the lossless raw dump (QA diffing), the canonical project (storage),
// and the preview artifact metadata. Marshaling is deterministic: the
// same result always produces byte-identical JSON.
func (p *Pipeline) WriteArtifacts(res *Result) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("pipeline: output dir: %w", err)
	}
	base := sanitizeSourceID(res.SourceID)

	if res.Raw != nil {
		if err := p.writeJSON(base+".raw.json", res.Raw); err != nil {
			return err
		}
	}
	if res.Project != nil {
		if err := p.writeJSON(base+".project.json", res.Project); err != nil {
			return err
		}
		meta := make(map[string]artifactMeta, len(res.Project.Previews))
		for key, a := range res.Project.Previews {
			meta[key] = artifactMeta{
				ArtifactType: a.Type,
				SourceURL:    a.SourceURL,
				Files:        a.Files,
				Notes:        a.Notes,
			}
		}
		if len(meta) > 0 {
			if err := p.writeJSON(base+".artifacts.json", meta); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: marshal %s: %w", name, err)
	}
	path := filepath.Join(p.cfg.OutputDir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("pipeline: write %s: %w", name, err)
	}
	return nil
}

func sanitizeSourceID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "project"
	}
	return sb.String()
}
