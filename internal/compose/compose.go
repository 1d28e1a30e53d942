// Package compose assembles generated artifacts (agent instructions,
// platform config, prompt bundles) from layered sources: a core
// baseline, optional vendor mounts, enabled packs, and a project
// overlay. A later layer's record for a key already seen is appended to
// the earlier one, unless the key (or "*") is listed in AllowShadowing,
// in which case it replaces it. Generalizes the teacher's internal/content static
// resource/prompt assembly (internal/content/resources.go,
// prompts.go) from one fixed bundle into a data-driven multi-layer
// merge, per the DESIGN NOTES "mixin composers collapse to one
// composable type parameterized by a record" re-architecture.
package compose

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/edison-dev/edison/internal/edisonerr"
)

// LayerSpec names where each layer of one composed artifact lives and
// how conflicting keys between layers are resolved.
type LayerSpec struct {
	CoreSubpath    string
	VendorSubpaths []string
	PackSubpaths   []string
	ProjectSubpath string
	// AllowShadowing lists record keys a later layer may overwrite; a
	// key absent here can still be EXTENDED (sections appended) but
	// never replaced wholesale, unless "*" is present.
	AllowShadowing []string
}

// Record is one named, orderable section of a composed artifact
// (spec.md's "includes"/"sections"/config vars all reduce to this).
type Record struct {
	Key     string
	Content string
	Source  string // which layer/file produced this record, for diagnostics
}

// MergeHandler combines an existing record with an incoming one from a
// later layer. The default handler (used when none is registered for
// a key) replaces wholesale only if the key is in AllowShadowing, else
// appends.
type MergeHandler func(existing, incoming Record, allowShadow bool) Record

// Stage is one step of the fixed six-stage pipeline.
type Stage string

const (
	StageIncludes    Stage = "includes"
	StageSections    Stage = "sections"
	StageConfigVars  Stage = "config_vars"
	StageLegacyVars  Stage = "legacy_vars"
	StageValidate    Stage = "validate"
	StageWrite       Stage = "write"
)

// Pipeline runs the fixed six stages over a LayerSpec, producing the
// merged record set and, on the write stage, the final rendered
// artifact bytes.
type Pipeline struct {
	Root          string // repository root
	Spec          LayerSpec
	MergeHandlers map[string]MergeHandler
}

// Result is the pipeline's output after all six stages.
type Result struct {
	Records []Record
	Output  []byte
}

// Run executes the six stages in fixed order. Each stage is a plain
// method so tests can exercise one stage at a time; Run is the
// composition root real callers use.
func (p *Pipeline) Run() (*Result, error) {
	includeRecords, err := p.runIncludes()
	if err != nil {
		return nil, err
	}
	merged := p.runSections(includeRecords)
	merged = p.runConfigVars(merged)
	merged = p.runLegacyVars(merged)
	if err := p.runValidate(merged); err != nil {
		return nil, err
	}
	output := p.runWrite(merged)
	return &Result{Records: merged, Output: output}, nil
}

// runIncludes (stage 1) discovers every layer's files for this
// artifact, in core < vendor < packs < project order, each becoming
// one Record per file (keyed by its basename without extension).
func (p *Pipeline) runIncludes() ([]Record, error) {
	var records []Record

	add := func(dir, source string) error {
		if dir == "" {
			return nil
		}
		full := filepath.Join(p.Root, dir)
		entries, err := os.ReadDir(full)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return edisonerr.IOError(full, err)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(full, entry.Name()))
			if err != nil {
				return edisonerr.IOError(entry.Name(), err)
			}
			key := keyFromFilename(entry.Name())
			records = append(records, Record{Key: key, Content: string(data), Source: source})
		}
		return nil
	}

	if err := add(p.Spec.CoreSubpath, "core"); err != nil {
		return nil, err
	}
	for _, v := range p.Spec.VendorSubpaths {
		if err := add(v, "vendor:"+v); err != nil {
			return nil, err
		}
	}
	for _, pk := range p.Spec.PackSubpaths {
		if err := add(pk, "pack:"+pk); err != nil {
			return nil, err
		}
	}
	if err := add(p.Spec.ProjectSubpath, "project"); err != nil {
		return nil, err
	}
	return records, nil
}

// runSections (stage 2) merges same-key records across layers using
// MergeHandlers, falling back to mergeDefault.
func (p *Pipeline) runSections(records []Record) []Record {
	byKey := map[string]Record{}
	var order []string
	for _, r := range records {
		existing, ok := byKey[r.Key]
		if !ok {
			byKey[r.Key] = r
			order = append(order, r.Key)
			continue
		}
		handler, hasHandler := p.MergeHandlers[r.Key]
		allowShadow := contains(p.Spec.AllowShadowing, r.Key) || contains(p.Spec.AllowShadowing, "*")
		if hasHandler {
			byKey[r.Key] = handler(existing, r, allowShadow)
		} else {
			byKey[r.Key] = mergeDefault(existing, r, allowShadow)
		}
	}

	out := make([]Record, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}

func mergeDefault(existing, incoming Record, allowShadow bool) Record {
	if allowShadow {
		return incoming
	}
	existing.Content += "\n" + incoming.Content
	existing.Source += "+" + incoming.Source
	return existing
}

// runConfigVars (stage 3) and runLegacyVars (stage 4) are the
// pipeline's variable stages. Both return the records unchanged: no
// stage, runWrite included, substitutes "{{ ... }}" config variables
// or legacy variables, so any such placeholder reaches the output as
// written.
func (p *Pipeline) runConfigVars(records []Record) []Record {
	return records
}

func (p *Pipeline) runLegacyVars(records []Record) []Record {
	return records
}

// runValidate (stage 5) rejects a merged record left with no content
// at all, which only happens if a layer contributed an empty file —
// almost always a copy/paste mistake the pipeline should surface
// rather than silently compose into the final artifact.
func (p *Pipeline) runValidate(records []Record) error {
	for _, r := range records {
		if r.Content == "" {
			return edisonerr.New(edisonerr.KindValidationError, r.Key, "composed record has no content (source: "+r.Source+")")
		}
	}
	return nil
}

// runWrite (stage 6) concatenates every record's content in
// declaration order, separated by a blank line.
func (p *Pipeline) runWrite(records []Record) []byte {
	var out []byte
	for i, r := range records {
		if i > 0 {
			out = append(out, '\n', '\n')
		}
		out = append(out, []byte(r.Content)...)
	}
	return out
}

func keyFromFilename(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
