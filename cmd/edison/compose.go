package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/edison-dev/edison/internal/compose"
	"github.com/edison-dev/edison/internal/storage"
)

// composedTypes lists the content types the composition pipeline
// assembles, per spec.md §4.7 ("content types that support sections:
// agents, validators, constitutions").
var composedTypes = []string{"agents", "validators", "constitutions"}

// composeReport is the unified per-run report spec.md §4.7 requires:
// any error or missing blocking variable causes a non-zero exit.
type composeReport struct {
	FilesWritten  []string `json:"files_written"`
	RecordsMerged int      `json:"records_merged"`
	Warnings      []string `json:"warnings,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// newComposeCmd wires `compose all` and `compose <type>`.
func newComposeCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Assemble generated artifacts from the layered core/pack/project sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Compose every known content type",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			report := composeReport{}
			for _, t := range composedTypes {
				if err := composeOne(e, t, &report); err != nil {
					report.Errors = append(report.Errors, err.Error())
				}
			}
			if err := printJSON(report); err != nil {
				return err
			}
			if len(report.Errors) > 0 {
				os.Exit(2)
			}
			return nil
		},
	})

	for _, t := range composedTypes {
		t := t
		cmd.AddCommand(&cobra.Command{
			Use:   t,
			Short: "Compose the " + t + " content type",
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := app.load()
				if err != nil {
					return err
				}
				report := composeReport{}
				if err := composeOne(e, t, &report); err != nil {
					return err
				}
				return printJSON(report)
			},
		})
	}

	return cmd
}

// layerSpecFor builds the LayerSpec for one content type from the
// repo layout (spec.md §6 repository layout: core < vendor < packs <
// project, increasing priority) and the project's enabled packs and
// vendor exports.
func layerSpecFor(e *env, contentType string) compose.LayerSpec {
	spec := compose.LayerSpec{
		CoreSubpath:    filepath.Join(".edison", "core", contentType),
		ProjectSubpath: filepath.Join(".edison", "overlays", contentType),
	}

	packNames, _ := os.ReadDir(e.resolver.PacksDir())
	sort.Slice(packNames, func(i, j int) bool { return packNames[i].Name() < packNames[j].Name() })
	for _, p := range packNames {
		if p.IsDir() {
			spec.PackSubpaths = append(spec.PackSubpaths, filepath.Join(".edison", "packs", p.Name(), contentType))
		}
	}

	for _, export := range e.cfg.Vendors.Exports {
		if export.ContentType != contentType {
			continue
		}
		spec.VendorSubpaths = append(spec.VendorSubpaths, filepath.Join(".edison", "vendors", export.Vendor, "worktree", export.SourcePath))
		if export.AllowShadowing {
			spec.AllowShadowing = append(spec.AllowShadowing, export.Key)
		}
	}

	return spec
}

func composeOne(e *env, contentType string, report *composeReport) error {
	p := &compose.Pipeline{
		Root: e.resolver.Root,
		Spec: layerSpecFor(e, contentType),
	}
	result, err := p.Run()
	if err != nil {
		e.log.Error("compose failed", "content_type", contentType, "err", err)
		return err
	}
	out := filepath.Join(e.resolver.GeneratedDir(), contentType+".md")
	if err := storage.WriteTextAtomic(out, result.Output); err != nil {
		return err
	}
	e.log.Info("composed content type", "content_type", contentType, "records", len(result.Records), "out", out)
	report.FilesWritten = append(report.FilesWritten, out)
	report.RecordsMerged += len(result.Records)
	return nil
}
