package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/graph"
	"github.com/edison-dev/edison/internal/qaengine"
	"github.com/edison-dev/edison/internal/session"
	"github.com/edison-dev/edison/internal/task"
)

// newQACmd wires the QA engine operations from spec.md §6: bundle,
// validate, promote.
func newQACmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Validation bundle scoping, execution, and promotion",
	}

	var scopeFlag string
	bundle := &cobra.Command{
		Use:   "bundle <root>",
		Short: "Show the validation cluster for root under the given scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.load()
			if err != nil {
				return err
			}
			idx, err := buildTaskIndex(e)
			if err != nil {
				return err
			}
			members, err := qaengine.BuildCluster(args[0], qaengine.Scope(scopeFlag), idx)
			if err != nil {
				return err
			}
			return printJSON(members)
		},
	}
	bundle.Flags().StringVar(&scopeFlag, "scope", "auto", "hierarchy | bundle | auto")
	cmd.AddCommand(bundle)

	var (
		validateScope string
		execute       bool
		dryRun        bool
		presetFlag    string
		files         []string
	)
	validate := &cobra.Command{
		Use:   "validate <root>",
		Short: "Resolve the union roster for root's cluster and optionally run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			e, err := app.load()
			if err != nil {
				return err
			}
			idx, err := buildTaskIndex(e)
			if err != nil {
				return err
			}
			members, err := qaengine.BuildCluster(root, qaengine.Scope(validateScope), idx)
			if err != nil {
				return err
			}

			var resolutions []qaengine.Resolution
			memberPresets := make(map[string]qaengine.Resolution, len(members))
			for _, m := range members {
				t, err := e.taskRepo.Load(m)
				if err != nil {
					return err
				}
				r := qaengine.ResolvePreset(files, e.cfg.Validation.PresetInference, firstNonEmpty(presetFlag, t.Preset))
				resolutions = append(resolutions, r)
				memberPresets[m] = r
			}
			roster := qaengine.UnionRoster(resolutions, e.cfg.Validation)

			if dryRun || !execute {
				return printJSON(map[string]any{
					"root":    root,
					"scope":   validateScope,
					"members": members,
					"roster":  roster,
					"presets": memberPresets,
				})
			}

			return runValidation(e, root, qaengine.Scope(validateScope), members, memberPresets, roster)
		},
	}
	validate.Flags().StringVar(&validateScope, "scope", "auto", "hierarchy | bundle | auto")
	validate.Flags().BoolVar(&execute, "execute", false, "run the resolved validator roster")
	validate.Flags().BoolVar(&dryRun, "dry-run", false, "only resolve the roster, never run it")
	validate.Flags().StringVar(&presetFlag, "preset", "", "explicit preset override (never downgrades below standard when code changed)")
	validate.Flags().StringSliceVar(&files, "files", nil, "changed file paths driving preset inference")
	cmd.AddCommand(validate)

	var promoteForce bool
	promote := &cobra.Command{
		Use:   "promote <task-id>",
		Short: "Promote a task from done to validated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			e, err := app.load()
			if err != nil {
				return err
			}
			guards := qaengine.PromotionGuards(
				func(id string) (*qaengine.BundleSummary, bool) { return qaengine.LoadLatestBundleSummary(e.resolver, id) },
				func(id string) []string { return evidenceFilesForLatestRound(e, id) },
				func(id string) []string { return requiredEvidenceFor(e, id) },
				func(id string) (bool, bool) { return false, true }, // no optional waves tracked yet
			)
			if _, err := e.taskRepo.Transition(taskID, task.StatusValidated, entity.TransitionOpts{
				Force:  promoteForce,
				Guards: guards,
			}); err != nil {
				return err
			}
			sessionID := task.LookupOwner(e.resolver, taskID)
			if sessionID != "" {
				_ = session.RemoveClaimedTask(e.sessionRepo, sessionID, taskID)
			}
			t, err := e.taskRepo.Load(taskID)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	promote.Flags().BoolVar(&promoteForce, "force", false, "override soft-block promotion guards")
	cmd.AddCommand(promote)

	return cmd
}

func buildTaskIndex(e *env) (*graph.Index, error) {
	all, err := taskListAll(e)
	if err != nil {
		return nil, err
	}
	return graph.BuildIndex(task.ToNodes(all)), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// runValidation executes the union roster once at root's evidence
// directory and writes the shared bundle summary, per spec.md §4.5
// C5.3-C5.5: validators run once for the whole cluster, not once per
// member.
func runValidation(e *env, root string, scope qaengine.Scope, members []string, memberPresets map[string]qaengine.Resolution, roster []qaengine.Validator) error {
	round := qaengineNextRound(e, root)
	evidenceDir := e.resolver.EvidenceRound(root, round)

	executor := &qaengine.DelegatingExecutor{
		CommandFor: func(v qaengine.Validator, dir string) (string, []string) {
			return filepath.Join(e.resolver.Root, ".edison", "validators", v.Name), nil
		},
	}

	var reports []qaengine.Report
	for _, v := range roster {
		report, _ := executor.Run(context.Background(), v, evidenceDir)
		reports = append(reports, *report)
		_ = qaengine.WriteReport(e.resolver, root, round, *report)
	}

	var memberSummaries []qaengine.MemberSummary
	for _, m := range members {
		memberSummaries = append(memberSummaries, qaengine.MemberSummary{
			TaskID:  m,
			Preset:  memberPresets[m].Preset,
			Reports: reports,
		})
	}
	summary := qaengine.BuildBundleSummary(root, scope, round, memberSummaries)
	if err := qaengine.WriteBundleSummary(e.resolver, summary); err != nil {
		return err
	}
	return printJSON(summary)
}

func qaengineNextRound(e *env, taskID string) int {
	return qaengine.NextRound(e.resolver, taskID)
}

func evidenceFilesForLatestRound(e *env, taskID string) []string {
	return qaengine.EvidenceFilesForLatestRound(e.resolver, taskID)
}

// requiredEvidenceFor looks up the preset recorded against taskID in
// its most recent bundle round and returns that preset's declared
// required evidence and report files (spec.md §4.5 C5.6).
func requiredEvidenceFor(e *env, taskID string) []string {
	summary, ok := qaengine.LoadLatestBundleSummary(e.resolver, taskID)
	if !ok {
		return nil
	}
	var preset string
	for _, m := range summary.Members {
		if m.TaskID == taskID {
			preset = m.Preset
		}
	}
	cfg, ok := e.cfg.Validation.Presets[preset]
	if !ok {
		return nil
	}
	required := append([]string{}, cfg.RequiredEvidence...)
	required = append(required, cfg.RequiredReports...)
	return required
}

