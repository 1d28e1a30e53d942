package qaengine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/edison-dev/edison/internal/edisonerr"
	"github.com/edison-dev/edison/internal/paths"
	"github.com/edison-dev/edison/internal/storage"
)

// NextRound returns the round number a fresh validation run for
// taskID should use: one past the highest existing "round-N"
// directory, or 1 if none exist yet (spec.md §3 Evidence: "round N+1
// exists only if round N exists").
func NextRound(resolver *paths.Resolver, taskID string) int {
	entries, err := os.ReadDir(resolver.EvidenceRoot(taskID))
	if err != nil {
		return 1
	}
	max := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, ok := strings.CutPrefix(e.Name(), "round-")
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(n); err == nil && v > max {
			max = v
		}
	}
	return max + 1
}

// WriteReport writes one validator's JSON and markdown evidence files
// into the round directory, per the executor contract in spec.md §4.5
// C5.4.
func WriteReport(resolver *paths.Resolver, taskID string, round int, report Report) error {
	dir := resolver.EvidenceRound(taskID, round)
	if err := storage.WriteJSONAtomic(filepath.Join(dir, report.Validator+".json"), report); err != nil {
		return err
	}
	md := fmt.Sprintf("# %s\n\nstatus: %s\n\n```\n%s\n```\n", report.Validator, report.Status, report.Output)
	return storage.WriteTextAtomic(filepath.Join(dir, report.Validator+".md"), []byte(md))
}

// WriteBundleSummary mirrors the same bundle.json into the round
// directory of every member listed in the summary. The root's own
// directory is written only as one of those members (BuildCluster
// always includes the root). See DESIGN.md, Open Question
// resolution 1.
func WriteBundleSummary(resolver *paths.Resolver, summary BundleSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return edisonerr.Wrap(edisonerr.KindIOError, summary.Root, "marshalling bundle summary", err)
	}
	for _, m := range summary.Members {
		path := filepath.Join(resolver.EvidenceRound(m.TaskID, summary.Round), "bundle.json")
		if err := storage.WriteTextAtomic(path, data); err != nil {
			return err
		}
	}
	return nil
}

// LoadLatestBundleSummary reads the highest-numbered round's
// bundle.json for taskID, used by the promotion guard
// HasBundleApproval.
func LoadLatestBundleSummary(resolver *paths.Resolver, taskID string) (*BundleSummary, bool) {
	round := NextRound(resolver, taskID) - 1
	if round < 1 {
		return nil, false
	}
	raw, err := storage.ReadText(filepath.Join(resolver.EvidenceRound(taskID, round), "bundle.json"))
	if err != nil {
		return nil, false
	}
	var summary BundleSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

// EvidenceFilesForLatestRound lists the basenames present in taskID's
// most recent evidence round, used by HasRequiredEvidence.
func EvidenceFilesForLatestRound(resolver *paths.Resolver, taskID string) []string {
	round := NextRound(resolver, taskID) - 1
	if round < 1 {
		return nil
	}
	entries, err := os.ReadDir(resolver.EvidenceRound(taskID, round))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
