package qaengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/paths"
)

func newTestResolver(t *testing.T) *paths.Resolver {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".edison"), 0o755))
	r, err := paths.Resolve(root)
	require.NoError(t, err)
	return r
}

func TestNextRoundStartsAtOne(t *testing.T) {
	resolver := newTestResolver(t)
	require.Equal(t, 1, NextRound(resolver, "T1"))
}

func TestNextRoundAdvancesPastHighestExisting(t *testing.T) {
	resolver := newTestResolver(t)
	require.NoError(t, os.MkdirAll(resolver.EvidenceRound("T1", 1), 0o755))
	require.NoError(t, os.MkdirAll(resolver.EvidenceRound("T1", 3), 0o755))
	require.Equal(t, 4, NextRound(resolver, "T1"))
}

func TestWriteReportWritesJSONAndMarkdown(t *testing.T) {
	resolver := newTestResolver(t)
	report := Report{Validator: "lint", Status: StatusApproved, Output: "ok"}
	require.NoError(t, WriteReport(resolver, "T1", 1, report))

	dir := resolver.EvidenceRound("T1", 1)
	_, err := os.Stat(filepath.Join(dir, "lint.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "lint.md"))
	require.NoError(t, err)
}

func TestWriteBundleSummaryMirrorsIntoEveryMember(t *testing.T) {
	resolver := newTestResolver(t)
	summary := BuildBundleSummary("ROOT", ScopeBundle, 2, []MemberSummary{
		{TaskID: "A", Preset: "standard", Reports: []Report{{Validator: "lint", Status: StatusApproved}}},
		{TaskID: "B", Preset: "standard", Reports: []Report{{Validator: "lint", Status: StatusApproved}}},
	})
	require.NoError(t, WriteBundleSummary(resolver, summary))

	for _, id := range []string{"A", "B"} {
		_, err := os.Stat(filepath.Join(resolver.EvidenceRound(id, 2), "bundle.json"))
		require.NoError(t, err)
	}
}

func TestLoadLatestBundleSummaryReturnsFalseWhenNoneWritten(t *testing.T) {
	resolver := newTestResolver(t)
	_, ok := LoadLatestBundleSummary(resolver, "T1")
	require.False(t, ok)
}

func TestLoadLatestBundleSummaryRoundTrips(t *testing.T) {
	resolver := newTestResolver(t)
	summary := BuildBundleSummary("T1", ScopeHierarchy, 1, []MemberSummary{
		{TaskID: "T1", Preset: "quick", Reports: nil, Passed: true},
	})
	require.NoError(t, WriteBundleSummary(resolver, summary))

	loaded, ok := LoadLatestBundleSummary(resolver, "T1")
	require.True(t, ok)
	require.Equal(t, 1, loaded.Round)
	require.Equal(t, "T1", loaded.Root)
}

func TestEvidenceFilesForLatestRoundListsWrittenFiles(t *testing.T) {
	resolver := newTestResolver(t)
	require.NoError(t, WriteReport(resolver, "T1", 1, Report{Validator: "lint", Status: StatusApproved}))

	files := EvidenceFilesForLatestRound(resolver, "T1")
	require.ElementsMatch(t, []string{"lint.json", "lint.md"}, files)
}

func TestEvidenceFilesForLatestRoundEmptyWhenNoRounds(t *testing.T) {
	resolver := newTestResolver(t)
	require.Empty(t, EvidenceFilesForLatestRound(resolver, "T1"))
}
