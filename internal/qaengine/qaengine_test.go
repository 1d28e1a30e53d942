package qaengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edison-dev/edison/internal/config"
	"github.com/edison-dev/edison/internal/entity"
	"github.com/edison-dev/edison/internal/graph"
	"github.com/edison-dev/edison/internal/task"
)

func testBuckets() config.PresetInferenceConfig {
	return config.PresetInferenceConfig{
		Buckets: []config.PresetBucket{
			{Name: "docs", Globs: []string{"*.md"}, Preset: "quick"},
			{Name: "code", Globs: []string{"*.go", "*.ts"}, Preset: "standard", IsCode: true},
		},
	}
}

func TestResolvePresetExplicitOverrideWinsWhenItDoesNotDowngrade(t *testing.T) {
	r := ResolvePreset([]string{"a.md"}, testBuckets(), "standard")
	require.True(t, r.Explicit)
	require.Equal(t, "standard", r.Preset)
}

func TestResolvePresetExplicitOverrideIsClampedUpByCodeBucket(t *testing.T) {
	r := ResolvePreset([]string{"a.md"}, testBuckets(), "quick")
	require.Equal(t, "quick", r.Preset)

	r = ResolvePreset([]string{"main.go"}, testBuckets(), "quick")
	require.Equal(t, "standard", r.Preset)
	require.True(t, r.Explicit)
}

func TestResolvePresetTypeScriptFileEscalatesDespiteExplicitQuick(t *testing.T) {
	r := ResolvePreset([]string{"src/app.ts"}, testBuckets(), "quick")
	require.NotEqual(t, "quick", r.Preset)
	require.Equal(t, "standard", r.Preset)
}

func TestResolvePresetDocsOnlyIsQuick(t *testing.T) {
	r := ResolvePreset([]string{"README.md", "docs/guide.md"}, testBuckets(), "")
	require.Equal(t, "quick", r.Preset)
}

func TestResolvePresetCodeNeverDowngradesBelowStandard(t *testing.T) {
	r := ResolvePreset([]string{"README.md", "main.go"}, testBuckets(), "")
	require.Equal(t, "standard", r.Preset)
}

func TestExpandBracesHandlesSingleLevel(t *testing.T) {
	got := expandBraces("*.{go,ts}")
	require.ElementsMatch(t, []string{"*.go", "*.ts"}, got)
}

func TestBuildClusterHierarchy(t *testing.T) {
	idx := graph.BuildIndex([]graph.Node{
		{ID: "P", Relationships: []entity.Edge{{Type: "child", Target: "C1"}}},
		{ID: "C1"},
	})
	members, err := BuildCluster("P", ScopeHierarchy, idx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"P", "C1"}, members)
}

func TestBuildClusterRejectsUnknownScope(t *testing.T) {
	idx := graph.BuildIndex(nil)
	_, err := BuildCluster("P", Scope("bogus"), idx)
	require.Error(t, err)
}

func TestBuildClusterBundleMembersCarryRootEdge(t *testing.T) {
	idx := graph.BuildIndex([]graph.Node{
		{ID: "A"},
		{ID: "B", Relationships: []entity.Edge{{Type: "bundle_root", Target: "A"}}},
		{ID: "C", Relationships: []entity.Edge{{Type: "bundle_root", Target: "A"}}},
	})
	members, err := BuildCluster("A", ScopeBundle, idx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"A", "B", "C"}, members)
}

func TestBuildClusterBundleDerivesRootFromNonRootMember(t *testing.T) {
	idx := graph.BuildIndex([]graph.Node{
		{ID: "A"},
		{ID: "B", Relationships: []entity.Edge{{Type: "bundle_root", Target: "A"}}},
		{ID: "C", Relationships: []entity.Edge{{Type: "bundle_root", Target: "A"}}},
	})
	members, err := BuildCluster("B", ScopeBundle, idx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"A", "B", "C"}, members)
}

func TestUnionRosterDedupesAcrossMembers(t *testing.T) {
	cfg := config.ValidationConfig{
		Presets: map[string]config.PresetConfig{
			"quick":    {Validators: []string{"global-codex"}},
			"standard": {Validators: []string{"global-codex", "command-lint"}},
		},
	}
	roster := UnionRoster([]Resolution{{Preset: "quick"}, {Preset: "standard"}}, cfg)
	require.Len(t, roster, 2)
}

func TestBuildBundleSummaryFailsIfAnyMemberFails(t *testing.T) {
	members := []MemberSummary{
		{TaskID: "T1", Reports: []Report{{Status: StatusApproved}}},
		{TaskID: "T2", Reports: []Report{{Status: StatusRejected}}},
	}
	summary := BuildBundleSummary("T1", ScopeHierarchy, 1, members)
	require.False(t, summary.Passed)
	require.True(t, summary.Members[0].Passed)
	require.False(t, summary.Members[1].Passed)
}

func TestBuildBundleSummaryTreatsApprovedWithWarningsAsNonBlocking(t *testing.T) {
	members := []MemberSummary{
		{TaskID: "T1", Reports: []Report{{Status: StatusApprovedWithWarnings}}},
	}
	summary := BuildBundleSummary("T1", ScopeHierarchy, 1, members)
	require.True(t, summary.Passed)
	require.True(t, summary.Members[0].Passed)
}

func TestHasBundleApprovalBlocksWithoutPassingRound(t *testing.T) {
	guard := HasBundleApproval(func(taskID string) (*BundleSummary, bool) { return nil, false })
	tsk := task.New()
	tsk.ID = "T1"
	result := guard.Check(tsk, task.StatusDone, task.StatusValidated, &entity.TransitionContext{})
	require.False(t, result.Passed)
	require.Equal(t, entity.SeverityHardBlock, result.Severity)
}
