package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestPipelineLayersCoreThenProjectByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "core/agent.md", "core instructions")
	writeFile(t, root, "overlay/agent.md", "project addendum")

	p := &Pipeline{
		Root: root,
		Spec: LayerSpec{CoreSubpath: "core", ProjectSubpath: "overlay"},
	}
	result, err := p.Run()
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Contains(t, result.Records[0].Content, "core instructions")
	require.Contains(t, result.Records[0].Content, "project addendum")
}

func TestPipelineAllowsExplicitShadowing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "core/agent.md", "core instructions")
	writeFile(t, root, "overlay/agent.md", "replacement")

	p := &Pipeline{
		Root: root,
		Spec: LayerSpec{CoreSubpath: "core", ProjectSubpath: "overlay", AllowShadowing: []string{"agent"}},
	}
	result, err := p.Run()
	require.NoError(t, err)
	require.Equal(t, "replacement", result.Records[0].Content)
}

func TestPipelineRejectsEmptyRecord(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "core/agent.md", "")

	p := &Pipeline{Root: root, Spec: LayerSpec{CoreSubpath: "core"}}
	_, err := p.Run()
	require.Error(t, err)
}

func TestPipelineHandlesMissingLayerDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "core/agent.md", "core instructions")

	p := &Pipeline{Root: root, Spec: LayerSpec{CoreSubpath: "core", ProjectSubpath: "nonexistent"}}
	result, err := p.Run()
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
}
