package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/workspace"
)

func TestDetectWorkspacesFromFileList(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "outer")
	inner := filepath.Join(outer, "crates", "inner")
	require.NoError(t, os.MkdirAll(inner, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(outer, "Cargo.toml"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inner, "Cargo.toml"), []byte(""), 0o644))

	outerFile := filepath.Join(outer, "src", "lib.rs")
	innerFile := filepath.Join(inner, "src", "lib.rs")
	require.NoError(t, os.MkdirAll(filepath.Dir(outerFile), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(innerFile), 0o755))
	require.NoError(t, os.WriteFile(outerFile, []byte(""), 0o644))
	require.NoError(t, os.WriteFile(innerFile, []byte(""), 0o644))

	result := workspace.DetectWorkspacesFromFileList([]string{innerFile, outerFile}, []string{"Cargo.toml"})

	assert.ElementsMatch(t, []string{outerFile, innerFile}, result.Data[outer])
	assert.Contains(t, result.Data[inner], innerFile)
}

func TestMatchesGlobs(t *testing.T) {
	assert.True(t, workspace.MatchesGlobs("src/lib_test.go", nil, nil))
	assert.True(t, workspace.MatchesGlobs("src/lib_test.go", []string{"**/*_test.go"}, nil))
	assert.False(t, workspace.MatchesGlobs("vendor/foo_test.go", []string{"**/*_test.go"}, []string{"vendor/*"}))
}
