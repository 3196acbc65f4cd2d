// Package workspace detects, for a set of candidate files, the nearest
// enclosing project root by walking upward for a marker file
// (go.mod, Cargo.toml, package.json, deno.json, composer.json, ...),
// and separately tracks which files an adapter's include/exclude globs
// currently select within a workspace.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/wharflab/testingls/internal/spec"
)

// MarkerFiles are the default project-root markers checked per
// framework; a workspace-root detector call supplies whichever subset
// applies to its adapter.
var MarkerFiles = map[spec.AdapterId][]string{
	"go-test":        {"go.mod"},
	"cargo-test":     {"Cargo.toml"},
	"cargo-nextest":  {"Cargo.toml"},
	"jest":           {"package.json"},
	"vitest":         {"package.json", "vitest.config.ts", "vitest.config.js"},
	"deno":           {"deno.json", "deno.jsonc"},
	"node-test":      {"package.json"},
	"phpunit":        {"composer.json"},
}

// DetectWorkspacesFromFileList groups targetFilePaths under the
// workspace root(s) they belong to.
//
// Files are processed shortest-path-first so ancestor directories are
// considered before descendants. For each file, two independent
// attachment attempts are made: (1) if the file falls under a root
// already discovered by an earlier (shorter) file, it is attached
// there too; (2) the file's own directory chain is walked upward
// looking for a marker file, and if one is found the file is attached
// under that root as well. A nested project's own marker can therefore
// attach a file to both an outer and an inner root. The same
// (root, file) pair is never recorded twice.
func DetectWorkspacesFromFileList(targetFilePaths []string, fileNames []string) spec.DetectWorkspaceResult {
	result := map[string][]string{}

	files := append([]string(nil), targetFilePaths...)
	sort.Slice(files, func(i, j int) bool { return len(files[i]) < len(files[j]) })

	contains := func(haystack []string, needle string) bool {
		for _, v := range haystack {
			if v == needle {
				return true
			}
		}
		return false
	}

	for _, filePath := range files {
		for root := range result {
			if strings.Contains(filePath, root) {
				if !contains(result[root], filePath) {
					result[root] = append(result[root], filePath)
				}
			}
		}

		if root := detectWorkspaceFromFile(filePath, fileNames); root != "" {
			if !contains(result[root], filePath) {
				result[root] = append(result[root], filePath)
			}
		}
	}

	return spec.DetectWorkspaceResult{Data: result}
}

// detectWorkspaceFromFile walks filePath's directory chain upward
// looking for the first directory containing any of fileNames.
func detectWorkspaceFromFile(filePath string, fileNames []string) string {
	dir := filepath.Dir(filePath)
	for {
		for _, name := range fileNames {
			if fileExists(filepath.Join(dir, name)) {
				return dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MatchesGlobs reports whether relPath (forward-slash, relative to the
// workspace root) is selected by an adapter's include/exclude
// configuration. An empty include list means "everything"; any exclude
// match always wins over an include match.
func MatchesGlobs(relPath string, include, exclude []string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range exclude {
		if matched, _ := doublestar.Match(normalizePattern(pattern), relPath); matched {
			return false
		}
	}

	if len(include) == 0 {
		return true
	}

	for _, pattern := range include {
		if matched, _ := doublestar.Match(normalizePattern(pattern), relPath); matched {
			return true
		}
	}
	return false
}

// normalizePattern lets a bare relative pattern like "vendor/*" match at
// any directory depth, the same convention the teacher's discovery
// package uses for exclude globs.
func normalizePattern(pattern string) string {
	pattern = filepath.ToSlash(pattern)
	if !strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		pattern = "**/" + pattern
	}
	return pattern
}
