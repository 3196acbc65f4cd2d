// Package pathutil provides path manipulation that never touches the
// filesystem, so it stays usable against paths an adapter reports for a
// workspace this process cannot itself see (a remote build sandbox, a
// container mount, etc).
package pathutil

import (
	"path/filepath"
	"strings"
)

// Resolve joins relativePath onto baseDir (unless relativePath is already
// absolute) and lexically folds ".."/"." components, without ever
// calling stat/readlink. This mirrors the adapter's own path resolution
// so that a workspace root or file path reported through one adapter's
// output lines up byte-for-byte with paths the server already tracks.
func Resolve(baseDir, relativePath string) string {
	absolute := relativePath
	if !filepath.IsAbs(relativePath) {
		absolute = filepath.Join(baseDir, relativePath)
	}

	sep := string(filepath.Separator)
	parts := strings.Split(filepath.ToSlash(absolute), "/")

	var out []string
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}

	resolved := sep + strings.Join(out, sep)
	return filepath.FromSlash(resolved)
}
