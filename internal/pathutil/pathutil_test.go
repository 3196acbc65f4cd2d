package pathutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wharflab/testingls/internal/pathutil"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		baseDir  string
		relative string
		want     string
	}{
		{"relative joins base", "/home/user/project", "src/lib.rs", "/home/user/project/src/lib.rs"},
		{"parent dir folds", "/home/user/project/src", "../lib/mod.rs", "/home/user/project/lib/mod.rs"},
		{"absolute path ignores base", "/home/user/project", "/etc/config.toml", "/etc/config.toml"},
		{"leading parent clamps at root", "/a", "../../b", "/b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pathutil.Resolve(tc.baseDir, tc.relative))
		})
	}
}
