package gotest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/runner/gotest"
)

const sampleStream = `{"Action":"run","Test":"TestSubtract"}
{"Action":"output","Test":"TestSubtract","Output":"    cases_test.go:31: \n"}
{"Action":"output","Test":"TestSubtract","Output":"        Error Trace:\tcases_test.go:31\n"}
{"Action":"output","Test":"TestSubtract","Output":"        Error:      \tNot equal: \n"}
{"Action":"fail","Test":"TestSubtract"}
`

func TestParseDiagnostics(t *testing.T) {
	target := "/home/demo/test/go/src/test/cases_test.go"
	result, err := gotest.ParseDiagnostics(sampleStream, "/home/demo/test/go/src/test", []string{target})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, target, result.Data[0].Path)
	require.NotEmpty(t, result.Data[0].Diagnostics)
	diag := result.Data[0].Diagnostics[0]
	assert.Equal(t, uint32(30), diag.Range.Start.Line)
	assert.Equal(t, uint32(1), diag.Range.Start.Character)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cases_test.go")
	src := `package demo

import "testing"

func TestAdd(t *testing.T) {
	if 1+1 != 2 {
		t.Fatal("broken")
	}
}

func TestTableCases(t *testing.T) {
	cases := []struct {
		name string
		in   int
	}{
		{name: "one", in: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_ = tc.in
		})
	}
}
`
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))

	items, err := gotest.Discover(file)
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	var names []string
	for _, it := range items {
		names = append(names, it.Id)
	}
	assert.Contains(t, names, "TestAdd")
}
