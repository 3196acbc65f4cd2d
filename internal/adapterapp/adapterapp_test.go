package adapterapp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wharflab/testingls/internal/adapterapp"
)

func TestPickTestKindMissing(t *testing.T) {
	_, _, err := adapterapp.PickTestKind(nil)
	require.Error(t, err)

	_, _, err = adapterapp.PickTestKind([]string{"--foo=bar"})
	require.Error(t, err)
}

func TestPickTestKindFound(t *testing.T) {
	remaining, r, err := adapterapp.PickTestKind([]string{"--test-kind=cargo-test"})
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Equal(t, "cargo-test", r.TestKind())
}

func TestPickTestKindFirstOccurrenceWins(t *testing.T) {
	remaining, r, err := adapterapp.PickTestKind([]string{
		"--test-kind=cargo-test",
		"--test-kind=jest",
		"--test-kind=foo",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"--test-kind=jest", "--test-kind=foo"}, remaining)
	assert.Equal(t, "cargo-test", r.TestKind())
}

func TestPickTestKindUnknown(t *testing.T) {
	_, _, err := adapterapp.PickTestKind([]string{"--test-kind=not-a-real-kind"})
	require.Error(t, err)
}

func TestAllRunnersRegistered(t *testing.T) {
	adapterapp.RegisterAll()
	for _, kind := range []string{
		"go-test", "cargo-test", "cargo-nextest", "jest", "vitest", "deno", "node-test", "phpunit",
	} {
		_, _, err := adapterapp.PickTestKind([]string{"--test-kind=" + kind})
		assert.NoError(t, err, kind)
	}
}
