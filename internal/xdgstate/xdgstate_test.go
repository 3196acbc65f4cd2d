package xdgstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDir_PrefersXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/custom/state")

	dir, err := Dir()
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("/custom/state", "testingls"), dir)
}

func TestDir_FallsBackToHomeDotLocalState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/example")

	dir, err := Dir()
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/example", ".local", "state", "testingls"), dir)
}
