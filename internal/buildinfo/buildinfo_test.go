package buildinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "0.4.1"
	assert.Equal(t, "glanced/0.4.1", UserAgent("glanced"))
}

func TestDetails(t *testing.T) {
	rows := Details()
	assert.Equal(t, [2]string{"Commit", Commit}, rows[0])
	assert.Contains(t, rows, [2]string{"Go", runtime.Version()})
}
