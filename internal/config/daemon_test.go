package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glance-io/glance/internal/models"
)

func useHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return filepath.Join(home, GlobalDirName, DaemonFileName)
}

func TestIsDaemonRunningWithoutFile(t *testing.T) {
	useHome(t)

	running, info, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.False(t, running)
	assert.Nil(t, info)
}

func TestIsDaemonRunningForLiveProcess(t *testing.T) {
	useHome(t)
	saved := models.NewDaemonInfo("127.0.0.1", 4517, os.Getpid())
	saved.WebPort = 4518
	require.NoError(t, SaveDaemonInfo(saved))

	running, info, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, "127.0.0.1:4518", info.WebAddress())
}

func TestIsDaemonRunningRemovesStaleFile(t *testing.T) {
	path := useHome(t)
	require.NoError(t, SaveDaemonInfo(models.NewDaemonInfo("127.0.0.1", 4517, 0)))

	running, info, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.False(t, running)
	require.NotNil(t, info)
	assert.NoFileExists(t, path)
}

func TestLoadDaemonInfoRejectsMissingPort(t *testing.T) {
	path := useHome(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("pid: 42\n"), 0o644))

	_, err := LoadDaemonInfo()
	assert.ErrorContains(t, err, "missing API port")
}

func TestRemoveDaemonInfoIsIdempotent(t *testing.T) {
	useHome(t)
	assert.NoError(t, RemoveDaemonInfo())
}
