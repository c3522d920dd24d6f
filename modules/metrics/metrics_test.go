package metrics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReadFile(t *testing.T) {
	mf := filepath.Join(t.TempDir(), "metrics.msgpack")

	md := InitData(DataOpts{
		Project:     "home",
		Server:      "pi4",
		MetricsFile: mf,
		Enabled:     true,
	})
	md.AddDeviceMetrics("device1", map[string]float64{BackupOk: 1, BackupTime: 1250})
	md.AddDeviceMetrics("device1", map[string]float64{BackupSize: 1 << 20})

	require.NoError(t, md.SaveFile())

	got, err := readFile(mf)
	require.NoError(t, err)
	assert.Equal(t, "home", got.Project)
	assert.Equal(t, "pi4", got.Server)

	dev, ok := got.Device["device1"]
	require.True(t, ok)
	assert.Equal(t, float64(1), dev.Values[BackupOk])
	assert.Equal(t, float64(1250), dev.Values[BackupTime])
	assert.Equal(t, float64(1<<20), dev.Values[BackupSize])
}

func TestSaveFileDisabled(t *testing.T) {
	mf := filepath.Join(t.TempDir(), "metrics.msgpack")

	md := InitData(DataOpts{MetricsFile: mf, Enabled: false})
	require.NoError(t, md.SaveFile())
	assert.NoFileExists(t, mf)
}
