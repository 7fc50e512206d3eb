package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDir = "/etc/dt_fancontrol"

func writeConfig(t *testing.T, fsys afero.Fs, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(testDir, "config.yml"), []byte(body), 0o644))
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFs(afero.NewMemMapFs(), testDir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "app.db", cfg.DB.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.True(t, cfg.Serial.SkipMalformed)
	assert.False(t, cfg.Serial.Simulate)
	assert.Equal(t, "sqlite", cfg.Curve.Store)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeConfig(t, fsys, `
port: "9090"
log:
  level: debug
  encoding: json
serial:
  port: /dev/ttyUSB0
  read_timeout: 100ms
  simulate: true
sim:
  interval: 500ms
  ambient: 25.5
curve:
  store: file
  file: /tmp/curve.json
mqtt:
  enabled: true
  broker: tcp://broker:1883
  topic: desk/fan
  qos: 1
`)
	cfg, err := LoadFs(fsys, testDir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.True(t, cfg.Serial.Simulate)
	assert.Equal(t, 500*time.Millisecond, cfg.Sim.Interval)
	assert.InDelta(t, 25.5, cfg.Sim.AmbientC, 1e-9)
	assert.Equal(t, "file", cfg.Curve.Store)
	assert.Equal(t, "/tmp/curve.json", cfg.Curve.File)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "dt_fancontrol", cfg.MQTT.ClientID)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeConfig(t, fsys, "serial:\n  port: COM3\n")
	t.Setenv("DTFAN_SERIAL_PORT", "COM7")
	t.Setenv("DTFAN_PORT", "7070")

	cfg, err := LoadFs(fsys, testDir)
	require.NoError(t, err)
	assert.Equal(t, "COM7", cfg.Serial.Port)
	assert.Equal(t, "7070", cfg.Port)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown store":       "curve:\n  store: redis\n",
		"file store w/o path": "curve:\n  store: file\n  file: \"\"\n",
		"mqtt without topic":  "mqtt:\n  enabled: true\n  topic: \"\"\n",
		"qos out of range":    "mqtt:\n  qos: 3\n",
		"broken yaml":         "serial: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeConfig(t, fsys, body)
			_, err := LoadFs(fsys, testDir)
			assert.Error(t, err)
		})
	}
}
