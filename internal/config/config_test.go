package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/pcb2video/internal/system"
)

func validConfig() Config {
	cfg := Default()
	cfg.InputPath = "board.kicad_pcb"
	cfg.Segments = []string{"1s z(1) -> z(2)"}
	cfg.Width, cfg.Height = 640, 480
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"no input", func(c *Config) { c.InputPath = "" }, true},
		{"no segments", func(c *Config) { c.Segments = nil }, true},
		{"no resolution", func(c *Config) { c.Width = 0 }, true},
		{"zero fps", func(c *Config) { c.FPS = 0 }, true},
		{"zero jobs", func(c *Config) { c.Workers = 0 }, true},
		{"too many jobs", func(c *Config) { c.Workers = 9 }, true},
		{"jpg", func(c *Config) { c.ImageFormat = "jpg" }, false},
		{"bmp", func(c *Config) { c.ImageFormat = "bmp" }, true},
		{"opaque", func(c *Config) { c.KiCad.Background = "opaque" }, false},
		{"bad background", func(c *Config) { c.KiCad.Background = "green" }, true},
		{"bad quality", func(c *Config) { c.KiCad.Quality = "ultra" }, true},
		{"negative crf", func(c *Config) { c.FFmpeg.Quality = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	w, h, err := ParseResolution("640x480")
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	for _, bad := range []string{"", "640", "640x", "x480", "axb", "0x480", "640x-1"} {
		_, _, err := ParseResolution(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"anim.yaml": "input: board.kicad_pcb\nfps: 25\nsegments:\n  - \"1s z(1) -> z(2)\"\nkicad:\n  floor: true\n",
		"anim.toml": "input = \"board.kicad_pcb\"\nfps = 25\nsegments = [\"1s z(1) -> z(2)\"]\n[kicad]\nfloor = true\n",
		"anim.json": `{"input":"board.kicad_pcb","fps":25,"segments":["1s z(1) -> z(2)"],"kicad":{"floor":true}}`,
	}

	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "board.kicad_pcb", cfg.InputPath)
			assert.Equal(t, 25, cfg.FPS)
			assert.Equal(t, []string{"1s z(1) -> z(2)"}, cfg.Segments)
			assert.True(t, cfg.KiCad.Floor)
			// Unset keys keep their defaults.
			assert.True(t, cfg.KiCad.Perspective)
			assert.Equal(t, "kicad-cli", cfg.KiCad.CLI)
			assert.Equal(t, system.DefaultWorkers(MaxJobs), cfg.Workers)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "anim.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "anim.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fps: [nope"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}
