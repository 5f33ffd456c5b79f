package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/pcb2video/internal/system"
)

// MaxJobs bounds the number of concurrent render processes.
const MaxJobs = 8

type Config struct {
	InputPath   string   `yaml:"input" toml:"input" json:"input"`
	OutputVideo string   `yaml:"output" toml:"output" json:"output"`
	Segments    []string `yaml:"segments" toml:"segments" json:"segments"`
	Scenario    string   `yaml:"scenario" toml:"scenario" json:"scenario"`

	Width       int    `yaml:"width" toml:"width" json:"width"`
	Height      int    `yaml:"height" toml:"height" json:"height"`
	FPS         int    `yaml:"fps" toml:"fps" json:"fps"`
	Workers     int    `yaml:"jobs" toml:"jobs" json:"jobs"`
	TmpDir      string `yaml:"tmpdir" toml:"tmpdir" json:"tmpdir"`
	ImageFormat string `yaml:"img_format" toml:"img_format" json:"img_format"`
	Overwrite   bool   `yaml:"overwrite" toml:"overwrite" json:"overwrite"`
	DryRun      bool   `yaml:"dry_run" toml:"dry_run" json:"dry_run"`

	// EncodeOnFailure кодирует видео даже если часть кадров не отрендерилась
	EncodeOnFailure bool `yaml:"encode_on_failure" toml:"encode_on_failure" json:"encode_on_failure"`

	KiCad  KiCadConfig  `yaml:"kicad" toml:"kicad" json:"kicad"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg" toml:"ffmpeg" json:"ffmpeg"`

	Debug          bool   `yaml:"debug" toml:"debug" json:"debug"`
	NoColor        bool   `yaml:"nocolor" toml:"nocolor" json:"nocolor"`
	ShowStats      bool   `yaml:"stats" toml:"stats" json:"stats"`
	MetricsFile    string `yaml:"metrics_file" toml:"metrics_file" json:"metrics_file"`
	ScenarioOutput string `yaml:"write_scenario" toml:"write_scenario" json:"write_scenario"`
	BuildVersion   string `yaml:"-" toml:"-" json:"-"`
}

type KiCadConfig struct {
	CLI         string `yaml:"cli" toml:"cli" json:"cli"`
	Background  string `yaml:"background" toml:"background" json:"background"`
	Floor       bool   `yaml:"floor" toml:"floor" json:"floor"`
	Perspective bool   `yaml:"perspective" toml:"perspective" json:"perspective"`
	Preset      string `yaml:"preset" toml:"preset" json:"preset"`
	Quality     string `yaml:"quality" toml:"quality" json:"quality"`
}

type FFmpegConfig struct {
	Path    string `yaml:"path" toml:"path" json:"path"`
	Encoder string `yaml:"encoder" toml:"encoder" json:"encoder"`
	Quality int    `yaml:"quality" toml:"quality" json:"quality"` // 0 - по умолчанию для энкодера
	Preset  string `yaml:"preset" toml:"preset" json:"preset"`
}

// Default returns the settings used when neither a file nor a flag says otherwise.
func Default() Config {
	return Config{
		FPS:         30,
		Workers:     system.DefaultWorkers(MaxJobs),
		TmpDir:      ".",
		ImageFormat: "png",
		KiCad: KiCadConfig{
			CLI:         "kicad-cli",
			Background:  "transparent",
			Perspective: true,
			Preset:      "follow_pcb_editor",
			Quality:     "high",
		},
		FFmpeg: FFmpegConfig{
			Path:    "ffmpeg",
			Encoder: "libx264",
			Preset:  "slow",
		},
	}
}

// Validate checks everything that can be checked before any process starts.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("не задан файл платы (.kicad_pcb)")
	}
	if len(c.Segments) == 0 {
		return fmt.Errorf("не задано ни одного сегмента")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("некорректное разрешение %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("некорректный FPS: %d", c.FPS)
	}
	if c.Workers < 1 || c.Workers > MaxJobs {
		return fmt.Errorf("число потоков должно быть в диапазоне [1..%d], получено %d", MaxJobs, c.Workers)
	}
	if err := oneOf("img_format", c.ImageFormat, "png", "jpg"); err != nil {
		return err
	}
	if err := oneOf("kicad.background", c.KiCad.Background, "transparent", "opaque"); err != nil {
		return err
	}
	if err := oneOf("kicad.quality", c.KiCad.Quality, "basic", "high", "user"); err != nil {
		return err
	}
	if c.FFmpeg.Quality < 0 {
		return fmt.Errorf("некорректное качество: %d", c.FFmpeg.Quality)
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: %q, допустимо: %s", name, value, strings.Join(allowed, "|"))
}

// ParseResolution parses "640x480".
func ParseResolution(s string) (int, int, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("разрешение должно быть вида 640x480, получено %q", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("некорректная ширина в %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("некорректная высота в %q", s)
	}
	return width, height, nil
}
