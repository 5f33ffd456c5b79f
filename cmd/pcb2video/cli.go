package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ivlev/pcb2video/internal/config"
	"github.com/ivlev/pcb2video/internal/director"
	"github.com/ivlev/pcb2video/internal/dispatch"
	"github.com/ivlev/pcb2video/internal/engine"
	"github.com/ivlev/pcb2video/internal/logging"
	"github.com/ivlev/pcb2video/internal/metrics"
	"github.com/ivlev/pcb2video/internal/system"
)

const boardDir = "input/pcb"

const segmentHelp = `Segment syntax:
  <duration> <keyframe> -> <keyframe>
  duration: 1.5s or 1500ms
  keyframe: any of z(zoom) rot(x,y,z) pan(x,y,z) piv(x,y,z),
            both sides must name the same groups

Example:
  pcb2video --in board.kicad_pcb --res 640x480 --out board.mp4 \
    -s "1s z(0.9) rot(0,0,0) -> z(0.9) rot(90,0,0)" \
    -s "1s z(0.9) rot(90,0,0) -> z(1.2) rot(90,0,45)"`

// options собирает значения флагов до наложения на файл конфигурации.
type options struct {
	cfg        config.Config
	configPath string
	res        string
	noPersp    bool
}

func newOptions() *options {
	return &options{cfg: config.Default()}
}

func newRootCmd() *cobra.Command {
	o := newOptions()

	root := &cobra.Command{
		Use:           "pcb2video",
		Short:         "Render a KiCad board fly-around into a video",
		Long:          "Renders every frame of a keyframed camera path with kicad-cli and joins them with ffmpeg.\n\n" + segmentHelp,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	o.bind(root.Flags())

	root.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := o.resolve(cmd.Flags())
		if err != nil {
			early := logging.New(os.Stderr, o.cfg.Debug, o.cfg.NoColor)
			early.Error().Msgf("[-] Ошибка: %v", err)
			return err
		}
		log := logging.New(os.Stderr, cfg.Debug, cfg.NoColor)
		if err := run(cmd, &cfg, log); err != nil {
			log.Error().Msgf("[-] Ошибка: %v", err)
			return err
		}
		return nil
	}
	return root
}

func (o *options) bind(fs *pflag.FlagSet) {
	cfg := &o.cfg
	fs.StringVar(&o.configPath, "config", "", "YAML/TOML/JSON config file")
	fs.BoolVarP(&cfg.Debug, "debug", "d", cfg.Debug, "debug mode")
	fs.BoolVar(&cfg.NoColor, "nocolor", cfg.NoColor, "disable color output")
	fs.BoolVarP(&cfg.Overwrite, "overwrite", "C", cfg.Overwrite, "overwrite existing images")
	fs.StringVar(&cfg.KiCad.CLI, "cli", cfg.KiCad.CLI, "kicad-cli executable")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "go through all motions except running processes")
	fs.StringVar(&cfg.FFmpeg.Path, "ffmpeg", cfg.FFmpeg.Path, "ffmpeg executable")
	fs.StringVar(&cfg.FFmpeg.Encoder, "encoder", cfg.FFmpeg.Encoder, "H.264 encoder, or auto to probe ffmpeg")
	fs.IntVar(&cfg.FFmpeg.Quality, "quality", cfg.FFmpeg.Quality, "video quality (0 = encoder default)")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "video framerate")
	fs.StringVar(&cfg.ImageFormat, "img-format", cfg.ImageFormat, "image format of frames: jpg|png")
	fs.IntVarP(&cfg.Workers, "jobs", "j", cfg.Workers,
		fmt.Sprintf("maximum number of concurrent jobs [1..%d]", config.MaxJobs))
	fs.StringVar(&cfg.OutputVideo, "out", cfg.OutputVideo, "output video file; if absent only frames are rendered")
	fs.StringVar(&cfg.TmpDir, "tmpdir", cfg.TmpDir, "frame directory")
	fs.BoolVar(&cfg.EncodeOnFailure, "encode-on-failure", cfg.EncodeOnFailure, "encode the video even if some frames failed")

	fs.StringVar(&cfg.KiCad.Background, "kc-background", cfg.KiCad.Background, "transparent|opaque")
	fs.StringVar(&cfg.KiCad.Quality, "kc-quality", cfg.KiCad.Quality, "basic|high|user")
	fs.StringVar(&cfg.KiCad.Preset, "kc-preset", cfg.KiCad.Preset, "kicad-cli color preset")
	fs.BoolVar(&cfg.KiCad.Floor, "kc-floor", cfg.KiCad.Floor, "render the floor")
	fs.BoolVar(&o.noPersp, "no-kc-perspective", false, "do NOT use --perspective")

	fs.StringVar(&cfg.InputPath, "in", "", "board file (default: newest *.kicad_pcb in "+boardDir+")")
	fs.StringVar(&o.res, "res", "", "target video resolution, e.g. 640x480")
	fs.StringArrayVarP(&cfg.Segments, "segment", "s", nil, "add a video segment, may be repeated")
	fs.StringVar(&cfg.Scenario, "scenario", "", "read segments from a scenario file")
	fs.StringVar(&cfg.ScenarioOutput, "write-scenario", "", "write the parsed plan to a scenario file")

	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "print a performance report")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
}

// resolve накладывает явно заданные флаги поверх файла конфигурации.
func (o *options) resolve(fs *pflag.FlagSet) (config.Config, error) {
	cfg := o.cfg
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		overlay(fs, &cfg, o.cfg)
	}
	if o.noPersp {
		cfg.KiCad.Perspective = false
	}
	if o.res != "" {
		w, h, err := config.ParseResolution(o.res)
		if err != nil {
			return cfg, err
		}
		cfg.Width, cfg.Height = w, h
	}

	if cfg.Scenario != "" {
		sc, err := director.ReadScenario(cfg.Scenario)
		if err != nil {
			return cfg, err
		}
		cfg.Segments = append(sc.Expressions(), cfg.Segments...)
		if !fs.Changed("fps") && sc.FPS > 0 {
			cfg.FPS = sc.FPS
		}
	}

	if cfg.InputPath == "" {
		latest, err := system.FindLatestBoard(boardDir)
		if err != nil {
			return cfg, fmt.Errorf("%w. Положите плату в %s/ или задайте --in", err, boardDir)
		}
		cfg.InputPath = latest
	}
	return cfg, cfg.Validate()
}

func overlay(fs *pflag.FlagSet, dst *config.Config, src config.Config) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("debug", func() { dst.Debug = src.Debug })
	set("nocolor", func() { dst.NoColor = src.NoColor })
	set("overwrite", func() { dst.Overwrite = src.Overwrite })
	set("cli", func() { dst.KiCad.CLI = src.KiCad.CLI })
	set("dry-run", func() { dst.DryRun = src.DryRun })
	set("ffmpeg", func() { dst.FFmpeg.Path = src.FFmpeg.Path })
	set("encoder", func() { dst.FFmpeg.Encoder = src.FFmpeg.Encoder })
	set("quality", func() { dst.FFmpeg.Quality = src.FFmpeg.Quality })
	set("fps", func() { dst.FPS = src.FPS })
	set("img-format", func() { dst.ImageFormat = src.ImageFormat })
	set("jobs", func() { dst.Workers = src.Workers })
	set("out", func() { dst.OutputVideo = src.OutputVideo })
	set("tmpdir", func() { dst.TmpDir = src.TmpDir })
	set("encode-on-failure", func() { dst.EncodeOnFailure = src.EncodeOnFailure })
	set("kc-background", func() { dst.KiCad.Background = src.KiCad.Background })
	set("kc-quality", func() { dst.KiCad.Quality = src.KiCad.Quality })
	set("kc-preset", func() { dst.KiCad.Preset = src.KiCad.Preset })
	set("kc-floor", func() { dst.KiCad.Floor = src.KiCad.Floor })
	set("in", func() { dst.InputPath = src.InputPath })
	set("segment", func() { dst.Segments = src.Segments })
	set("scenario", func() { dst.Scenario = src.Scenario })
	set("write-scenario", func() { dst.ScenarioOutput = src.ScenarioOutput })
	set("stats", func() { dst.ShowStats = src.ShowStats })
	set("metrics-file", func() { dst.MetricsFile = src.MetricsFile })
}

func run(cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) error {
	cfg.BuildVersion = Version
	system.InitResourceLimits(log)
	log.Info().Msgf("[*] Плата: %s", cfg.InputPath)

	plan, err := director.ParsePlan(cfg.Segments, cfg.FPS)
	if err != nil {
		return err
	}

	if cfg.ScenarioOutput != "" {
		if err := director.WriteScenario(director.NewScenario(plan), cfg.ScenarioOutput); err != nil {
			return err
		}
		log.Info().Msgf("[*] Сценарий сохранен: %s", cfg.ScenarioOutput)
	}

	if !cfg.DryRun {
		if err := system.LookPath(cfg.KiCad.CLI); err != nil {
			return err
		}
		if cfg.OutputVideo != "" {
			if err := system.LookPath(cfg.FFmpeg.Path); err != nil {
				return err
			}
		}
	}

	collector := metrics.NewCollector()
	d, err := dispatch.New(cfg.Workers,
		dispatch.WithLogger(log),
		dispatch.WithObserver(collector),
	)
	if err != nil {
		return err
	}

	project := engine.NewVideoProject(cfg, plan, d, log)
	project.Skips = collector
	runErr := project.Run(cmd.Context())

	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Msg("[!] Не удалось записать метрики")
		}
	}
	if runErr != nil {
		if errors.Is(runErr, engine.ErrFramesFailed) {
			log.Error().Err(d.Failures()).Msg("[-] Ошибки рендеринга")
		}
		return runErr
	}

	if cfg.OutputVideo != "" && !cfg.DryRun {
		abs, _ := filepath.Abs(cfg.OutputVideo)
		log.Info().Msgf("[+++] Успех! Результат: %s", abs)
	} else {
		log.Info().Msg("[+++] Готово")
	}
	return nil
}
