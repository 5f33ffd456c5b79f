package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/pcb2video/internal/config"
	"github.com/ivlev/pcb2video/internal/director"
	"github.com/ivlev/pcb2video/internal/dispatch"
	"github.com/ivlev/pcb2video/internal/renderer"
	"github.com/ivlev/pcb2video/internal/video"
)

var (
	ErrFramesFailed = errors.New("не все кадры отрендерены")
	ErrEncodeFailed = errors.New("ошибка сборки видео")
)

// Dispatcher is the part of dispatch.Dispatcher the project drives.
type Dispatcher interface {
	Submit(job dispatch.Job) error
	AwaitCapacity(ctx context.Context, minFree int) error
	Drain(ctx context.Context) error
	HadFailure() bool
	Stats() dispatch.Stats
}

// SkipObserver is notified about frames left alone by the overwrite policy.
type SkipObserver interface {
	FrameSkipped()
}

type VideoProject struct {
	Config     *config.Config
	Plan       *director.Plan
	Dispatcher Dispatcher
	Render     video.RenderOptions
	Encode     video.EncodeOptions
	Namer      video.FrameNamer
	Log        zerolog.Logger
	Skips      SkipObserver
	Out        io.Writer // отчет --stats
}

func NewVideoProject(cfg *config.Config, plan *director.Plan, d Dispatcher, log zerolog.Logger) *VideoProject {
	encoder := cfg.FFmpeg.Encoder
	if encoder == video.EncoderAuto {
		encoder = video.GetBestH264Encoder(cfg.FFmpeg.Path)
	}
	quality := cfg.FFmpeg.Quality
	if quality == 0 {
		quality = video.DefaultQuality(encoder)
	}

	return &VideoProject{
		Config:     cfg,
		Plan:       plan,
		Dispatcher: d,
		Render: video.RenderOptions{
			Program:     cfg.KiCad.CLI,
			Board:       cfg.InputPath,
			Width:       cfg.Width,
			Height:      cfg.Height,
			Background:  cfg.KiCad.Background,
			Floor:       cfg.KiCad.Floor,
			Perspective: cfg.KiCad.Perspective,
			Preset:      cfg.KiCad.Preset,
			Quality:     cfg.KiCad.Quality,
		},
		Encode: video.EncodeOptions{
			Program: cfg.FFmpeg.Path,
			FPS:     plan.FPS,
			Encoder: encoder,
			Quality: quality,
			Preset:  cfg.FFmpeg.Preset,
			Output:  cfg.OutputVideo,
		},
		Namer: video.NewFrameNamer(cfg.TmpDir, cfg.InputPath, cfg.ImageFormat),
		Log:   log,
		Out:   os.Stdout,
	}
}

// RenderSummary counts what RenderAll did with the frames.
type RenderSummary struct {
	Frames    int
	Submitted int
	Skipped   int
}

// RenderAll submits one render job per frame in interpolation order. Jobs
// finish in any order; each writes its own frame-indexed file. A launch error
// stops the loop at once, already running jobs are left to the caller's Drain.
func (p *VideoProject) RenderAll(ctx context.Context, namer video.FrameNamer, skipExisting bool) (RenderSummary, error) {
	var sum RenderSummary
	for f := range renderer.Frames(p.Plan) {
		if err := p.Dispatcher.AwaitCapacity(ctx, 1); err != nil {
			return sum, err
		}
		sum.Frames++

		path := namer.Path(f.Index)
		action := "рендеринг"
		skip := false
		if namer.Exists(f.Index) {
			if skipExisting {
				action, skip = "пропуск", true
			} else {
				action = "перерендеринг"
			}
		}
		p.Log.Info().
			Int("segment", f.Segment).
			Int("frame", f.Index).
			Str("file", path).
			Msgf("[*] Кадр: %s", action)

		if skip {
			sum.Skipped++
			if p.Skips != nil {
				p.Skips.FrameSkipped()
			}
			continue
		}

		job := p.Render.RenderJob(f, path)
		p.Log.Debug().Str("cmd", job.CommandLine()).Msg("[*] Задача")
		if p.Config.DryRun {
			continue
		}
		if err := p.Dispatcher.Submit(job); err != nil {
			return sum, fmt.Errorf("кадр %d: %w", f.Index, err)
		}
		sum.Submitted++
	}
	return sum, nil
}

// EncodeVideo submits the single ffmpeg job over the frame pattern and waits
// for it. The verdict comes from the job's own exit status, so earlier frame
// failures do not affect it.
func (p *VideoProject) EncodeVideo(ctx context.Context, namer video.FrameNamer) error {
	if err := p.Dispatcher.AwaitCapacity(ctx, 1); err != nil {
		return err
	}
	job := p.Encode.EncodeJob(namer)
	p.Log.Debug().Str("cmd", job.CommandLine()).Msg("[*] Задача")
	if p.Config.DryRun {
		return nil
	}

	var encodeErr error
	job.OnComplete = func(err error) { encodeErr = err }
	if err := p.Dispatcher.Submit(job); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	if err := p.waitLive(ctx); err != nil {
		return err
	}
	if encodeErr != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, encodeErr)
	}
	return nil
}

// waitLive дожидается всех запущенных процессов. Отмена ctx прерывает только
// ожидание вызывающего: процессы не убиваются, поэтому их все равно ждем.
func (p *VideoProject) waitLive(ctx context.Context) error {
	err := p.Dispatcher.Drain(ctx)
	if err == nil {
		return nil
	}
	p.Log.Warn().Err(err).Msg("[!] Прервано, ждем завершения запущенных процессов")
	if drainErr := p.Dispatcher.Drain(context.Background()); drainErr != nil {
		p.Log.Warn().Err(drainErr).Msg("[!] Не удалось дождаться процессов")
	}
	return err
}

func (p *VideoProject) Run(ctx context.Context) error {
	startTime := time.Now()

	p.logPlan()

	if !p.Config.DryRun {
		if err := os.MkdirAll(p.Config.TmpDir, 0755); err != nil {
			return err
		}
	}

	renderStart := time.Now()
	summary, err := p.RenderAll(ctx, p.Namer, !p.Config.Overwrite)
	if err != nil {
		_ = p.waitLive(ctx)
		return err
	}
	if err := p.waitLive(ctx); err != nil {
		return err
	}
	renderEnd := time.Now()

	stats := p.Dispatcher.Stats()
	if p.Dispatcher.HadFailure() {
		err := fmt.Errorf("%w: %d из %d вызовов %s завершились с ошибкой",
			ErrFramesFailed, stats.Failed, stats.Submitted, p.Render.Program)
		if !p.Config.EncodeOnFailure {
			return err
		}
		p.Log.Warn().Err(err).Msg("[!] Продолжаем сборку видео несмотря на ошибки")
	}

	var encodeStart time.Time
	if p.Config.OutputVideo != "" {
		p.Log.Info().Str("output", p.Config.OutputVideo).Msg("[*] Сборка видео...")
		encodeStart = time.Now()
		if err := p.EncodeVideo(ctx, p.Namer); err != nil {
			return err
		}
	} else {
		p.Log.Info().Msg("[*] Выходной файл не задан, видео не собирается")
	}

	if p.Config.ShowStats {
		p.report(summary, startTime, renderStart, renderEnd, encodeStart)
	}
	return nil
}

func (p *VideoProject) logPlan() {
	for i, seg := range p.Plan.Segments {
		p.Log.Info().Msgf("[*] Сегмент %d: %.3fs (%d кадров)", i, seg.Duration, seg.Frames)
		if seg.Zoom != nil {
			p.Log.Info().Msgf("    зум %.2f -> %.2f, шаг ≈ %.3f", seg.Zoom.From, seg.Zoom.To, seg.Zoom.Step)
		}
		for _, t := range []struct {
			name  string
			track *director.VectorTrack
		}{{"вращение", seg.Rotation}, {"панорама", seg.Pan}, {"центр вращения", seg.Pivot}} {
			if t.track == nil {
				continue
			}
			p.Log.Info().Msgf("    %s (%.2f, %.2f, %.2f) -> (%.2f, %.2f, %.2f), шаг ≈ (%.4f, %.4f, %.4f)",
				t.name,
				t.track.From.X, t.track.From.Y, t.track.From.Z,
				t.track.To.X, t.track.To.Y, t.track.To.Z,
				t.track.Step.X, t.track.Step.Y, t.track.Step.Z)
		}
	}
	p.Log.Info().Msgf("[*] Видео: %dms (%d кадров) @ %d FPS",
		p.Plan.TotalDuration().Milliseconds(), p.Plan.TotalFrames(), p.Plan.FPS)
}

func (p *VideoProject) report(sum RenderSummary, start, renderStart, renderEnd, encodeStart time.Time) {
	totalTime := time.Since(start)
	renderTime := renderEnd.Sub(renderStart)
	encodeTime := time.Duration(0)
	if !encodeStart.IsZero() {
		encodeTime = time.Since(encodeStart)
	}
	fps := 0.0
	if renderTime > 0 {
		fps = float64(sum.Submitted) / renderTime.Seconds()
	}

	fmt.Fprintf(p.Out,
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Frames: %d (rendered %d, skipped %d)\n"+
			"Rendering: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, totalTime.Seconds(), sum.Frames, sum.Submitted, sum.Skipped,
		renderTime.Seconds(), encodeTime.Seconds(), fps,
	)
}
