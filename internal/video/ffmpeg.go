package video

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/ivlev/pcb2video/internal/dispatch"
)

const (
	EncoderAuto = "auto"
	EncoderX264 = "libx264"
)

// EncodeOptions describe the single ffmpeg call that joins the frames.
type EncodeOptions struct {
	Program string
	FPS     int
	Encoder string // libx264, h264_videotoolbox, h264_nvenc
	Quality int    // CRF for x264/nvenc, bitrate factor for VideoToolbox
	Preset  string // x264 preset
	Output  string
}

// EncodeJob builds the ffmpeg invocation over the frame pattern of namer.
func (o EncodeOptions) EncodeJob(namer FrameNamer) dispatch.Job {
	fps := fmt.Sprintf("%d", o.FPS)
	args := []string{
		"-y", "-start_number", "0",
		"-framerate", fps,
		"-i", namer.Pattern(),
		"-c:v", o.Encoder,
	}
	args = append(args, o.qualityArgs()...)
	args = append(args, "-r", fps, o.Output)

	return dispatch.Job{Name: "encode", Program: o.Program, Args: args}
}

func (o EncodeOptions) qualityArgs() []string {
	// Качество в зависимости от энкодера
	switch o.Encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		bitrate := o.Quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate), "-pix_fmt", "yuv420p"}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", o.Quality), "-pix_fmt", "yuv420p"}
	default: // libx264
		return []string{"-preset", o.Preset, "-crf", fmt.Sprintf("%d", o.Quality)}
	}
}

// DefaultQuality returns the quality value used when none is configured.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // Хорошее качество для VideoToolbox
	case "h264_nvenc":
		return 28 // Эквивалент CRF для NVENC
	default:
		return 22
	}
}

// GetBestH264Encoder asks ffmpeg which hardware encoders it was built with.
func GetBestH264Encoder(ffmpeg string) string {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.Command(ffmpeg, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return EncoderX264
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return EncoderX264
}
