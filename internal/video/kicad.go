package video

import (
	"fmt"
	"strconv"

	"github.com/ivlev/pcb2video/internal/director"
	"github.com/ivlev/pcb2video/internal/dispatch"
	"github.com/ivlev/pcb2video/internal/renderer"
)

// RenderOptions are the fixed arguments of every kicad-cli render call.
type RenderOptions struct {
	Program     string
	Board       string
	Width       int
	Height      int
	Background  string // transparent|opaque
	Floor       bool
	Perspective bool
	Preset      string
	Quality     string // basic|high|user
}

// RenderJob builds the kicad-cli invocation for one frame.
func (o RenderOptions) RenderJob(f renderer.FrameSpec, output string) dispatch.Job {
	c := f.Camera
	args := []string{
		"pcb", "render",
		"--rotate", triple(c.Rotation),
		"--zoom", fmt.Sprintf("%.3f", c.Zoom),
	}
	// pan и pivot передаем только если сегмент их анимирует
	if f.Groups.Has(director.GroupPan) {
		args = append(args, "--pan", triple(c.Pan))
	}
	if f.Groups.Has(director.GroupPivot) {
		args = append(args, "--pivot", triple(c.Pivot))
	}
	args = append(args,
		"--width", strconv.Itoa(o.Width),
		"--height", strconv.Itoa(o.Height),
		"--background", o.Background,
	)
	if o.Floor {
		args = append(args, "--floor")
	}
	if o.Perspective {
		args = append(args, "--perspective")
	}
	args = append(args,
		"--preset", o.Preset,
		"--quality", o.Quality,
		"-o", output,
		o.Board,
	)

	return dispatch.Job{
		Name:    fmt.Sprintf("frame %06d", f.Index),
		Program: o.Program,
		Args:    args,
	}
}

func triple(v director.Vec3) string {
	return fmt.Sprintf("%.2f,%.2f,%.2f", v.X, v.Y, v.Z)
}
