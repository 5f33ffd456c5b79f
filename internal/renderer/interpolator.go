package renderer

import (
	"iter"

	"github.com/ivlev/pcb2video/internal/director"
)

// FrameSpec is one fully resolved camera state.
type FrameSpec struct {
	Index   int // global, continuous across segments, starting at 0
	Segment int // index of the segment the frame belongs to
	Camera  director.Camera
	Groups  director.Groups // groups animated by the owning segment
}

// Frames walks the plan lazily and yields one FrameSpec per frame in ascending
// order. Every call starts a fresh walk, so the sequence can be iterated again.
//
// Within a segment the first frame is exactly the segment's from state; each
// following frame adds the precomputed step. The accumulated state is not
// snapped to the toward state, so small floating point drift is expected.
// Angles are not normalised.
func Frames(plan *director.Plan) iter.Seq[FrameSpec] {
	return func(yield func(FrameSpec) bool) {
		index := 0
		for si, seg := range plan.Segments {
			state := seg.From()
			step := seg.Step()
			groups := seg.Groups()
			for i := 0; i < seg.Frames; i++ {
				if !yield(FrameSpec{Index: index, Segment: si, Camera: state, Groups: groups}) {
					return
				}
				state = state.Add(step)
				index++
			}
		}
	}
}

// Collect materialises the frame stream. Intended for small plans and tests.
func Collect(plan *director.Plan) []FrameSpec {
	frames := make([]FrameSpec, 0, plan.TotalFrames())
	for f := range Frames(plan) {
		frames = append(frames, f)
	}
	return frames
}
