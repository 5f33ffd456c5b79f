package director

import (
	"fmt"
	"time"
)

// Plan is the ordered list of segments that make up the whole video.
type Plan struct {
	FPS      int
	Segments []*Segment

	totalFrames int
	totalDur    float64
}

// NewPlan builds a plan from already parsed segments.
func NewPlan(fps int, segments []*Segment) (*Plan, error) {
	if fps <= 0 {
		return nil, ErrInvalidFPS
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("plan has no segments")
	}
	p := &Plan{FPS: fps, Segments: segments}
	for _, s := range segments {
		p.totalFrames += s.Frames
		p.totalDur += s.Duration
	}
	return p, nil
}

// ParsePlan parses every expression in order. The first failure is returned
// annotated with its 1-based segment number.
func ParsePlan(exprs []string, fps int) (*Plan, error) {
	segments := make([]*Segment, 0, len(exprs))
	for i, e := range exprs {
		seg, err := Parse(e, fps)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		segments = append(segments, seg)
	}
	return NewPlan(fps, segments)
}

// TotalFrames is the sum of every segment's frame budget.
func (p *Plan) TotalFrames() int { return p.totalFrames }

// TotalDuration is the summed nominal duration of all segments.
func (p *Plan) TotalDuration() time.Duration {
	return time.Duration(p.totalDur * float64(time.Second))
}
