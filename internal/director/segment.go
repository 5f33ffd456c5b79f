package director

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Vec3 is an (x, y, z) triple used for rotation, pan and pivot.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Div(n float64) Vec3 { return Vec3{v.X / n, v.Y / n, v.Z / n} }

// Group identifies one animatable parameter group of a keyframe.
type Group uint8

const (
	GroupZoom Group = 1 << iota
	GroupRotation
	GroupPan
	GroupPivot
)

// Groups is a set of parameter groups.
type Groups uint8

func (g Groups) Has(group Group) bool { return g&Groups(group) != 0 }

func (g Groups) String() string {
	var names []string
	for _, n := range []struct {
		g    Group
		name string
	}{{GroupZoom, "z"}, {GroupRotation, "rot"}, {GroupPan, "pan"}, {GroupPivot, "piv"}} {
		if g.Has(n.g) {
			names = append(names, n.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Keyframe is one parsed side of a segment expression. A nil group was not
// written in the expression.
type Keyframe struct {
	Zoom     *float64
	Rotation *Vec3
	Pan      *Vec3
	Pivot    *Vec3
}

// Groups reports which groups are present in the keyframe.
func (k Keyframe) Groups() Groups {
	var g Groups
	if k.Zoom != nil {
		g |= Groups(GroupZoom)
	}
	if k.Rotation != nil {
		g |= Groups(GroupRotation)
	}
	if k.Pan != nil {
		g |= Groups(GroupPan)
	}
	if k.Pivot != nil {
		g |= Groups(GroupPivot)
	}
	return g
}

// Camera is an absolute camera state with defaults applied to absent groups.
type Camera struct {
	Zoom     float64 `yaml:"zoom"`
	Rotation Vec3    `yaml:"rotation"`
	Pan      Vec3    `yaml:"pan"`
	Pivot    Vec3    `yaml:"pivot"`
}

// DefaultCamera is the state used for every group a segment does not mention.
var DefaultCamera = Camera{Zoom: 1.0}

// Add advances the camera by one interpolation step.
func (c Camera) Add(step Camera) Camera {
	return Camera{
		Zoom:     c.Zoom + step.Zoom,
		Rotation: c.Rotation.Add(step.Rotation),
		Pan:      c.Pan.Add(step.Pan),
		Pivot:    c.Pivot.Add(step.Pivot),
	}
}

// ScalarTrack animates a single value from From to To.
type ScalarTrack struct {
	From float64
	To   float64
	Step float64
}

// VectorTrack animates a triple from From to To.
type VectorTrack struct {
	From Vec3
	To   Vec3
	Step Vec3
}

// Segment is one leg of the animation. A group is animated when its track is
// non-nil, so the from and toward sides always carry the same groups.
type Segment struct {
	Duration float64 // seconds
	Frames   int

	Zoom     *ScalarTrack
	Rotation *VectorTrack
	Pan      *VectorTrack
	Pivot    *VectorTrack
}

// Groups reports which groups the segment animates.
func (s *Segment) Groups() Groups {
	var g Groups
	if s.Zoom != nil {
		g |= Groups(GroupZoom)
	}
	if s.Rotation != nil {
		g |= Groups(GroupRotation)
	}
	if s.Pan != nil {
		g |= Groups(GroupPan)
	}
	if s.Pivot != nil {
		g |= Groups(GroupPivot)
	}
	return g
}

// From returns the camera state of the first frame of the segment.
func (s *Segment) From() Camera {
	c := DefaultCamera
	if s.Zoom != nil {
		c.Zoom = s.Zoom.From
	}
	if s.Rotation != nil {
		c.Rotation = s.Rotation.From
	}
	if s.Pan != nil {
		c.Pan = s.Pan.From
	}
	if s.Pivot != nil {
		c.Pivot = s.Pivot.From
	}
	return c
}

// To returns the camera state the segment moves toward.
func (s *Segment) To() Camera {
	c := DefaultCamera
	if s.Zoom != nil {
		c.Zoom = s.Zoom.To
	}
	if s.Rotation != nil {
		c.Rotation = s.Rotation.To
	}
	if s.Pan != nil {
		c.Pan = s.Pan.To
	}
	if s.Pivot != nil {
		c.Pivot = s.Pivot.To
	}
	return c
}

// Step returns the per-frame delta. Absent groups have a zero step.
func (s *Segment) Step() Camera {
	var c Camera
	if s.Zoom != nil {
		c.Zoom = s.Zoom.Step
	}
	if s.Rotation != nil {
		c.Rotation = s.Rotation.Step
	}
	if s.Pan != nil {
		c.Pan = s.Pan.Step
	}
	if s.Pivot != nil {
		c.Pivot = s.Pivot.Step
	}
	return c
}

// TimeDuration returns the segment duration as a time.Duration.
func (s *Segment) TimeDuration() time.Duration {
	return time.Duration(s.Duration * float64(time.Second))
}

// String renders the segment in canonical expression form. Parsing the result
// with the same fps yields an equal segment.
func (s *Segment) String() string {
	var b strings.Builder
	b.WriteString(formatFloat(s.Duration))
	b.WriteString("s")
	b.WriteString(s.side(true))
	b.WriteString(" ->")
	b.WriteString(s.side(false))
	return b.String()
}

func (s *Segment) side(from bool) string {
	pick := func(t *VectorTrack) Vec3 {
		if from {
			return t.From
		}
		return t.To
	}

	var b strings.Builder
	if s.Zoom != nil {
		z := s.Zoom.To
		if from {
			z = s.Zoom.From
		}
		fmt.Fprintf(&b, " z(%s)", formatFloat(z))
	}
	if s.Rotation != nil {
		fmt.Fprintf(&b, " rot(%s)", formatVec(pick(s.Rotation)))
	}
	if s.Pan != nil {
		fmt.Fprintf(&b, " pan(%s)", formatVec(pick(s.Pan)))
	}
	if s.Pivot != nil {
		fmt.Fprintf(&b, " piv(%s)", formatVec(pick(s.Pivot)))
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatVec(v Vec3) string {
	return formatFloat(v.X) + "," + formatFloat(v.Y) + "," + formatFloat(v.Z)
}
