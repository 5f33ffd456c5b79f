package director

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameCount(t *testing.T) {
	tests := []struct {
		expr   string
		fps    int
		frames int
	}{
		{"1000ms z(1) -> z(1)", 30, 30},
		{"1.5s z(1) -> z(1)", 30, 45},
		{"1s rot(0,0,0) -> rot(90,0,0)", 10, 10},
		{"0.1s z(1) -> z(2)", 30, 3},
		{"1ms z(1) -> z(2)", 30, 1},
		{"1e-12s z(1) -> z(2)", 30, 1},
		{"280ms z(1) -> z(2)", 25, 8},
		{"1120ms z(1) -> z(2)", 25, 29},
		{"2s	z(0.9)	rot(0,0,0)		 ->	z(0.9) rot(-180,30,45)", 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			seg, err := Parse(tt.expr, tt.fps)
			require.NoError(t, err)
			assert.Equal(t, tt.frames, seg.Frames)
		})
	}
}

func TestParseFrameCountIsCeil(t *testing.T) {
	for _, fps := range []int{24, 25, 30, 50, 60} {
		for ms := 1; ms <= 20000; ms += 7 {
			expr := strconv.Itoa(ms) + "ms z(1) -> z(2)"
			seg, err := Parse(expr, fps)
			require.NoError(t, err, expr)
			want := int(math.Ceil(float64(ms) / 1000 * float64(fps)))
			if seg.Frames != want {
				t.Fatalf("%s at %d fps: got %d frames, want %d", expr, fps, seg.Frames, want)
			}
		}
	}
}

func TestParseValues(t *testing.T) {
	seg, err := Parse("1.5s 	rot(0, 0, 0)  ->    rot(-180, 30,   45)", 30)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, seg.Duration, 1e-12)
	assert.Equal(t, Groups(GroupRotation), seg.Groups())
	assert.Nil(t, seg.Zoom)
	assert.Nil(t, seg.Pan)
	assert.Nil(t, seg.Pivot)

	require.NotNil(t, seg.Rotation)
	assert.Equal(t, Vec3{-180, 30, 45}, seg.Rotation.To)
	assert.InDelta(t, -4.0, seg.Rotation.Step.X, 1e-12)
	assert.InDelta(t, 1.0/1.5, seg.Rotation.Step.Y, 1e-12)
	assert.InDelta(t, 1.0, seg.Rotation.Step.Z, 1e-12)

	// Absent groups fall back to defaults.
	from := seg.From()
	assert.Equal(t, 1.0, from.Zoom)
	assert.Equal(t, Vec3{}, from.Pan)
}

func TestParseAllGroups(t *testing.T) {
	seg, err := Parse("500ms z(0.1) rot(90,90,0) pan(1,2,3) piv(0,0,0) -> z(0.9) rot(0,0,0) pan(4,5,6) piv(1,1,1)", 10)
	require.NoError(t, err)

	assert.Equal(t, 5, seg.Frames)
	assert.True(t, seg.Groups().Has(GroupZoom))
	assert.True(t, seg.Groups().Has(GroupPivot))
	assert.InDelta(t, 0.16, seg.Zoom.Step, 1e-12)
	assert.Equal(t, Vec3{0.6, 0.6, 0.6}, seg.Pan.Step)
	assert.Equal(t, Vec3{0.2, 0.2, 0.2}, seg.Pivot.Step)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"no remainder", "1s"},
		{"no unit", "100 z(1) -> z(2)"},
		{"no digits", "s z(1) -> z(2)"},
		{"no digits ms", "ms z(1) -> z(2)"},
		{"zero duration", "0s z(1) -> z(2)"},
		{"negative duration", "-1s z(1) -> z(2)"},
		{"overflow", "1e999s z(1) -> z(2)"},
		{"infinite duration", "infs z(1) -> z(2)"},
		{"missing arrow", "1s z(1) z(2)"},
		{"double arrow", "1s z(1) -> z(2) -> z(3)"},
		{"empty keyframes", "1s -> "},
		{"unknown term", "1s zoom(1) -> zoom(2)"},
		{"bad zoom", "1s z(abc) -> z(2)"},
		{"two numbers", "1s rot(1,2) -> rot(1,2,3)"},
		{"four numbers", "1s rot(1,2,3,4) -> rot(1,2,3)"},
		{"number overflow", "1s rot(1e999,0,0) -> rot(1,2,3)"},
		{"pan mismatch", "1s z(1) pan(0,0,0) -> z(2)"},
		{"rot mismatch", "1s z(1) -> z(2) rot(0,0,0)"},
		{"duplicate group", "1s z(1) z(2) -> z(2)"},
		{"too many frames", "1e12s z(1) -> z(2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr, 30)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax), "expected syntax error, got %v", err)

			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.NotEmpty(t, se.Fragment)
		})
	}
}

func TestParseSyntaxErrorNamesFragment(t *testing.T) {
	_, err := Parse("1s z(1) foo(1,2,3) -> z(2) foo(1,2,3)", 30)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "foo(1,2,3", se.Fragment)
}

func TestParseInvalidFPS(t *testing.T) {
	_, err := Parse("1s z(1) -> z(2)", 0)
	assert.ErrorIs(t, err, ErrInvalidFPS)
}

func TestSegmentRoundTrip(t *testing.T) {
	exprs := []string{
		"1500ms rot(0,0,0) -> rot(-180,30,45)",
		"3s z(0.1) rot(90,90,0) -> z(0.9) rot(0,0,0)",
		"100ms z(0.3333333) pan(1e-3, -2.5, 7) piv(0,0,0) -> z(1) pan(0,0,0) piv(1.25,2,3)",
		"2.25s piv(1,2,3) -> piv(3,2,1)",
	}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			first, err := Parse(expr, 30)
			require.NoError(t, err)

			canonical := first.String()
			second, err := Parse(canonical, 30)
			require.NoError(t, err, "canonical form %q", canonical)

			assert.Equal(t, first, second)
			assert.Equal(t, canonical, second.String())
		})
	}
}

func TestStepReachesTarget(t *testing.T) {
	seg, err := Parse("1.3s z(0.9) rot(1,2,3) -> z(0.2) rot(4,5,367)", 30)
	require.NoError(t, err)

	zoom := seg.Zoom.From
	rotZ := seg.Rotation.From.Z
	for i := 0; i < seg.Frames; i++ {
		zoom += seg.Zoom.Step
		rotZ += seg.Rotation.Step.Z
	}

	assert.InDelta(t, 0.2, zoom, 1e-9)
	// Angles beyond 360 are passed through untouched.
	assert.InDelta(t, 367, rotZ, 1e-9)
	assert.False(t, math.IsNaN(zoom))
}
