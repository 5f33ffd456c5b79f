package director

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	arrow     = "->"
	maxFrames = math.MaxInt32
)

// Parse converts one segment expression such as
//
//	1.5s z(0.9) rot(0,0,0) -> z(0.9) rot(-180,30,45)
//
// into a Segment with its frame budget and per-frame steps computed for fps.
func Parse(text string, fps int) (*Segment, error) {
	if fps <= 0 {
		return nil, ErrInvalidFPS
	}

	trimmed := strings.TrimSpace(text)
	cut := strings.IndexFunc(trimmed, unicode.IsSpace)
	if cut < 0 {
		return nil, syntaxErr(text, "expected duration followed by keyframes")
	}
	durTok, rest := trimmed[:cut], trimmed[cut:]

	dur, err := parseDuration(durTok)
	if err != nil {
		return nil, err
	}

	if n := strings.Count(rest, arrow); n != 1 {
		return nil, syntaxErr(rest, "expected exactly one %q, found %d", arrow, n)
	}
	left, right, _ := strings.Cut(rest, arrow)

	from, err := parseKeyframe(left)
	if err != nil {
		return nil, err
	}
	toward, err := parseKeyframe(right)
	if err != nil {
		return nil, err
	}
	if from.Groups() == 0 && toward.Groups() == 0 {
		return nil, syntaxErr(rest, "empty keyframes")
	}
	if from.Groups() != toward.Groups() {
		return nil, syntaxErr(rest, "from/toward terms mismatch: %s vs %s", from.Groups(), toward.Groups())
	}

	frames := math.Ceil(dur * float64(fps))
	if frames < 1 {
		return nil, syntaxErr(durTok, "zero-length segment at %d fps", fps)
	}
	if frames > maxFrames {
		return nil, syntaxErr(durTok, "segment too long: %.0f frames", frames)
	}

	return newSegment(dur, int(frames), from, toward), nil
}

func newSegment(dur float64, frames int, from, toward Keyframe) *Segment {
	n := float64(frames)
	seg := &Segment{Duration: dur, Frames: frames}

	if from.Zoom != nil {
		seg.Zoom = &ScalarTrack{From: *from.Zoom, To: *toward.Zoom, Step: (*toward.Zoom - *from.Zoom) / n}
	}
	track := func(a, b *Vec3) *VectorTrack {
		if a == nil {
			return nil
		}
		return &VectorTrack{From: *a, To: *b, Step: b.Sub(*a).Div(n)}
	}
	seg.Rotation = track(from.Rotation, toward.Rotation)
	seg.Pan = track(from.Pan, toward.Pan)
	seg.Pivot = track(from.Pivot, toward.Pivot)
	return seg
}

func parseDuration(tok string) (float64, error) {
	var body string
	scale := 1.0
	switch {
	case strings.HasSuffix(tok, "ms"):
		body, scale = strings.TrimSuffix(tok, "ms"), 1000
	case strings.HasSuffix(tok, "s"):
		body = strings.TrimSuffix(tok, "s")
	default:
		return 0, syntaxErr(tok, "duration must end in s or ms")
	}

	v, err := parseNumber(body)
	if err != nil {
		return 0, syntaxErr(tok, "bad duration")
	}
	v /= scale
	if v <= 0 {
		return 0, syntaxErr(tok, "duration must be positive")
	}
	return v, nil
}

// parseKeyframe tokenizes one side of the arrow on ")" and reads each group.
func parseKeyframe(expr string) (Keyframe, error) {
	var kf Keyframe
	for _, part := range strings.Split(expr, ")") {
		tok := strings.Join(strings.Fields(part), "")
		if tok == "" {
			continue
		}

		switch {
		case strings.HasPrefix(tok, "z("):
			if kf.Zoom != nil {
				return kf, syntaxErr(tok, "zoom given twice")
			}
			v, err := parseNumber(tok[len("z("):])
			if err != nil {
				return kf, syntaxErr(tok, "bad zoom")
			}
			kf.Zoom = &v
		case strings.HasPrefix(tok, "rot("):
			if err := parseGroup(tok, "rot(", &kf.Rotation); err != nil {
				return kf, err
			}
		case strings.HasPrefix(tok, "pan("):
			if err := parseGroup(tok, "pan(", &kf.Pan); err != nil {
				return kf, err
			}
		case strings.HasPrefix(tok, "piv("):
			if err := parseGroup(tok, "piv(", &kf.Pivot); err != nil {
				return kf, err
			}
		default:
			return kf, syntaxErr(tok, "unknown term")
		}
	}
	return kf, nil
}

func parseGroup(tok, prefix string, dst **Vec3) error {
	if *dst != nil {
		return syntaxErr(tok, "%s) given twice", strings.TrimSuffix(prefix, "("))
	}
	v, err := parseTriple(tok[len(prefix):])
	if err != nil {
		return syntaxErr(tok, "expected three comma-separated numbers")
	}
	*dst = &v
	return nil
}

func parseTriple(body string) (Vec3, error) {
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return Vec3{}, ErrSyntax
	}
	var xyz [3]float64
	for i, p := range parts {
		v, err := parseNumber(p)
		if err != nil {
			return Vec3{}, err
		}
		xyz[i] = v
	}
	return Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrSyntax
	}
	return v, nil
}
