package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const scenarioVersion = "1.0"

// Scenario is the on-disk form of a plan. Only Expr is read back; the other
// fields are written for inspection.
type Scenario struct {
	Version  string         `yaml:"version"`
	FPS      int            `yaml:"fps"`
	Frames   int            `yaml:"frames,omitempty"`
	Segments []SegmentEntry `yaml:"segments"`
}

// SegmentEntry describes one segment of a scenario.
type SegmentEntry struct {
	Expr     string  `yaml:"expr"`
	Duration float64 `yaml:"duration,omitempty"` // seconds
	Frames   int     `yaml:"frames,omitempty"`
	Groups   string  `yaml:"groups,omitempty"`
	From     *Camera `yaml:"from,omitempty"`
	To       *Camera `yaml:"to,omitempty"`
	Step     *Camera `yaml:"step,omitempty"`
}

// NewScenario captures a parsed plan.
func NewScenario(p *Plan) *Scenario {
	sc := &Scenario{Version: scenarioVersion, FPS: p.FPS, Frames: p.TotalFrames()}
	for _, s := range p.Segments {
		from, to, step := s.From(), s.To(), s.Step()
		sc.Segments = append(sc.Segments, SegmentEntry{
			Expr:     s.String(),
			Duration: s.Duration,
			Frames:   s.Frames,
			Groups:   s.Groups().String(),
			From:     &from,
			To:       &to,
			Step:     &step,
		})
	}
	return sc
}

// Expressions returns the segment expressions in order.
func (sc *Scenario) Expressions() []string {
	exprs := make([]string, 0, len(sc.Segments))
	for _, s := range sc.Segments {
		exprs = append(exprs, s.Expr)
	}
	return exprs
}

// WriteScenario writes a scenario to a YAML file
func WriteScenario(scenario *Scenario, path string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScenario reads a scenario from a YAML file
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Segments) == 0 {
		return nil, fmt.Errorf("scenario %s has no segments", path)
	}

	return &scenario, nil
}
