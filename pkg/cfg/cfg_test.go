package cfg_test

import (
	"strings"
	"testing"

	"plotopt/pkg/cfg"

	"github.com/google/go-cmp/cmp"
)

func TestLoadAndApply(t *testing.T) {
	tests := []struct {
		Name  string
		Input string
		Want  func(s *cfg.Settings)
	}{
		{
			Name:  "empty document keeps defaults",
			Input: `{}`,
			Want:  func(s *cfg.Settings) {},
		},
		{
			Name:  "pen heights and speeds",
			Input: `{"z_up": 5, "z_down": -1.5, "feedrate": 1200, "travel_speed": 6000, "z_speed": 300}`,
			Want: func(s *cfg.Settings) {
				s.ZUp = 5
				s.ZDown = -1.5
				s.Feedrate = 1200
				s.TravelSpeed = 6000
				s.ZSpeed = 300
			},
		},
		{
			Name:  "iterations clamped low",
			Input: `{"max_iterations": 3}`,
			Want:  func(s *cfg.Settings) { s.MaxIterations = 50 },
		},
		{
			Name:  "iterations clamped high",
			Input: `{"max_iterations": 100000}`,
			Want:  func(s *cfg.Settings) { s.MaxIterations = 1000 },
		},
		{
			Name:  "filter, merge and gcode text",
			Input: `{"pen_width": 0.4, "visibility_threshold": 30, "merge_threshold": 0.2, "simplify_tolerance": 0.01, "gcode_header": "M17", "gcode_footer": "M18"}`,
			Want: func(s *cfg.Settings) {
				s.PenWidth = 0.4
				s.VisibilityThreshold = 30
				s.MergeThreshold = 0.2
				s.SimplifyTolerance = 0.01
				s.Header = "M17"
				s.Footer = "M18"
			},
		},
		{
			Name:  "svg curves and nearest-neighbour scoring",
			Input: `{"curve_tolerance": 0.05, "nearest_length_penalty": 0.1}`,
			Want: func(s *cfg.Settings) {
				s.CurveTolerance = 0.05
				s.NearestLengthPenalty = 0.1
			},
		},
	}

	for _, test := range tests {
		o, err := cfg.Load(strings.NewReader(test.Input))
		if err != nil {
			t.Errorf("test %s: Load failed: %s", test.Name, err)
			continue
		}
		got := cfg.Default()
		o.Apply(&got)

		want := cfg.Default()
		test.Want(&want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("test %s: incorrect settings: %s", test.Name, diff)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	for _, input := range []string{`{"z_up": "high"}`, `{"unknown": 1}`, `not json`} {
		if _, err := cfg.Load(strings.NewReader(input)); err == nil {
			t.Errorf("Load(%q) succeeded, want an error", input)
		}
	}
}
