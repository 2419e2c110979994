package cfg

import (
	"encoding/json"
	"io"

	"golang.org/x/xerrors"
)

// Pen heights used when the input doesn't make them obvious.
var DefaultZUp = 2.0
var DefaultZDown = 0.0

// PenDownTolerance is how far above the pen-down height a Z move still
// counts as pen down.
var PenDownTolerance = 0.1

var DefaultFeedrate = 1000.0
var DefaultTravelSpeed = 3000.0
var DefaultZSpeed = 500.0

// DefaultMaxIterations bounds the 2-opt refinement. User supplied values are
// clamped to [MinIterations, MaxIterations].
var DefaultMaxIterations = 500
var MinIterations = 50
var MaxIterations = 1000

// MergeThreshold is the largest gap, in mm, between the end of one stroke
// and the start of the next for the two to be drawn as one.
var MergeThreshold = 0.05

// DefaultCurveTolerance is how far, in mm, a flattened SVG curve may stray
// from the true curve.
var DefaultCurveTolerance = 0.1

// DefaultNearestLengthPenalty weights stroke length when choosing the next
// stroke in nearest-neighbour ordering. Zero picks purely by distance.
var DefaultNearestLengthPenalty = 0.0

// DefaultVisibilityThreshold is a percentage. Strokes less visible than this
// under the pen-width filter are dropped.
var DefaultVisibilityThreshold = 50.0

// Settings controls one optimization job.
type Settings struct {
	ZUp         float64
	ZDown       float64
	Feedrate    float64
	TravelSpeed float64
	ZSpeed      float64

	MaxIterations  int
	MergeThreshold float64

	// PenWidth in mm. Zero turns off the coverage filter.
	PenWidth            float64
	VisibilityThreshold float64

	// SimplifyTolerance in mm. Zero leaves strokes untouched.
	SimplifyTolerance float64

	CurveTolerance       float64
	NearestLengthPenalty float64

	Header string
	Footer string
}

func Default() Settings {
	return Settings{
		ZUp:                  DefaultZUp,
		ZDown:                DefaultZDown,
		Feedrate:             DefaultFeedrate,
		TravelSpeed:          DefaultTravelSpeed,
		ZSpeed:               DefaultZSpeed,
		MaxIterations:        DefaultMaxIterations,
		MergeThreshold:       MergeThreshold,
		VisibilityThreshold:  DefaultVisibilityThreshold,
		CurveTolerance:       DefaultCurveTolerance,
		NearestLengthPenalty: DefaultNearestLengthPenalty,
	}
}

// Overrides is the JSON settings document. Only the keys present are applied.
type Overrides struct {
	ZUp                 *float64 `json:"z_up"`
	ZDown               *float64 `json:"z_down"`
	Feedrate            *float64 `json:"feedrate"`
	TravelSpeed         *float64 `json:"travel_speed"`
	ZSpeed              *float64 `json:"z_speed"`
	MaxIterations       *int     `json:"max_iterations"`
	MergeThreshold      *float64 `json:"merge_threshold"`
	PenWidth            *float64 `json:"pen_width"`
	VisibilityThreshold *float64 `json:"visibility_threshold"`
	SimplifyTolerance   *float64 `json:"simplify_tolerance"`
	CurveTolerance      *float64 `json:"curve_tolerance"`
	NearestPenalty      *float64 `json:"nearest_length_penalty"`
	Header              *string  `json:"gcode_header"`
	Footer              *string  `json:"gcode_footer"`
}

// Load decodes an Overrides document.
func Load(r io.Reader) (*Overrides, error) {
	var o Overrides
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&o); err != nil {
		return nil, xerrors.Errorf("decoding settings: %w", err)
	}
	return &o, nil
}

// Apply copies the present overrides onto s.
func (o *Overrides) Apply(s *Settings) {
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat(&s.ZUp, o.ZUp)
	setFloat(&s.ZDown, o.ZDown)
	setFloat(&s.Feedrate, o.Feedrate)
	setFloat(&s.TravelSpeed, o.TravelSpeed)
	setFloat(&s.ZSpeed, o.ZSpeed)
	setFloat(&s.MergeThreshold, o.MergeThreshold)
	setFloat(&s.PenWidth, o.PenWidth)
	setFloat(&s.VisibilityThreshold, o.VisibilityThreshold)
	setFloat(&s.SimplifyTolerance, o.SimplifyTolerance)
	setFloat(&s.CurveTolerance, o.CurveTolerance)
	setFloat(&s.NearestLengthPenalty, o.NearestPenalty)
	if o.MaxIterations != nil {
		s.MaxIterations = ClampIterations(*o.MaxIterations)
	}
	if o.Header != nil {
		s.Header = *o.Header
	}
	if o.Footer != nil {
		s.Footer = *o.Footer
	}
}

// ClampIterations limits a user supplied iteration budget.
func ClampIterations(n int) int {
	if n < MinIterations {
		return MinIterations
	}
	if n > MaxIterations {
		return MaxIterations
	}
	return n
}
