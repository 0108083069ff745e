package compaction

// Costs records what the engine measured. Both fields are zero when the
// preference forced the representation.
type Costs struct {
	Full     Metric `json:"full"`
	Baseline Metric `json:"baseline"`
	Measured bool   `json:"measured"`
}

// Outcome is the chosen representation with its payload and rendered text.
// Payload holds a value of the result type's F or C type, never a pointer.
type Outcome struct {
	Representation Representation
	Payload        any
	Text           string
	Costs          Costs
}

// Engine makes the auto-compaction decision. It is safe for concurrent use.
type Engine struct {
	estimator Estimator
}

// NewEngine creates an engine. A nil estimator selects [TokenEstimator].
func NewEngine(est Estimator) *Engine {
	if est == nil {
		est = TokenEstimator{}
	}
	return &Engine{estimator: est}
}

// Estimator returns the engine's estimator.
func (e *Engine) Estimator() Estimator { return e.estimator }

// Choose picks a representation for full given the raw CLI text.
// Forced preferences never consult the estimator. Under auto, the full record
// wins when its cost does not exceed the raw text's cost, so ties keep full.
func (e *Engine) Choose(full any, raw string, pref Preference) (Representation, Costs, error) {
	switch pref {
	case PreferFull:
		return RepresentationFull, Costs{}, nil
	case PreferCompact:
		return RepresentationCompact, Costs{}, nil
	}

	fullCost, err := e.estimator.EstimateValue(full)
	if err != nil {
		return "", Costs{}, err
	}
	costs := Costs{
		Full:     fullCost,
		Baseline: e.estimator.EstimateText(raw),
		Measured: true,
	}
	if costs.Full <= costs.Baseline {
		return RepresentationFull, costs, nil
	}
	return RepresentationCompact, costs, nil
}

// Decide chooses a representation for full, derives the payload and renders
// it with the matching formatter. The only error is an estimator anomaly.
func Decide[F, C any](e *Engine, rt *ResultType[F, C], full F, raw string, pref Preference) (*Outcome, error) {
	rep, costs, err := e.Choose(full, raw, pref)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Representation: rep, Costs: costs}
	if rep == RepresentationFull {
		out.Payload = full
		out.Text = rt.FormatFull(full)
		return out, nil
	}

	compact := rt.Project(full)
	out.Payload = compact
	out.Text = rt.FormatCompact(compact)
	return out, nil
}
