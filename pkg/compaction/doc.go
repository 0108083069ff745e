// Package compaction decides, per tool invocation, whether the structured
// response carries the full parsed result or a compact projection of it.
//
// Every CLI-backed tool produces a Full record from the command's raw output.
// A [ResultType] pairs that record type with its Compact counterpart, the pure
// projection between them, and one formatter for each shape. The [Engine]
// chooses the representation:
//
//   - [PreferFull] always returns the full record.
//   - [PreferCompact] always returns the projection.
//   - [PreferAuto] measures the serialized full record and the raw CLI text
//     with the same [Estimator]. The full record is kept when it costs no more
//     than the raw text; otherwise the projection is returned.
//
// The raw output is the baseline the caller already accepted by invoking the
// tool, so there is no absolute token budget to tune.
//
// # Usage
//
//	rt := compaction.NewResultType("lint",
//	    compaction.ProjectionFunc[lint.Full, lint.Compact](lint.Project),
//	    lint.FormatFull, lint.FormatCompact)
//
//	outcome, err := compaction.Decide(engine, rt, full, res.Output(), compaction.PreferAuto)
//	if err != nil {
//	    return err // estimator anomaly: the full record could not be measured
//	}
//	fmt.Println(outcome.Representation, outcome.Text)
//
// The package performs no I/O and keeps no per-invocation state; an Engine may
// be shared by any number of concurrent invocations.
package compaction
