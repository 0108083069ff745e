package compaction

import "reflect"

// Projection derives a Compact record from a Full record.
// Implementations must be pure and total: the same input always yields an
// equal output, and a missing optional field simply stays missing.
type Projection[F, C any] interface {
	Project(full F) C
}

// ProjectionFunc adapts a plain function to Projection.
type ProjectionFunc[F, C any] func(full F) C

// Project implements Projection.
func (f ProjectionFunc[F, C]) Project(full F) C { return f(full) }

// Formatter renders one representation as human-readable text. Formatters
// never return an empty string and never truncate.
type Formatter[T any] func(v T) string

// ResultType binds a Full record type to its Compact projection and the two
// formatters. One ResultType exists per tool result.
type ResultType[F, C any] struct {
	name          string
	projection    Projection[F, C]
	formatFull    Formatter[F]
	formatCompact Formatter[C]
}

// NewResultType creates a ResultType. It panics on a nil projection or
// formatter: result types are declared at init time.
func NewResultType[F, C any](name string, p Projection[F, C], formatFull Formatter[F], formatCompact Formatter[C]) *ResultType[F, C] {
	if p == nil || formatFull == nil || formatCompact == nil {
		panic("compaction: result type " + name + " needs a projection and both formatters")
	}
	return &ResultType[F, C]{
		name:          name,
		projection:    p,
		formatFull:    formatFull,
		formatCompact: formatCompact,
	}
}

// Name returns the result type's registered name.
func (rt *ResultType[F, C]) Name() string { return rt.name }

// Project returns the compact projection of full.
func (rt *ResultType[F, C]) Project(full F) C { return rt.projection.Project(full) }

// FormatFull renders a full record.
func (rt *ResultType[F, C]) FormatFull(full F) string { return rt.formatFull(full) }

// FormatCompact renders a compact record.
func (rt *ResultType[F, C]) FormatCompact(c C) string { return rt.formatCompact(c) }

// FullType returns the Go type of the full record.
func (rt *ResultType[F, C]) FullType() reflect.Type { return reflect.TypeFor[F]() }

// CompactType returns the Go type of the compact record.
func (rt *ResultType[F, C]) CompactType() reflect.Type { return reflect.TypeFor[C]() }
