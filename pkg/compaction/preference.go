package compaction

import (
	"fmt"
	"strings"
)

// Preference is the caller's compaction choice for one invocation.
type Preference int

const (
	// PreferAuto lets the engine compare costs. It is the default.
	PreferAuto Preference = iota
	// PreferFull always returns the full record.
	PreferFull
	// PreferCompact always returns the compact projection. It is not exposed to
	// MCP clients; internal consumers may use it directly.
	PreferCompact
)

func (p Preference) String() string {
	switch p {
	case PreferFull:
		return "force-full"
	case PreferCompact:
		return "force-compact"
	default:
		return "auto"
	}
}

// PreferenceFromFlag resolves the boolean "compact" tool parameter.
// An explicit false forces the full record; absent or true means auto.
func PreferenceFromFlag(compact *bool) Preference {
	if compact != nil && !*compact {
		return PreferFull
	}
	return PreferAuto
}

// ParsePreference parses a configured preference name.
// Accepted: auto, full, force-full, compact, force-compact (case-insensitive).
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PreferAuto, nil
	case "full", "force-full":
		return PreferFull, nil
	case "compact", "force-compact":
		return PreferCompact, nil
	}
	return PreferAuto, fmt.Errorf("unknown compaction preference %q", s)
}

// Representation tags which shape a decision outcome carries.
type Representation string

const (
	RepresentationFull    Representation = "full"
	RepresentationCompact Representation = "compact"
)
