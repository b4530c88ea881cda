package analysis

import "fmt"

// Mode selects the initial busy-period estimate.
type Mode int

const (
	// ModeExact starts from wcet + blocking and converges to the tightest bound.
	ModeExact Mode = iota
	// ModeBounded starts from the deadline and only tests deadline compliance.
	ModeBounded
)

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeBounded:
		return "bounded"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "exact" or "bounded".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "exact", "":
		return ModeExact, nil
	case "bounded":
		return ModeBounded, nil
	}
	return 0, fmt.Errorf("unknown mode %q (use exact or bounded)", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Comparison decides whether a resource whose ceiling equals the target
// task's priority can block it.
type Comparison int

const (
	// CeilingInclusive: ceiling >= prio blocks.
	CeilingInclusive Comparison = iota
	// CeilingStrict: only ceiling > prio blocks.
	CeilingStrict
)

// Reaches reports whether ceiling is high enough to block a task at prio.
func (c Comparison) Reaches(ceiling, prio int) bool {
	if c == CeilingStrict {
		return ceiling > prio
	}
	return ceiling >= prio
}

func (c Comparison) String() string {
	switch c {
	case CeilingInclusive:
		return "inclusive"
	case CeilingStrict:
		return "strict"
	default:
		return fmt.Sprintf("comparison(%d)", int(c))
	}
}

// ParseComparison parses "inclusive" or "strict".
func ParseComparison(s string) (Comparison, error) {
	switch s {
	case "inclusive", ">=", "":
		return CeilingInclusive, nil
	case "strict", ">":
		return CeilingStrict, nil
	}
	return 0, fmt.Errorf("unknown ceiling comparison %q (use inclusive or strict)", s)
}

func (c Comparison) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Comparison) UnmarshalText(b []byte) error {
	v, err := ParseComparison(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ReleaseCount selects how many releases of a higher-priority task are
// charged to a busy period of length L.
type ReleaseCount int

const (
	// ReleasesCeil charges ceil(L / inter_arrival) releases.
	ReleasesCeil ReleaseCount = iota
	// ReleasesFloorPlusOne charges 1 + floor(L / inter_arrival) releases,
	// one extra whenever L is an exact multiple of the inter-arrival time.
	ReleasesFloorPlusOne
)

// Count returns the number of releases within a busy period of length l.
// interArrival must be positive.
func (rc ReleaseCount) Count(l uint64, interArrival uint32) uint64 {
	ia := uint64(interArrival)
	if rc == ReleasesFloorPlusOne {
		return 1 + l/ia
	}
	return (l + ia - 1) / ia
}

func (rc ReleaseCount) String() string {
	switch rc {
	case ReleasesCeil:
		return "ceil"
	case ReleasesFloorPlusOne:
		return "floor+1"
	default:
		return fmt.Sprintf("releases(%d)", int(rc))
	}
}

// ParseReleaseCount parses "ceil" or "floor+1".
func ParseReleaseCount(s string) (ReleaseCount, error) {
	switch s {
	case "ceil", "":
		return ReleasesCeil, nil
	case "floor+1", "floor":
		return ReleasesFloorPlusOne, nil
	}
	return 0, fmt.Errorf("unknown release count %q (use ceil or floor+1)", s)
}

func (rc ReleaseCount) MarshalText() ([]byte, error) { return []byte(rc.String()), nil }

func (rc *ReleaseCount) UnmarshalText(b []byte) error {
	v, err := ParseReleaseCount(string(b))
	if err != nil {
		return err
	}
	*rc = v
	return nil
}
