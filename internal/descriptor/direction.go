package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction marks how a block participates in the signal flow.
//
// The numeric encoding is part of the block-kind contract: 0 and 1 come from
// the hardware block library, 2 covers processing blocks that both consume
// and produce signals.
type Direction int

const (
	// Source reads from hardware or the network and only produces outputs.
	Source Direction = 0
	// Sink writes to hardware and only consumes inputs.
	Sink Direction = 1
	// Inline consumes inputs and produces outputs.
	Inline Direction = 2
)

// Valid reports whether d is a known direction value.
func (d Direction) Valid() bool {
	switch d {
	case Source, Sink, Inline:
		return true
	}
	return false
}

func (d Direction) String() string {
	switch d {
	case Source:
		return "source"
	case Sink:
		return "sink"
	case Inline:
		return "inline"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection accepts either the symbolic name ("source", "sink",
// "inline") or the numeric encoding ("0", "1", "2").
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "source":
		return Source, nil
	case "sink":
		return Sink, nil
	case "inline":
		return Inline, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Direction(n).Valid() {
		return 0, fmt.Errorf("unknown direction %q: must be 'source', 'sink', 'inline' or 0, 1, 2", s)
	}
	return Direction(n), nil
}
