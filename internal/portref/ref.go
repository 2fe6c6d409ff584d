package portref

import (
	"fmt"
	"strings"
)

// Side selects the input or output ports of a block.
type Side string

const (
	In  Side = "in"
	Out Side = "out"
)

// Ref is the structured form of a port reference.
type Ref struct {
	Block string
	Side  Side
	Index int
}

// String returns the canonical form, always with an explicit index.
func (r Ref) String() string {
	return fmt.Sprintf("%s.%s[%d]", r.Block, r.Side, r.Index)
}

// Parse reads a reference such as `ctrl.in[1]`.
func Parse(raw string) (Ref, error) {
	if strings.TrimSpace(raw) == "" {
		return Ref{}, fmt.Errorf("port reference cannot be empty")
	}

	ast, err := refParser.ParseString("", raw)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid port reference %q: %w", raw, err)
	}

	ref := Ref{Block: ast.Block, Side: Side(ast.Side)}
	if ast.Index != nil {
		ref.Index = *ast.Index
	}
	return ref, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(raw string) Ref {
	ref, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return ref
}

// ValidateBlockID checks that id can be used as the block part of a
// reference.
func ValidateBlockID(id string) error {
	if id == "" {
		return fmt.Errorf("block identifier cannot be empty")
	}
	if _, err := blockIDParser.ParseString("", id); err != nil {
		return fmt.Errorf("invalid block identifier %q: must start with a letter or underscore and contain only letters, digits, '_' or '-'", id)
	}
	return nil
}
