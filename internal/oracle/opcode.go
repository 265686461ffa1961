package oracle

import (
	"context"
	"fmt"
	"structural-diff/internal/fingerprint"

	"golang.org/x/xerrors"
)

// Kind tags an edit operation over the two row-token sequences.
type Kind int

const (
	Equal Kind = iota
	Insert
	Delete
	Replace
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Replace:
		return "replace"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Opcode is one edit operation with 0-based half-open row ranges into
// sequence A (baseline) and sequence B (target).
type Opcode struct {
	Kind   Kind
	AStart int
	AEnd   int
	BStart int
	BEnd   int
}

func (o Opcode) ASpan() int { return o.AEnd - o.AStart }
func (o Opcode) BSpan() int { return o.BEnd - o.BStart }

func (o Opcode) String() string {
	return fmt.Sprintf("%s(a[%d:%d] b[%d:%d])", o.Kind, o.AStart, o.AEnd, o.BStart, o.BEnd)
}

// Oracle aligns two token sequences into an edit script. Implementations must
// return opcodes that tile [0,len(a)) and [0,len(b)) contiguously with no
// gaps or overlaps.
type Oracle interface {
	Align(ctx context.Context, a []fingerprint.Token, b []fingerprint.Token) ([]Opcode, error)
}

// ValidateCoverage checks the contiguity invariant over both sequences.
func ValidateCoverage(opcodes []Opcode, aLen int, bLen int) error {
	aPos, bPos := 0, 0
	for _, op := range opcodes {
		if op.AStart != aPos || op.BStart != bPos {
			return xerrors.Errorf("opcode %s does not start at cursor (a=%d b=%d)", op, aPos, bPos)
		}
		if op.ASpan() < 0 || op.BSpan() < 0 {
			return xerrors.Errorf("opcode %s has negative span", op)
		}
		switch op.Kind {
		case Equal:
			if op.ASpan() != op.BSpan() {
				return xerrors.Errorf("equal opcode %s has mismatched spans", op)
			}
		case Insert:
			if op.ASpan() != 0 || op.BSpan() == 0 {
				return xerrors.Errorf("insert opcode %s has invalid spans", op)
			}
		case Delete:
			if op.ASpan() == 0 || op.BSpan() != 0 {
				return xerrors.Errorf("delete opcode %s has invalid spans", op)
			}
		case Replace:
			if op.ASpan() == 0 || op.BSpan() == 0 {
				return xerrors.Errorf("replace opcode %s has an empty side", op)
			}
		}
		aPos = op.AEnd
		bPos = op.BEnd
	}
	if aPos != aLen || bPos != bLen {
		return xerrors.Errorf("opcodes cover a[0:%d) b[0:%d), want a[0:%d) b[0:%d)", aPos, bPos, aLen, bLen)
	}
	return nil
}
