// Package refine post-processes edit scripts before rendering. Runs of thin
// alternating insert/delete opcodes around a changed region read as visual
// noise; collapsing a small run into a single replace band keeps the output
// legible while larger spans stay precisely attributed.
package refine

import (
	"structural-diff/internal/oracle"
)

// Merge collapses each consecutive run of insert/delete opcodes whose larger
// total span is strictly below threshold into one replace opcode. A run that
// is empty on either side is left untouched, since a replace opcode must
// consume rows from both sequences. threshold <= 0 disables merging.
func Merge(opcodes []oracle.Opcode, threshold int) []oracle.Opcode {
	if threshold <= 0 {
		return opcodes
	}

	result := make([]oracle.Opcode, 0, len(opcodes))
	var group []oracle.Opcode

	flush := func() {
		if len(group) == 0 {
			return
		}
		first := group[0]
		last := group[len(group)-1]
		aSpan := last.AEnd - first.AStart
		bSpan := last.BEnd - first.BStart
		if aSpan > 0 && bSpan > 0 && max(aSpan, bSpan) < threshold {
			result = append(result, oracle.Opcode{
				Kind:   oracle.Replace,
				AStart: first.AStart,
				AEnd:   last.AEnd,
				BStart: first.BStart,
				BEnd:   last.BEnd,
			})
		} else {
			result = append(result, group...)
		}
		group = group[:0]
	}

	for _, op := range opcodes {
		switch op.Kind {
		case oracle.Insert, oracle.Delete:
			group = append(group, op)
		default:
			flush()
			result = append(result, op)
		}
	}
	flush()

	return result
}
