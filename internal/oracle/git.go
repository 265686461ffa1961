package oracle

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"structural-diff/internal/fingerprint"

	"golang.org/x/xerrors"
)

// Algorithm selects git's edit-script heuristic.
type Algorithm string

const (
	Myers     Algorithm = "myers"
	Minimal   Algorithm = "minimal"
	Patience  Algorithm = "patience"
	Histogram Algorithm = "histogram"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case Myers, Minimal, Patience, Histogram:
		return Algorithm(s), nil
	}
	return "", xerrors.Errorf("unknown diff algorithm: %s", s)
}

// GitOracle computes edit scripts by invoking `git diff --no-index` on two
// temp files of newline-joined tokens. git exits 0 when the inputs are
// identical, 1 when differences were found, and anything else on failure.
type GitOracle struct {
	Algorithm Algorithm

	// GitPath overrides the binary looked up on PATH.
	GitPath string
}

func NewGitOracle(algorithm Algorithm) *GitOracle {
	return &GitOracle{
		Algorithm: algorithm,
	}
}

func (g *GitOracle) Align(ctx context.Context, a []fingerprint.Token, b []fingerprint.Token) ([]Opcode, error) {
	dir, err := os.MkdirTemp("", "structural-diff-")
	if err != nil {
		return nil, xerrors.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	aPath := filepath.Join(dir, "a")
	bPath := filepath.Join(dir, "b")
	if err := writeTokens(aPath, a); err != nil {
		return nil, err
	}
	if err := writeTokens(bPath, b); err != nil {
		return nil, err
	}

	algorithm := g.Algorithm
	if algorithm == "" {
		algorithm = Myers
	}

	cmd := exec.CommandContext(ctx, g.gitPath(),
		"diff", "--no-index", "--no-color", "--unified=0",
		"--diff-algorithm="+string(algorithm),
		aPath, bPath,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		// Identical inputs: a single equal opcode spanning both sequences.
		return []Opcode{{Kind: Equal, AStart: 0, AEnd: len(a), BStart: 0, BEnd: len(b)}}, nil
	}

	var exitError *exec.ExitError
	if !errors.As(err, &exitError) || exitError.ExitCode() != 1 {
		return nil, xerrors.Errorf("failed to invoke git diff (stderr: %s): %w", strings.TrimSpace(stderr.String()), err)
	}

	opcodes, err := parseHunks(stdout.Bytes(), len(a), len(b))
	if err != nil {
		return nil, err
	}
	return opcodes, nil
}

func (g *GitOracle) gitPath() string {
	if g.GitPath != "" {
		return g.GitPath
	}
	return "git"
}

func writeTokens(path string, tokens []fingerprint.Token) error {
	var buffer bytes.Buffer
	for _, token := range tokens {
		buffer.WriteString(string(token))
		buffer.WriteByte('\n')
	}
	if err := os.WriteFile(path, buffer.Bytes(), 0600); err != nil {
		return xerrors.Errorf("failed to write token sequence: %w", err)
	}
	return nil
}

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// parseHunks converts unified hunk headers to opcodes and fills the gaps
// before, between and after hunks with equal opcodes, so the result tiles
// both sequences exactly.
func parseHunks(output []byte, aLen int, bLen int) ([]Opcode, error) {
	var opcodes []Opcode
	aPos, bPos := 0, 0

	for _, line := range strings.Split(string(output), "\n") {
		m := hunkHeaderPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		aStart, aEnd, err := hunkRange(m[1], m[2])
		if err != nil {
			return nil, err
		}
		bStart, bEnd, err := hunkRange(m[3], m[4])
		if err != nil {
			return nil, err
		}

		if aStart-aPos != bStart-bPos || aStart < aPos {
			return nil, xerrors.Errorf("hunk %q is inconsistent with cursor (a=%d b=%d)", line, aPos, bPos)
		}
		if aStart > aPos {
			opcodes = append(opcodes, Opcode{Kind: Equal, AStart: aPos, AEnd: aStart, BStart: bPos, BEnd: bStart})
		}

		kind := Replace
		switch {
		case aEnd == aStart && bEnd == bStart:
			return nil, xerrors.Errorf("hunk %q is empty on both sides", line)
		case aEnd == aStart:
			kind = Insert
		case bEnd == bStart:
			kind = Delete
		}
		opcodes = append(opcodes, Opcode{Kind: kind, AStart: aStart, AEnd: aEnd, BStart: bStart, BEnd: bEnd})

		aPos = aEnd
		bPos = bEnd
	}

	if aLen-aPos != bLen-bPos || aPos > aLen {
		return nil, xerrors.Errorf("hunks end at a=%d b=%d, inconsistent with lengths a=%d b=%d", aPos, bPos, aLen, bLen)
	}
	if aPos < aLen {
		opcodes = append(opcodes, Opcode{Kind: Equal, AStart: aPos, AEnd: aLen, BStart: bPos, BEnd: bLen})
	}

	if err := ValidateCoverage(opcodes, aLen, bLen); err != nil {
		return nil, err
	}
	return opcodes, nil
}

// hunkRange converts a 1-based start/length pair from a hunk header into a
// 0-based half-open range. A zero length means the start reports the line
// before the gap, so the 0-based position is the start itself.
func hunkRange(startField string, lengthField string) (int, int, error) {
	start, err := strconv.Atoi(startField)
	if err != nil {
		return 0, 0, xerrors.Errorf("invalid hunk start %q: %w", startField, err)
	}

	length := 1
	if lengthField != "" {
		length, err = strconv.Atoi(lengthField)
		if err != nil {
			return 0, 0, xerrors.Errorf("invalid hunk length %q: %w", lengthField, err)
		}
	}

	if length == 0 {
		return start, start, nil
	}
	return start - 1, start - 1 + length, nil
}
