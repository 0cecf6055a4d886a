package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// NormalizeSnapshot converts line endings to LF and strips trailing
// whitespace from every line and from the end of the document.
func NormalizeSnapshot(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	return bytes.TrimRight(bytes.Join(lines, []byte("\n")), "\n")
}

// CompareSnapshots reports whether received matches verified after
// normalization. On mismatch the second result is a line diff.
func CompareSnapshots(verified, received []byte) (bool, string) {
	a := NormalizeSnapshot(verified)
	b := NormalizeSnapshot(received)
	if bytes.Equal(a, b) {
		return true, ""
	}
	return false, Diff(string(a), string(b), "verified", "received")
}

// Diff renders a unified line diff of want and got with up to three lines of
// context around each change. Identical inputs produce an empty diff.
func Diff(want, got, wantLabel, gotLabel string) string {
	ops := diffLines(strings.Split(want, "\n"), strings.Split(got, "\n"))

	fd := &diff.FileDiff{OrigName: wantLabel, NewName: gotLabel}
	const context = 3
	for start := 0; start < len(ops); {
		// find the next change
		first := start
		for first < len(ops) && ops[first].kind == ' ' {
			first++
		}
		if first == len(ops) {
			break
		}
		// extend the hunk while changes are within 2*context lines
		last := first
		for i := first; i < len(ops); i++ {
			if ops[i].kind != ' ' {
				last = i
			} else if i-last > 2*context {
				break
			}
		}
		from := max(start, first-context)
		to := min(len(ops), last+context+1)
		fd.Hunks = append(fd.Hunks, hunk(ops[from:to]))
		start = to
	}
	if len(fd.Hunks) == 0 {
		return ""
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return fmt.Sprintf("--- %s\n+++ %s\n(diff unavailable: %v)\n", wantLabel, gotLabel, err)
	}
	return string(out)
}

func hunk(ops []diffOp) *diff.Hunk {
	h := &diff.Hunk{
		OrigStartLine: int32(ops[0].wantLine + 1),
		NewStartLine:  int32(ops[0].gotLine + 1),
	}
	var body bytes.Buffer
	for _, op := range ops {
		if op.kind != '+' {
			h.OrigLines++
		}
		if op.kind != '-' {
			h.NewLines++
		}
		body.WriteByte(op.kind)
		body.WriteString(op.text)
		body.WriteByte('\n')
	}
	// empty ranges start at the line before them
	if h.OrigLines == 0 {
		h.OrigStartLine--
	}
	if h.NewLines == 0 {
		h.NewStartLine--
	}
	h.Body = body.Bytes()
	return h
}

type diffOp struct {
	kind     byte
	text     string
	wantLine int
	gotLine  int
}

// diffLines computes an edit script from the longest common subsequence.
func diffLines(a, b []string) []diffOp {
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var ops []diffOp
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			ops = append(ops, diffOp{' ', a[i], i, j})
			i++
			j++
		case j < len(b) && (i == len(a) || lcs[i][j+1] >= lcs[i+1][j]):
			ops = append(ops, diffOp{'+', b[j], i, j})
			j++
		default:
			ops = append(ops, diffOp{'-', a[i], i, j})
			i++
		}
	}
	return ops
}
