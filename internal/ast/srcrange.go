package ast

// SourceRange is a closed byte interval [start, end] over the program text.
type SourceRange [2]int

func (r SourceRange) Start() int { return r[0] }
func (r SourceRange) End() int   { return r[1] }

// Contains is inclusive on both ends, so a boundary offset belongs to both
// adjacent nodes. Callers resolve this by scan order.
func (r SourceRange) Contains(pos int) bool {
	return r[0] <= pos && pos <= r[1]
}

// ContainsRange reports whether other lies fully inside r.
func (r SourceRange) ContainsRange(other SourceRange) bool {
	return r[0] <= other[0] && other[1] <= r[1]
}

// Position is a zero-based line/column pair. Columns count bytes.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// LSPRange is a line/column range as editor protocols expect it.
type LSPRange struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// OffsetToPosition converts a byte offset into a line/column position by
// counting newline bytes in code. Offsets past the end clamp to the end.
func OffsetToPosition(code string, offset int) Position {
	if offset > len(code) {
		offset = len(code)
	}
	if offset < 0 {
		offset = 0
	}
	line, col := 0, 0
	for i := 0; i < offset; i++ {
		if code[i] == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return Position{Line: line, Character: col}
}

// PositionToOffset is the inverse of OffsetToPosition. A position beyond the
// end of its line clamps to the line's end.
func PositionToOffset(code string, p Position) int {
	line := 0
	i := 0
	for i < len(code) && line < p.Line {
		if code[i] == '\n' {
			line++
		}
		i++
	}
	for c := 0; c < p.Character && i < len(code) && code[i] != '\n'; c++ {
		i++
	}
	return i
}

// ToLSPRange converts r into line/column form against code.
func (r SourceRange) ToLSPRange(code string) LSPRange {
	return LSPRange{
		Start: OffsetToPosition(code, r[0]),
		End:   OffsetToPosition(code, r[1]),
	}
}
