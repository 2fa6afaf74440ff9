// Package weave implements the capability/type system: strands, tapestries,
// and named weaves, plus the sub-weave composition operator.
package weave

// Strand is a single capability flag. A Tapestry is a bitset of strands.
type Strand uint64

const (
	NoStrand Strand = 0

	// Additive/Subtractive govern + and - respectively.
	Additive       Strand = 1 << 0
	Subtractive    Strand = 1 << 1
	Multiplicative Strand = 1 << 2
	Divisive       Strand = 1 << 3
	// Ordinal governs <, <=, >, >=.
	Ordinal Strand = 1 << 4
	// Conditional governs use in fate/while conditions and unary !.
	Conditional Strand = 1 << 5
	// Concatinable governs + between two textual operands.
	Concatinable Strand = 1 << 6
	Indexive     Strand = 1 << 7
	Iterable     Strand = 1 << 8
	// Equatable governs == and !=.
	Equatable Strand = 1 << 9
	// Callable governs cast.
	Callable Strand = 1 << 10
)

var strandNames = map[Strand]string{
	Additive:       "ADDITIVE",
	Subtractive:    "SUBTRACTIVE",
	Multiplicative: "MULTIPLICATIVE",
	Divisive:       "DIVISIVE",
	Ordinal:        "ORDINAL",
	Conditional:    "CONDITIONAL",
	Concatinable:   "CONCATINABLE",
	Indexive:       "INDEXIVE",
	Iterable:       "ITERABLE",
	Equatable:      "EQUATABLE",
	Callable:       "CALLABLE",
	NoStrand:       "NONE",
}

// String renders a single strand's name, or "UNKNOWN" for an unrecognized bit.
func (s Strand) String() string {
	if name, ok := strandNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
