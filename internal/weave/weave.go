package weave

import "fmt"

// Weave is a named capability type: a base tapestry, a (possibly composed)
// current tapestry, and whether it can accept a sub-weave.
type Weave struct {
	Name         string
	BaseTapestry Tapestry
	Tapestry     Tapestry
	CanSubWeave  bool
}

// Num, Text, Truth, Empty and Spell are the five built-in base weaves.
var (
	Num = Weave{
		Name:         "NumWeave",
		Tapestry:     NewTapestry(Additive, Subtractive, Multiplicative, Divisive, Ordinal, Equatable),
		BaseTapestry: NewTapestry(Additive, Subtractive, Multiplicative, Divisive, Ordinal, Equatable),
		CanSubWeave:  false,
	}
	Text = Weave{
		Name:         "TextWeave",
		Tapestry:     NewTapestry(Concatinable, Indexive, Equatable),
		BaseTapestry: NewTapestry(Concatinable, Indexive, Equatable),
		CanSubWeave:  false,
	}
	Truth = Weave{
		Name:         "TruthWeave",
		Tapestry:     NewTapestry(Conditional, Equatable),
		BaseTapestry: NewTapestry(Conditional, Equatable),
		CanSubWeave:  false,
	}
	Empty = Weave{
		Name:         "EmptyWeave",
		Tapestry:     NewTapestry(NoStrand),
		BaseTapestry: NewTapestry(NoStrand),
		CanSubWeave:  false,
	}
	Spell = Weave{
		Name:         "SpellWeave",
		Tapestry:     NewTapestry(Callable),
		BaseTapestry: NewTapestry(Callable),
		CanSubWeave:  true,
	}
	// Unknown stands for the result of a gamble cast: a call whose callee
	// could not be resolved to a statically known spell. It carries every
	// strand so no further static check on its use is rejected; the VM
	// enforces correctness at the call site instead.
	Unknown = Weave{
		Name:         "UnknownWeave",
		Tapestry:     NewTapestry(Additive, Subtractive, Multiplicative, Divisive, Ordinal, Conditional, Concatinable, Indexive, Iterable, Equatable, Callable),
		BaseTapestry: NewTapestry(Additive, Subtractive, Multiplicative, Divisive, Ordinal, Conditional, Concatinable, Indexive, Iterable, Equatable, Callable),
		CanSubWeave:  true,
	}
)

// ByName maps the five base weave names to their Weave value, used to
// resolve a weave annotation (e.g. "NumWeave") written in source.
func ByName() map[string]Weave {
	return map[string]Weave{
		Num.Name:   Num,
		Text.Name:  Text,
		Truth.Name: Truth,
		Empty.Name: Empty,
		Spell.Name: Spell,
	}
}

// Error reports a composition failure: the base weave cannot accept a
// sub-weave.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

// Compose implements the weave(base, inner) operator: the result's
// tapestry is base.tapestry | inner.tapestry, its base_tapestry stays
// base.BaseTapestry unchanged, and it remains sub-weaveable, named
// "Base<Inner>".
func Compose(base, inner Weave) (Weave, error) {
	if !base.CanSubWeave {
		return Weave{}, &Error{msg: fmt.Sprintf("the weave '%s' cannot contain any sub weaves!", base.Name)}
	}
	newTapestry := base.Tapestry
	newTapestry.Weave(Strand(inner.Tapestry))
	return Weave{
		Name:         fmt.Sprintf("%s<%s>", base.Name, inner.Name),
		Tapestry:     newTapestry,
		BaseTapestry: base.BaseTapestry,
		CanSubWeave:  true,
	}, nil
}

// Equal compares two weaves by tapestry bits, the exact-equality rule used
// for release-weave checking (§9: structural supersets are not accepted).
func Equal(a, b Weave) bool {
	return a.Tapestry.Bits() == b.Tapestry.Bits()
}
