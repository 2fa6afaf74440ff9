package weave

import "testing"

func TestTapestryHasStrand(t *testing.T) {
	if !Num.Tapestry.HasStrand(Additive) {
		t.Error("NumWeave should carry the Additive strand")
	}
	if Num.Tapestry.HasStrand(Concatinable) {
		t.Error("NumWeave should not carry the Concatinable strand")
	}
}

func TestComposeRequiresSubWeaveable(t *testing.T) {
	if _, err := Compose(Num, Text); err == nil {
		t.Error("expected an error composing a non-sub-weaveable base")
	}
}

func TestComposeSpellOverNum(t *testing.T) {
	composed, err := Compose(Spell, Num)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if composed.Name != "SpellWeave<NumWeave>" {
		t.Errorf("Name = %q, want %q", composed.Name, "SpellWeave<NumWeave>")
	}
	if !composed.Tapestry.HasStrand(Callable) {
		t.Error("composed weave should keep the Callable strand")
	}
	if !composed.Tapestry.HasStrand(Additive) {
		t.Error("composed weave should pick up the inner weave's Additive strand")
	}
	if composed.BaseTapestry.Bits() != Spell.BaseTapestry.Bits() {
		t.Error("composed weave's base tapestry should stay the outer base's")
	}
}

func TestEqualUsesExactTapestryBits(t *testing.T) {
	if !Equal(Num, Num) {
		t.Error("a weave should equal itself")
	}
	if Equal(Num, Text) {
		t.Error("NumWeave and TextWeave should not be equal")
	}
	composed, _ := Compose(Spell, Num)
	if Equal(composed, Spell) {
		t.Error("a composed weave should not equal its uncomposed base (superset != exact match)")
	}
}

func TestByNameResolvesBaseWeaves(t *testing.T) {
	names := ByName()
	for _, w := range []Weave{Num, Text, Truth, Empty, Spell} {
		if got, ok := names[w.Name]; !ok || got.Name != w.Name {
			t.Errorf("ByName()[%q] missing or wrong", w.Name)
		}
	}
}
