package value

import "testing"

func TestTruthiness(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"true", BoxBool(true), true},
		{"false", BoxBool(false), false},
		{"zero number", BoxNumber(0), true},
		{"empty string", BoxString(""), true},
		{"emptiness", Emptiness, true},
	}
	for _, test := range tests {
		if got := test.v.IsTruthy(); got != test.want {
			t.Errorf("%s: IsTruthy() = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal numbers", BoxNumber(3), BoxNumber(3), true},
		{"different numbers", BoxNumber(3), BoxNumber(4), false},
		{"equal strings", BoxString("hi"), BoxString("hi"), true},
		{"different kinds", BoxNumber(1), BoxBool(true), false},
		{"emptiness always equal", Emptiness, Emptiness, true},
		{"closures never equal", BoxClosure(NewClosure(&Spell{Name: "f"}, nil)), BoxClosure(NewClosure(&Spell{Name: "f"}, nil)), false},
	}
	for _, test := range tests {
		if got := test.a.Equal(test.b); got != test.want {
			t.Errorf("%s: Equal() = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestStringRendering(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{BoxNumber(3), "3"},
		{BoxNumber(3.5), "3.5"},
		{BoxString("hi"), "hi"},
		{BoxBool(true), "true"},
		{BoxBool(false), "false"},
		{Emptiness, "emptiness"},
	}
	for _, test := range tests {
		if got := test.v.String(); got != test.want {
			t.Errorf("String() = %q, want %q", got, test.want)
		}
	}
}
