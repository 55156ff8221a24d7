package cpp

import "testing"

func TestMacroTableDefineAndLookupObjectLike(t *testing.T) {
	mt := NewMacroTable()
	mt.Define("FOO", nil, false, instantToken(Number, "1"))

	name := instantToken(Ident, "FOO")
	if m := mt.Lookup(name, nil); m == nil {
		t.Fatal("expected FOO to be found when not followed by '('")
	}
	if m := mt.Lookup(name, instantToken(Reserved, "(")); m != nil {
		t.Error("object-like macro must not match when followed directly by '(', per the reference lookup rule")
	}
}

func TestMacroTableDefineAndLookupFunctionLike(t *testing.T) {
	mt := NewMacroTable()
	mt.Define("ADD", []string{"a", "b"}, false, instantToken(Ident, "a"))

	name := instantToken(Ident, "ADD")
	if m := mt.Lookup(name, instantToken(Reserved, "(")); m == nil {
		t.Fatal("expected ADD to be found when followed by '('")
	}
	if m := mt.Lookup(name, nil); m != nil {
		t.Error("function-like macro must not match when not followed by '('")
	}
}

func TestMacroTableEmptyParamsStillFunctionLike(t *testing.T) {
	mt := NewMacroTable()
	mt.Define("NOARGS", []string{}, false, instantToken(Number, "1"))
	m := mt.Lookup(instantToken(Ident, "NOARGS"), instantToken(Reserved, "("))
	if m == nil || !m.funcLike() {
		t.Fatal("a zero-length (non-nil) Params slice must still count as function-like")
	}
}

func TestMacroTableUndefine(t *testing.T) {
	mt := NewMacroTable()
	mt.Define("X", nil, false, instantToken(Number, "1"))
	mt.Undefine("X")
	if mt.IsDefined("X") {
		t.Error("expected X to be gone after Undefine")
	}
	mt.Undefine("NEVER_DEFINED") // must not panic
}

func TestMacroTableRedefineShadowsOlder(t *testing.T) {
	mt := NewMacroTable()
	mt.Define("X", nil, false, instantToken(Number, "1"))
	mt.Define("X", nil, false, instantToken(Number, "2"))
	m := mt.Lookup(instantToken(Ident, "X"), nil)
	if m.Replacement.Text != "2" {
		t.Errorf("expected the most recent definition to win, got %q", m.Replacement.Text)
	}
}

func TestPredefinedMacrosSeeded(t *testing.T) {
	mt := NewMacroTable()
	for _, name := range []string{"__FILE__", "__LINE__", "__STDC__", "__GNUC__"} {
		if !mt.IsDefined(name) {
			t.Errorf("expected %s to be predefined", name)
		}
	}
}

func TestUsedMacroSet(t *testing.T) {
	a := &Macro{Name: "A"}
	b := &Macro{Name: "B"}

	var set *usedMacro
	if contains(set, a) {
		t.Fatal("empty set must not contain anything")
	}
	set = &usedMacro{macro: a, next: set}
	if !contains(set, a) {
		t.Error("expected set to contain a after insertion")
	}
	if contains(set, b) {
		t.Error("set must not contain b")
	}

	var other *usedMacro
	other = &usedMacro{macro: b, next: other}
	mergeUsed(&set, other)
	if !contains(set, a) || !contains(set, b) {
		t.Error("merge must union both sets")
	}

	before := set
	mergeUsed(&set, other)
	n := 0
	for u := set; u != nil; u = u.next {
		n++
	}
	_ = before
	if n != 2 {
		t.Errorf("merging an already-contained set must not duplicate entries, got %d entries", n)
	}
}
