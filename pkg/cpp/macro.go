package cpp

// Macro is a named definition: an object-like macro has Params == nil; a
// function-like macro has Params != nil, even when it takes zero parameters
// (an empty, non-nil slice still means "function-like").
type Macro struct {
	Name        string
	Params      []string // nil => object-like
	Variadic    bool      // true if the last parameter is "..."
	Replacement *Token    // linked chain of replacement tokens

	next *Macro // macro-table linkage
}

func (m *Macro) funcLike() bool { return m.Params != nil }

// usedMacro is a linked set of macros already consumed in a token's
// derivation, identity-keyed on the *Macro pointer (name equality would
// suffice too, since names are unique in the live table, but identity is
// what the set is defined over).
type usedMacro struct {
	macro *Macro
	next  *usedMacro
}

func contains(set *usedMacro, m *Macro) bool {
	for u := set; u != nil; u = u.next {
		if u.macro == m {
			return true
		}
	}
	return false
}

// mergeUsed unions add into *dest, skipping macros already present.
func mergeUsed(dest **usedMacro, add *usedMacro) {
	for u := add; u != nil; u = u.next {
		if contains(*dest, u.macro) {
			continue
		}
		*dest = &usedMacro{macro: u.macro, next: *dest}
	}
}

// MacroTable is a single linked list of macro definitions: front-insertion,
// linear scan, unlink-on-remove.
type MacroTable struct {
	head *Macro
}

// NewMacroTable creates an empty macro table and seeds it with the fixed
// predefined macros (__FILE__, __LINE__ sentinels plus the compiler-identity
// constants a real toolchain expects to see defined).
func NewMacroTable() *MacroTable {
	mt := &MacroTable{}
	for _, pd := range predefinedMacros {
		mt.Define(pd.name, nil, false, instantToken(Number, pd.value))
	}
	return mt
}

type predefinedMacro struct{ name, value string }

// predefinedMacros is the fixed seed list from the external interface
// contract. __FILE__ and __LINE__ are never looked up through this table at
// expansion time (the expander short-circuits them), but they are seeded so
// that `defined(__FILE__)` reads true.
var predefinedMacros = []predefinedMacro{
	{"__FILE__", ""},
	{"__LINE__", ""},
	{"__x86_64", "1"},
	{"__x86_64__", "1"},
	{"__VERSION__", "0.1"},
	{"__STDC_VERSION__", "201112L"},
	{"__STDC__", "1"},
	{"__STDC_HOSTED__", "1"},
	{"__GNUC__", "13"},
	{"__GNUC_MINOR__", "3"},
}

// Define inserts a macro at the front of the table, normalizing an empty
// replacement to a single empty WHITESPACE sentinel so the chain is never
// nil for a defined macro.
func (mt *MacroTable) Define(name string, params []string, variadic bool, replacement *Token) {
	if replacement == nil {
		replacement = instantToken(Whitespace, "")
	}
	mt.head = &Macro{Name: name, Params: params, Variadic: variadic, Replacement: replacement, next: mt.head}
}

// Lookup scans for a macro named by nameTok, applying the parenthesis
// disambiguation rule: an object-like macro matches only when following is
// not '(', a function-like macro only when it is.
func (mt *MacroTable) Lookup(nameTok, following *Token) *Macro {
	name := nameTok.Text
	followsParen := following != nil && following.is("(")
	for m := mt.head; m != nil; m = m.next {
		if m.Name != name {
			continue
		}
		if m.funcLike() == followsParen {
			return m
		}
	}
	return nil
}

// IsDefined reports whether any macro named name exists, ignoring the
// parenthesis rule (used by #ifdef/#ifndef/defined, which test existence
// only).
func (mt *MacroTable) IsDefined(name string) bool {
	for m := mt.head; m != nil; m = m.next {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Undefine removes the first macro named name, if any.
func (mt *MacroTable) Undefine(name string) {
	for p := &mt.head; *p != nil; p = &(*p).next {
		if (*p).Name == name {
			*p = (*p).next
			return
		}
	}
}
