package cpp

// Expander performs macro expansion with hygiene: recursive rescan of
// expansion results, argument pre-expansion, and the '#'/'##'/__VA_ARGS__
// substitution operators. It holds no state of its own beyond the macro
// table; the __LINE__/__FILE__ origin token and the live environment (for
// pulling call arguments off the input stream) are threaded through calls
// explicitly rather than kept as package globals.
type Expander struct {
	Macros *MacroTable
}

func NewExpander(mt *MacroTable) *Expander {
	return &Expander{Macros: mt}
}

// ExpandAtCursor is the entry point used while scanning live input: saddr
// holds the just-consumed IDENT token, and env's lookahead may still need
// to be pulled in (to capture a function-like macro's call arguments)
// before expansion can proceed. On return *saddr holds the tail of the
// expansion, matching ExpandRecursive's contract, so the caller's scan
// position can simply continue from there.
func (ex *Expander) ExpandAtCursor(saddr **Token, env *Environment) (*Token, error) {
	callTok := *saddr
	m := ex.Macros.Lookup(callTok, env.Cur)
	if m == nil {
		return callTok, nil
	}
	if m.funcLike() && env.Cur != nil && env.Cur.is("(") {
		args, err := consumeFuncArgs(env)
		if err != nil {
			return nil, err
		}
		callTok.Next = args
	}
	leading := callTok.Leading
	head, err := ex.ExpandRecursive(saddr, callTok)
	if err != nil {
		return nil, err
	}
	head.Leading = leading
	return head, nil
}

// consumeFuncArgs reads a function-like macro's call arguments directly off
// env, starting at the '(' token already sitting in env.Cur. It returns the
// normalized chain starting at that '(' and ending at the matching ')'.
func consumeFuncArgs(env *Environment) (*Token, error) {
	head, err := env.advance()
	if err != nil {
		return nil, err
	}
	depth := 0
	if head.is("(") {
		depth++
	}
	tail := head
	for env.Cur != nil && env.Cur.Kind != End {
		tok, err := env.advance()
		if err != nil {
			return nil, err
		}
		tail.Next = tok
		tail = tok
		if tok.is("(") {
			depth++
		} else if tok.is(")") {
			depth--
		}
		if depth == 0 && tok.is(")") {
			break
		}
	}
	return normalizeArgs(head), nil
}

// ExpandRecursive expands *saddr in place if it names a macro eligible for
// expansion (not already in its own used-set, and — for function-like
// macros — followed by '('). It returns the head of the expansion; *saddr
// is left pointing at the expansion's tail, so a caller walking a token
// chain with "t = t.Next" picks up immediately after it.
func (ex *Expander) ExpandRecursive(saddr **Token, origin *Token) (*Token, error) {
	t := *saddr
	if t.is("__LINE__") || t.is("__FILE__") {
		t.MacroOrigin = origin
		return t, nil
	}

	m := ex.Macros.Lookup(t, t.Next)
	if m == nil {
		return t, nil
	}
	if contains(t.Used, m) {
		return t, nil
	}

	if m.funcLike() && t.Next != nil && t.Next.is("(") {
		return ex.expandFunc(saddr, m, origin)
	}
	return ex.expandObj(saddr, m, origin)
}

// ExpandRecursiveList rescans an entire chain in place, splicing each
// node's expansion into a freshly built result list. *taddr is left at the
// tail of the last node processed, per ExpandRecursive's contract.
func (ex *Expander) ExpandRecursiveList(taddr **Token, origin *Token) (*Token, error) {
	head := &Token{}
	prev := head
	for *taddr != nil {
		expanded, err := ex.ExpandRecursive(taddr, origin)
		if err != nil {
			return nil, err
		}
		prev.Next = expanded
		prev = *taddr
		if (*taddr).Next == nil {
			break
		}
		*taddr = (*taddr).Next
	}
	return head.Next, nil
}

// expandDef duplicates a macro's replacement chain, seeding every copy's
// used-set with {m} ∪ used — the set the invocation itself already carried.
func expandDef(m *Macro, used *usedMacro) *Token {
	var head, tail *Token
	for t := m.Replacement; t != nil; t = t.Next {
		cp := t.dup()
		cp.Used = &usedMacro{macro: m, next: used}
		if head == nil {
			head = cp
		} else {
			tail.Next = cp
		}
		tail = cp
	}
	return head
}

func (ex *Expander) expandObj(saddr **Token, m *Macro, origin *Token) (*Token, error) {
	callTok := *saddr
	t := expandDef(m, callTok.Used)
	t.Leading = callTok.Leading
	head, err := ex.ExpandRecursiveList(&t, origin)
	if err != nil {
		return nil, err
	}
	t.Next = callTok.Next
	*saddr = t
	return head, nil
}

// expandArgsInPlace pre-expands each macro call's arguments before they are
// substituted into the replacement body, splicing expansions directly into
// the call's own token chain between callTok's '(' and te.
func (ex *Expander) expandArgsInPlace(callTok, te *Token, origin *Token) error {
	prev := callTok.Next // '('
	t := prev.Next
	for t != te {
		expanded, err := ex.ExpandRecursive(&t, origin)
		if err != nil {
			return err
		}
		prev.Next = expanded
		prev = t
		t = t.Next
	}
	return nil
}

// tokenSkipAfterFunc returns the token immediately after the ')' that
// closes the call starting at t (the macro name token).
func tokenSkipAfterFunc(t *Token) *Token {
	t = t.Next
	for !t.is(")") {
		t = nextArgDelim(t.Next)
	}
	return t.Next
}

// tokenMatchedArg reports whether ag names one of m's parameters. If so it
// walks callTok's captured argument list to the matching slot, returns its
// first token, and stores the delimiter that ends it in *delimOut.
func tokenMatchedArg(ag *Token, m *Macro, callTok *Token, delimOut **Token) *Token {
	if ag == nil {
		return nil
	}
	argsStart := callTok.Next.Next // skip macro name and '('
	for i, p := range m.Params {
		if ag.Text != p {
			continue
		}
		ts := argsStart
		var delim *Token
		for j := 0; j <= i; j++ {
			delim = nextArgDelim(ts)
			if j < i {
				ts = delim.Next
			}
		}
		*delimOut = delim
		return ts
	}
	return nil
}

// replaceArg splices a duplicate of start..delim in place of the node
// currently at *taddr, preserving that node's leading whitespace, carrying
// its used-set onto every duplicate, and reattaching *taddr's original
// successor at the end of the spliced-in chain. It returns the address of
// the slot holding the last token spliced in, so callers can keep rescanning
// from there (needed for chained '##').
func replaceArg(taddr **Token, start, delim *Token) **Token {
	next := (*taddr).Next
	used := (*taddr).Used
	leading := (*taddr).Leading

	first := true
	for t := start; t != delim; t = t.Next {
		cp := t.dup()
		mergeUsed(&cp.Used, used)
		if first {
			cp.Leading = leading
			*taddr = cp
			first = false
		} else {
			(*taddr).Next = cp
			taddr = &(*taddr).Next
		}
	}
	(*taddr).Next = next
	return taddr
}

// expandFunc substitutes a function-like macro's call: arguments are
// pre-expanded, the replacement body is duplicated, then each token of the
// duplicate is scanned once for '#', '##', __VA_ARGS__, or a bare parameter
// reference. The fully substituted body is rescanned for further macro
// expansion before being spliced back into the caller's stream.
func (ex *Expander) expandFunc(saddr **Token, m *Macro, origin *Token) (*Token, error) {
	callTok := *saddr
	te := tokenSkipAfterFunc(callTok)
	if err := ex.expandArgsInPlace(callTok, te, origin); err != nil {
		return nil, err
	}

	head := expandDef(m, callTok.Used)
	head.Leading = callTok.Leading
	taddr := &head

	for prev := (*Token)(nil); *taddr != nil; prev, taddr = *taddr, &(*taddr).Next {
		cur := *taddr
		tdelim := callTok
		var ts *Token

		switch {
		case cur.is("#"):
			if cur.Next == nil {
				return nil, &DiagError{Category: CatExpansion, Tok: cur, Message: "bad use of '#'"}
			}
			*taddr = cur.Next // remove '#'
			if ts = tokenMatchedArg(*taddr, m, callTok, &tdelim); ts != nil {
				rest := (*taddr).Next
				*taddr = stringifyChain(ts, tdelim, *taddr)
				(*taddr).Next = rest
			}
			if ts == nil {
				return nil, &DiagError{Category: CatExpansion, Tok: *taddr, Message: "no following parameter to '#'"}
			}

		case cur.is("##"):
			if prev == nil || cur.Next == nil {
				return nil, &DiagError{Category: CatExpansion, Tok: cur, Message: "bad use of '##'"}
			}
			prev.Next = cur.Next
			*taddr = cur.Next // remove '##'
			(*taddr).Leading = nil
			if ts = tokenMatchedArg(*taddr, m, callTok, &tdelim); ts != nil {
				taddr = replaceArg(taddr, ts, tdelim)
			}
			concatInto(prev, (*taddr).Next)
			taddr = &prev

		case cur.is("__VA_ARGS__"):
			if !m.Variadic {
				return nil, &DiagError{Category: CatExpansion, Tok: cur, Message: "no matched variadic parameter for __VA_ARGS__"}
			}
			tp := instantToken(Reserved, "...")
			ts = tokenMatchedArg(tp, m, callTok, &tdelim)
			if ts == nil {
				return nil, &DiagError{Category: CatExpansion, Tok: cur, Message: "no matched variadic parameter for __VA_ARGS__"}
			}
			for !tdelim.is(")") {
				tdelim = tdelim.Next
			}
			taddr = replaceArg(taddr, ts, tdelim)

		default:
			if ts = tokenMatchedArg(cur, m, callTok, &tdelim); ts != nil {
				taddr = replaceArg(taddr, ts, tdelim)
			}
		}
	}

	tt := head
	result, err := ex.ExpandRecursiveList(&tt, origin)
	if err != nil {
		return nil, err
	}
	tt.Next = tokenSkipAfterFunc(callTok)
	*saddr = tt
	return result, nil
}
