package cpp

import "strings"

// consumeToLineEnd gathers every token up to (and consuming) the
// terminating NEWLINE, returning the chain without the newline itself.
// Used for #define bodies, #warning/#error messages, and to discard the
// rest of the line after the operand of #undef/#ifdef/#ifndef/#include.
func consumeToLineEnd(env *Environment) (*Token, error) {
	var head, tail *Token
	for env.Cur != nil && env.Cur.Kind != Newline && env.Cur.Kind != End {
		tok, err := env.advance()
		if err != nil {
			return nil, err
		}
		if head == nil {
			head = tok
		} else {
			tail.Next = tok
		}
		tail = tok
	}
	if env.Cur != nil && env.Cur.Kind == Newline {
		if _, err := env.advance(); err != nil {
			return nil, err
		}
	}
	return head, nil
}

// parseParamNames extracts parameter names from a captured '('...')'
// chain (already argument-normalized), reporting the trailing "..." as
// the variadic marker.
func parseParamNames(paramsChain *Token) ([]string, bool, error) {
	names := make([]string, 0)
	variadic := false
	t := paramsChain.Next
	for t != nil && !t.is(")") {
		if t.is(",") {
			t = t.Next
		}
		if t == nil || t.Text == "" {
			return nil, false, &DiagError{Category: CatDirective, Tok: t, Message: "expected parameter name"}
		}
		if t.Text == "..." {
			variadic = true
		}
		names = append(names, t.Text)
		t = t.Next
	}
	return names, variadic, nil
}

// drcDefine parses a #define directive: a macro name, an optional
// parameter list (function-like only when '(' follows the name with no
// intervening whitespace), and the replacement body to end of line.
func (p *Preprocessor) drcDefine(env *Environment) error {
	nameTok, err := env.advance()
	if err != nil {
		return err
	}
	if nameTok.Kind != Ident {
		return &DiagError{Category: CatDirective, Tok: nameTok, Message: "expected macro name after #define"}
	}

	var params []string
	variadic := false
	if env.Cur != nil && env.Cur.is("(") && env.Cur.Leading == nil {
		paramsChain, err := consumeFuncArgs(env)
		if err != nil {
			return err
		}
		params, variadic, err = parseParamNames(paramsChain)
		if err != nil {
			return err
		}
	}

	body, err := consumeToLineEnd(env)
	if err != nil {
		return err
	}
	if params != nil && body != nil {
		body = normalizeArgs(body)
	}
	p.Macros.Define(nameTok.Text, params, variadic, body)
	return nil
}

// drcInclude parses and executes a #include or #include_next directive:
// resolve the target path, push a new environment for it, run the driver
// recursively to completion, then pop back to the including file.
func (p *Preprocessor) drcInclude(env *Environment, tail **Token, skip int) error {
	var fname string
	var quoted bool
	var anchor *Token

	if env.Cur != nil && env.Cur.is("<") {
		openTok, err := env.advance()
		if err != nil {
			return err
		}
		anchor = openTok
		var sb strings.Builder
		for env.Cur != nil && !env.Cur.is(">") {
			tok, err := env.advance()
			if err != nil {
				return err
			}
			sb.WriteString(tok.Text)
		}
		if env.Cur == nil || !env.Cur.is(">") {
			return &DiagError{Category: CatDirective, Tok: anchor, Message: "missing closing '>' in #include"}
		}
		if _, err := env.advance(); err != nil {
			return err
		}
		fname = sb.String()
	} else {
		tok, err := env.advance()
		if err != nil {
			return err
		}
		if tok.Kind != StringLiteral {
			return &DiagError{Category: CatDirective, Tok: tok, Message: "expected \"file\" or <file> after #include"}
		}
		anchor = tok
		fname = tok.Text
		quoted = true
	}
	if _, err := consumeToLineEnd(env); err != nil {
		return err
	}

	path, foundSkip, err := p.Includes.Resolve(fname, quoted, env.Path, skip)
	if err != nil {
		if de, ok := err.(*DiagError); ok {
			de.Tok = anchor
		}
		return err
	}

	src, err := p.readFile(path)
	if err != nil {
		return &DiagError{Category: CatIO, Tok: anchor, Message: err.Error()}
	}

	if _, err := p.Envs.push(path, src, foundSkip); err != nil {
		return err
	}
	if err := p.process(tail, false); err != nil {
		return err
	}
	p.Envs.pop()
	return nil
}

// directive dispatches a single directive line; env.Cur holds the token
// right after the '#'. It reports stop=true when it reaches a
// #endif/#elif/#else that belongs to an enclosing conditional, handing
// control back to the caller without consuming that token.
func (p *Preprocessor) directive(env *Environment, tail **Token, isTop bool) (stop bool, err error) {
	switch {
	case env.Cur.is("define"):
		if _, err := env.advance(); err != nil {
			return false, err
		}
		return false, p.drcDefine(env)

	case env.Cur.is("undef"):
		if _, err := env.advance(); err != nil {
			return false, err
		}
		nameTok, err := env.advance()
		if err != nil {
			return false, err
		}
		if nameTok.Kind != Ident {
			return false, &DiagError{Category: CatDirective, Tok: nameTok, Message: "expected macro name after #undef"}
		}
		if _, err := consumeToLineEnd(env); err != nil {
			return false, err
		}
		p.Macros.Undefine(nameTok.Text)
		return false, nil

	case env.Cur.is("warning"):
		warnTok := env.Cur
		if _, err := env.advance(); err != nil {
			return false, err
		}
		msg, err := consumeToLineEnd(env)
		if err != nil {
			return false, err
		}
		p.warn(&DiagError{Category: CatUser, Tok: warnTok, Message: TokensToString(msg)})
		return false, nil

	case env.Cur.is("error"):
		errTok := env.Cur
		if _, err := env.advance(); err != nil {
			return false, err
		}
		msg, err := consumeToLineEnd(env)
		if err != nil {
			return false, err
		}
		return false, &DiagError{Category: CatUser, Tok: errTok, Message: TokensToString(msg)}

	case env.Cur.is("include_next"):
		if _, err := env.advance(); err != nil {
			return false, err
		}
		return false, p.drcInclude(env, tail, env.SkipIndex+1)

	case env.Cur.is("include"):
		if _, err := env.advance(); err != nil {
			return false, err
		}
		return false, p.drcInclude(env, tail, 0)

	case env.Cur.is("if"):
		if _, err := env.advance(); err != nil {
			return false, err
		}
		cond, err := newExprEval(env, p.Expander).Eval()
		if err != nil {
			return false, err
		}
		return false, p.condFlow(env, tail, cond != 0)

	case env.Cur.is("ifdef"):
		if _, err := env.advance(); err != nil {
			return false, err
		}
		nameTok, err := env.advance()
		if err != nil {
			return false, err
		}
		if _, err := consumeToLineEnd(env); err != nil {
			return false, err
		}
		return false, p.condFlow(env, tail, p.Macros.IsDefined(nameTok.Text))

	case env.Cur.is("ifndef"):
		if _, err := env.advance(); err != nil {
			return false, err
		}
		nameTok, err := env.advance()
		if err != nil {
			return false, err
		}
		if _, err := consumeToLineEnd(env); err != nil {
			return false, err
		}
		return false, p.condFlow(env, tail, !p.Macros.IsDefined(nameTok.Text))

	case env.Cur.is("endif") || env.Cur.is("elif") || env.Cur.is("else"):
		if isTop {
			return false, &DiagError{Category: CatDirective, Tok: env.Cur, Message: "unmatched " + env.Cur.Text}
		}
		return true, nil

	default:
		return false, &DiagError{Category: CatDirective, Tok: env.Cur, Message: "invalid preprocessing directive"}
	}
}

// condFlow runs the body belonging to whichever branch of an #if/#ifdef/
// #ifndef chain is active, mirroring elif/else the same way, then
// requires the chain to end in #endif.
func (p *Preprocessor) condFlow(env *Environment, tail **Token, on bool) error {
	taken := on
	if err := p.runBranch(tail, taken); err != nil {
		return err
	}
	for env.Cur != nil && env.Cur.is("elif") {
		if _, err := env.advance(); err != nil {
			return err
		}
		active := false
		if !taken {
			cond, err := newExprEval(env, p.Expander).Eval()
			if err != nil {
				return err
			}
			active = cond != 0
		} else if _, err := skipToLineEnd(env); err != nil {
			return err
		}
		if err := p.runBranch(tail, active); err != nil {
			return err
		}
		taken = taken || active
	}
	if env.Cur != nil && env.Cur.is("else") {
		if _, err := env.advance(); err != nil {
			return err
		}
		if _, err := consumeToLineEnd(env); err != nil {
			return err
		}
		if err := p.runBranch(tail, !taken); err != nil {
			return err
		}
		taken = true
	}
	if env.Cur == nil || !env.Cur.is("endif") {
		return &DiagError{Category: CatDirective, Tok: env.Cur, Message: "expected #endif"}
	}
	if _, err := env.advance(); err != nil {
		return err
	}
	if _, err := consumeToLineEnd(env); err != nil {
		return err
	}
	return nil
}

// runBranch executes (active) or skips (inactive) one conditional branch.
func (p *Preprocessor) runBranch(tail **Token, active bool) error {
	if active {
		return p.process(tail, false)
	}
	return p.skipBranch()
}

// skipBranch discards tokens in an inactive branch, tracking nested
// conditionals so an inner #endif doesn't terminate the outer one early.
func (p *Preprocessor) skipBranch() error {
	env := p.Envs.current()
	for env.Cur != nil && env.Cur.Kind != End {
		if env.Cur.Kind != DirectiveIntro {
			if _, err := env.advance(); err != nil {
				return err
			}
			continue
		}
		if _, err := env.advance(); err != nil {
			return err
		}
		switch {
		case env.Cur.is("if") || env.Cur.is("ifdef") || env.Cur.is("ifndef"):
			if _, err := env.advance(); err != nil {
				return err
			}
			if _, err := skipToLineEnd(env); err != nil {
				return err
			}
			if err := p.skipBranch(); err != nil {
				return err
			}
			for env.Cur != nil && env.Cur.is("elif") {
				if _, err := env.advance(); err != nil {
					return err
				}
				if _, err := skipToLineEnd(env); err != nil {
					return err
				}
				if err := p.skipBranch(); err != nil {
					return err
				}
			}
			if env.Cur != nil && env.Cur.is("else") {
				if _, err := env.advance(); err != nil {
					return err
				}
				if _, err := skipToLineEnd(env); err != nil {
					return err
				}
				if err := p.skipBranch(); err != nil {
					return err
				}
			}
			if env.Cur == nil || !env.Cur.is("endif") {
				return &DiagError{Category: CatDirective, Tok: env.Cur, Message: "expected #endif"}
			}
			if _, err := env.advance(); err != nil {
				return err
			}
			if _, err := skipToLineEnd(env); err != nil {
				return err
			}
		case env.Cur.is("elif") || env.Cur.is("else") || env.Cur.is("endif"):
			return nil
		default:
			continue
		}
	}
	return nil
}

// skipToLineEnd discards tokens to end of line without retaining them.
func skipToLineEnd(env *Environment) (*Token, error) {
	return consumeToLineEnd(env)
}
