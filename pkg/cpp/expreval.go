package cpp

import "strconv"

// ExprEval evaluates #if/#elif constant expressions against a token
// stream pulled from a live Environment, expanding macros (other than the
// operand of `defined`) as it goes. The precedence levels follow the
// grammar's own naming: mul() binds additive operators (+ -) and plus()
// binds multiplicative operators (* /), a naming swap carried over
// verbatim from the reference implementation this evaluator is ported
// from — the resulting precedence is still the usual C one, only the
// function names are swapped.
type ExprEval struct {
	env *Environment
	ex  *Expander
}

func newExprEval(env *Environment, ex *Expander) *ExprEval {
	return &ExprEval{env: env, ex: ex}
}

func (e *ExprEval) consume(s string) (*Token, error) {
	if e.env.Cur != nil && e.env.Cur.is(s) {
		return e.env.advance()
	}
	return nil, nil
}

func (e *ExprEval) expect(s string) error {
	tok, err := e.consume(s)
	if err != nil {
		return err
	}
	if tok == nil {
		return &DiagError{Category: CatExpression, Tok: e.env.Cur, Message: "expected '" + s + "'"}
	}
	return nil
}

func (e *ExprEval) consumeKind(k TokenKind) (*Token, error) {
	if e.env.Cur != nil && e.env.Cur.Kind == k {
		return e.env.advance()
	}
	return nil, nil
}

// Eval parses and evaluates one #if/#elif condition, ending at the
// directive's terminating newline (which it consumes).
func (e *ExprEval) Eval() (int64, error) {
	v, err := e.expr()
	if err != nil {
		return 0, err
	}
	if e.env.Cur == nil || e.env.Cur.Kind != Newline {
		return 0, &DiagError{Category: CatExpression, Tok: e.env.Cur, Message: "unexpected token in #if condition"}
	}
	if _, err := e.env.advance(); err != nil {
		return 0, err
	}
	return v, nil
}

func (e *ExprEval) primary() (int64, error) {
	if tok, err := e.consume("("); err != nil {
		return 0, err
	} else if tok != nil {
		v, err := e.expr()
		if err != nil {
			return 0, err
		}
		if err := e.expect(")"); err != nil {
			return 0, err
		}
		return v, nil
	}

	if tok, err := e.consumeKind(Number); err != nil {
		return 0, err
	} else if tok != nil {
		return parseIntLiteral(tok.Text), nil
	}

	if tok, err := e.consumeKind(CharLiteral); err != nil {
		return 0, err
	} else if tok != nil {
		return int64(decodeCharLiteral(tok.Text)), nil
	}

	if tok, err := e.consume("defined"); err != nil {
		return 0, err
	} else if tok != nil {
		var name *Token
		if paren, err := e.consume("("); err != nil {
			return 0, err
		} else if paren != nil {
			name, err = e.consumeKind(Ident)
			if err != nil {
				return 0, err
			}
			if name == nil {
				return 0, &DiagError{Category: CatExpression, Tok: e.env.Cur, Message: "expected identifier after 'defined('"}
			}
			if err := e.expect(")"); err != nil {
				return 0, err
			}
		} else {
			name, err = e.consumeKind(Ident)
			if err != nil {
				return 0, err
			}
			if name == nil {
				return 0, &DiagError{Category: CatExpression, Tok: e.env.Cur, Message: "expected identifier after 'defined'"}
			}
		}
		if e.ex.Macros.IsDefined(name.Text) {
			return 1, nil
		}
		return 0, nil
	}

	if tok, err := e.consumeKind(Ident); err != nil {
		return 0, err
	} else if tok != nil {
		if e.ex.Macros.Lookup(tok, e.env.Cur) != nil {
			tail := tok
			head, err := e.ex.ExpandAtCursor(&tail, e.env)
			if err != nil {
				return 0, err
			}
			tail.Next = e.env.Cur // expansion's tail resumes into the live stream
			e.env.Cur = head
			return e.expr()
		}
		// an undefined identifier in a constant expression evaluates to 0.
		return 0, nil
	}

	return 0, &DiagError{Category: CatExpression, Tok: e.env.Cur, Message: "unexpected token in constant expression"}
}

func (e *ExprEval) unary() (int64, error) {
	if tok, err := e.consume("!"); err != nil {
		return 0, err
	} else if tok != nil {
		v, err := e.unary()
		if err != nil {
			return 0, err
		}
		return boolToInt(v == 0), nil
	}
	if tok, err := e.consume("-"); err != nil {
		return 0, err
	} else if tok != nil {
		v, err := e.unary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return e.primary()
}

// mul binds the additive operators, per the naming carried over from the
// original grammar.
func (e *ExprEval) mul() (int64, error) {
	ret, err := e.plus()
	if err != nil {
		return 0, err
	}
	for {
		if tok, err := e.consume("+"); err != nil {
			return 0, err
		} else if tok != nil {
			v, err := e.plus()
			if err != nil {
				return 0, err
			}
			ret += v
			continue
		}
		if tok, err := e.consume("-"); err != nil {
			return 0, err
		} else if tok != nil {
			v, err := e.plus()
			if err != nil {
				return 0, err
			}
			ret -= v
			continue
		}
		break
	}
	return ret, nil
}

// plus binds the multiplicative operators, per the naming carried over
// from the original grammar.
func (e *ExprEval) plus() (int64, error) {
	ret, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		if tok, err := e.consume("*"); err != nil {
			return 0, err
		} else if tok != nil {
			v, err := e.unary()
			if err != nil {
				return 0, err
			}
			ret *= v
			continue
		}
		if tok, err := e.consume("/"); err != nil {
			return 0, err
		} else if tok != nil {
			v, err := e.unary()
			if err != nil {
				return 0, err
			}
			if v == 0 {
				return 0, &DiagError{Category: CatExpression, Tok: e.env.Cur, Message: "division by zero"}
			}
			ret /= v
			continue
		}
		break
	}
	return ret, nil
}

func (e *ExprEval) shift() (int64, error) {
	ret, err := e.mul()
	if err != nil {
		return 0, err
	}
	for {
		if tok, err := e.consume(">>"); err != nil {
			return 0, err
		} else if tok != nil {
			v, err := e.mul()
			if err != nil {
				return 0, err
			}
			ret >>= uint(v)
			continue
		}
		if tok, err := e.consume("<<"); err != nil {
			return 0, err
		} else if tok != nil {
			v, err := e.mul()
			if err != nil {
				return 0, err
			}
			ret <<= uint(v)
			continue
		}
		break
	}
	return ret, nil
}

func (e *ExprEval) relational() (int64, error) {
	ret, err := e.shift()
	if err != nil {
		return 0, err
	}
	for {
		var op string
		for _, cand := range []string{">=", "<=", "==", "!=", ">", "<"} {
			if tok, err := e.consume(cand); err != nil {
				return 0, err
			} else if tok != nil {
				op = cand
				break
			}
		}
		if op == "" {
			break
		}
		v, err := e.shift()
		if err != nil {
			return 0, err
		}
		switch op {
		case ">":
			ret = boolToInt(ret > v)
		case ">=":
			ret = boolToInt(ret >= v)
		case "<":
			ret = boolToInt(ret < v)
		case "<=":
			ret = boolToInt(ret <= v)
		case "==":
			ret = boolToInt(ret == v)
		case "!=":
			ret = boolToInt(ret != v)
		}
	}
	return ret, nil
}

func (e *ExprEval) and() (int64, error) {
	ret, err := e.relational()
	if err != nil {
		return 0, err
	}
	for {
		tok, err := e.consume("&&")
		if err != nil {
			return 0, err
		}
		if tok == nil {
			break
		}
		v, err := e.relational()
		if err != nil {
			return 0, err
		}
		ret = boolToInt(v != 0 && ret != 0)
	}
	return ret, nil
}

func (e *ExprEval) or() (int64, error) {
	ret, err := e.and()
	if err != nil {
		return 0, err
	}
	for {
		tok, err := e.consume("||")
		if err != nil {
			return 0, err
		}
		if tok == nil {
			break
		}
		v, err := e.and()
		if err != nil {
			return 0, err
		}
		ret = boolToInt(v != 0 || ret != 0)
	}
	return ret, nil
}

func (e *ExprEval) expr() (int64, error) {
	ret, err := e.or()
	if err != nil {
		return 0, err
	}
	if tok, err := e.consume("?"); err != nil {
		return 0, err
	} else if tok != nil {
		ret1, err := e.expr()
		if err != nil {
			return 0, err
		}
		if err := e.expect(":"); err != nil {
			return 0, err
		}
		ret2, err := e.expr()
		if err != nil {
			return 0, err
		}
		if ret != 0 {
			return ret1, nil
		}
		return ret2, nil
	}
	return ret, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// parseIntLiteral parses a NUMBER token's decimal digits, ignoring a
// trailing L/F suffix (absorbed by the lexer but not meaningful here).
func parseIntLiteral(text string) int64 {
	end := len(text)
	for end > 0 && (text[end-1] == 'L' || text[end-1] == 'F') {
		end--
	}
	v, _ := strconv.ParseInt(text[:end], 10, 64)
	return v
}

// decodeCharLiteral decodes a CHAR_LITERAL token's text (the bare content
// between the quotes, which the lexer already stripped) into its byte
// value. A leading backslash selects the next byte literally; there is no
// translation of \n, \t, \0, etc. at this layer.
func decodeCharLiteral(text string) byte {
	body := text
	if len(body) == 0 {
		return 0
	}
	if body[0] != '\\' {
		return body[0]
	}
	if len(body) < 2 {
		return '\\'
	}
	return body[1]
}
