package cpp

import "strings"

// normalizeArgs walks a token chain starting at a '(' and inserts a
// zero-length synthetic IDENT token at every empty argument slot — between
// '(' and ',', between ',' and ',', and between ',' and ')' — so every
// parameter position has exactly one token boundary to scan. f(,,) ends up
// with three distinct (empty) arguments instead of being mistaken for one.
func normalizeArgs(ts *Token) *Token {
	depth := 0
	for t := ts; t != nil; t = t.Next {
		if t.is("(") {
			depth++
		} else if t.is(")") {
			depth--
		}
		if depth != 1 || t.Next == nil {
			continue
		}
		if (t.is("(") && t.Next.is(",")) ||
			(t.is(",") && t.Next.is(",")) ||
			(t.is(",") && t.Next.is(")")) {
			empty := &Token{Kind: Ident, Text: "", Offset: t.Next.Offset, Env: t.Next.Env, Next: t.Next}
			t.Next = empty
		}
	}
	return ts
}

// nextArgDelim finds the token that ends the argument starting at t: the
// next top-level comma, or the ')' that closes the enclosing parenthesis
// one level up. Used while matching a parameter name against a captured
// call's argument list.
func nextArgDelim(t *Token) *Token {
	depth := 0
	for ; t != nil; t = t.Next {
		if t.is("(") {
			depth++
		} else if t.is(")") {
			depth--
		}
		if (depth == 0 && t.is(",")) || (depth < 0 && t.is(")")) {
			return t
		}
	}
	return t
}

// concatText joins the raw text of every token from start up to (but not
// including) delim, with no separator — the primitive behind
// token-pasting, which inserts no whitespace between its operands.
func concatText(start, delim *Token) string {
	var sb strings.Builder
	for t := start; t != nil && t != delim; t = t.Next {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// stringifyChain builds the STRING_LITERAL token that '#' produces: the
// text of start..delim as written, keeping the whitespace between argument
// tokens (but not before the first one) and adding none of its own, with a
// single leading space on the result. Text holds the unquoted content,
// the same contract every lexer-produced STRING_LITERAL token follows;
// Print adds the surrounding quotes at output time.
func stringifyChain(start, delim *Token, loc *Token) *Token {
	var sb strings.Builder
	for tok := start; tok != nil && tok != delim; tok = tok.Next {
		if tok != start {
			writeLeading(&sb, tok.Leading)
		}
		sb.WriteString(tok.Text)
	}
	text := sb.String()
	t := &Token{
		Kind:    StringLiteral,
		Text:    text,
		Offset:  -1,
		Env:     loc.Env,
		Leading: instantToken(Whitespace, " "),
	}
	return t
}

// concatInto implements '##': dest absorbs the text of every token between
// it and delim (exclusive), becoming one token that owns its text and
// splices directly to delim. dest's Kind is left untouched, so the result
// inherits the left operand's kind rather than being re-lexed.
func concatInto(dest *Token, delim *Token) {
	dest.Text = concatText(dest, delim)
	dest.Next = delim
}

// TokensToString reprints a token chain as source text: each token's
// leading whitespace chain first, then its own text (quoted for string and
// char literals, matching Print's rendering).
func TokensToString(t *Token) string {
	var sb strings.Builder
	for ; t != nil; t = t.Next {
		writeLeading(&sb, t.Leading)
		switch t.Kind {
		case StringLiteral:
			sb.WriteByte('"')
			sb.WriteString(t.Text)
			sb.WriteByte('"')
		case CharLiteral:
			sb.WriteByte('\'')
			sb.WriteString(t.Text)
			sb.WriteByte('\'')
		default:
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

func writeLeading(sb *strings.Builder, t *Token) {
	for ; t != nil; t = t.Next {
		writeLeading(sb, t.Leading)
		sb.WriteString(t.Text)
	}
}
