package cpp

import "testing"

func lexAll(t *testing.T, src string) []*Token {
	t.Helper()
	env := &Environment{Path: "<test>", Input: src, atBOL: true}
	var toks []*Token
	for {
		tok, err := env.NextToken()
		if err != nil {
			t.Fatalf("NextToken error: %v", err)
		}
		if tok.Kind == End {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func TestLexIdentAndKeyword(t *testing.T) {
	toks := lexAll(t, "foo define bar")
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %v", len(toks), toks)
	}
	if toks[0].Kind != Ident || toks[0].Text != "foo" {
		t.Errorf("tok0 = %+v", toks[0])
	}
	if toks[1].Kind != Reserved || toks[1].Text != "define" {
		t.Errorf("tok1 = %+v", toks[1])
	}
}

func TestLexDirectiveIntroOnlyAtBOL(t *testing.T) {
	toks := lexAll(t, "#define X\na # b")
	if toks[0].Kind != DirectiveIntro {
		t.Fatalf("expected DirectiveIntro at BOL, got %v", toks[0].Kind)
	}
	// the '#' after 'a' is mid-line, so it lexes as a plain punctuator.
	found := false
	for _, tok := range toks {
		if tok.Text == "#" && tok.Kind == Reserved {
			found = true
		}
	}
	if !found {
		t.Errorf("expected mid-line '#' to lex as RESERVED, tokens: %v", toks)
	}
}

func TestLexStringLiteralStripsQuotes(t *testing.T) {
	toks := lexAll(t, `"hello\nworld"`)
	if len(toks) != 1 {
		t.Fatalf("got %d tokens, want 1", len(toks))
	}
	if toks[0].Kind != StringLiteral {
		t.Fatalf("expected STRING_LITERAL, got %v", toks[0].Kind)
	}
	if toks[0].Text != `hello\nworld` {
		t.Errorf("Text = %q, want %q (quotes stripped)", toks[0].Text, `hello\nworld`)
	}
}

func TestLexCharLiteralStripsQuotes(t *testing.T) {
	toks := lexAll(t, `'\n'`)
	if toks[0].Kind != CharLiteral {
		t.Fatalf("expected CHAR_LITERAL, got %v", toks[0].Kind)
	}
	if toks[0].Text != `\n` {
		t.Errorf("Text = %q, want %q", toks[0].Text, `\n`)
	}
}

func TestLexUnterminatedStringIsFatal(t *testing.T) {
	env := &Environment{Path: "<test>", Input: `"abc`, atBOL: true}
	_, err := env.NextToken()
	if err == nil {
		t.Fatal("expected an error for unterminated string literal")
	}
	de, ok := err.(*DiagError)
	if !ok {
		t.Fatalf("expected *DiagError, got %T", err)
	}
	if de.Category != CatLex {
		t.Errorf("Category = %v, want CatLex", de.Category)
	}
}

func TestLexNumberSuffixLAndF(t *testing.T) {
	for _, src := range []string{"123L", "45F", "7"} {
		toks := lexAll(t, src)
		if len(toks) != 1 || toks[0].Kind != Number || toks[0].Text != src {
			t.Errorf("lexing %q: got %v", src, toks)
		}
	}
}

func TestLexWhitespaceAttachedAsLeading(t *testing.T) {
	toks := lexAll(t, "  foo")
	if len(toks) != 1 {
		t.Fatalf("expected whitespace to attach, not become its own token; got %d tokens", len(toks))
	}
	if toks[0].Leading == nil || toks[0].Leading.Kind != Whitespace {
		t.Errorf("expected Leading to hold the whitespace run, got %+v", toks[0].Leading)
	}
}

func TestLexLineAndBlockComments(t *testing.T) {
	toks := lexAll(t, "a // comment\nb /* block\ncomment */ c")
	var texts []string
	for _, tok := range toks {
		if tok.Kind == Ident {
			texts = append(texts, tok.Text)
		}
	}
	want := []string{"a", "b", "c"}
	if len(texts) != len(want) {
		t.Fatalf("got %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("texts[%d] = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestLexMultiCharPunctuators(t *testing.T) {
	toks := lexAll(t, "a ## b")
	var pastes int
	for _, tok := range toks {
		if tok.Text == "##" {
			pastes++
		}
	}
	if pastes != 1 {
		t.Errorf("expected one '##' token, got %d among %v", pastes, toks)
	}
}

func TestLexBackslashNewlineContinuation(t *testing.T) {
	toks := lexAll(t, "foo \\\nbar")
	if len(toks) != 2 {
		t.Fatalf("expected line continuation to be swallowed as whitespace, got %d tokens: %v", len(toks), toks)
	}
}
