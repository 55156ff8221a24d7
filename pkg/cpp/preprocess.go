package cpp

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// PreprocessorOptions configures a Preprocessor: -I search directories,
// -D command-line macro definitions (value is the literal replacement
// text, lexed the same as a #define body), and -U command-line removals,
// applied in that order against the predefined macro table.
type PreprocessorOptions struct {
	IncludeDirs []string
	Defines     map[string]string
	Undefines   []string
	ErrOut      io.Writer
}

// Preprocessor ties the macro table, expansion engine, environment
// stack, and include resolver together into the single entry point a
// caller drives one translation unit through.
type Preprocessor struct {
	Macros   *MacroTable
	Expander *Expander
	Envs     *EnvStack
	Includes *IncludeResolver
	ErrOut   io.Writer
}

// NewPreprocessor builds a Preprocessor with the fixed predefined macros,
// plus whatever -D/-U options the caller supplies layered on top.
func NewPreprocessor(opts PreprocessorOptions) *Preprocessor {
	mt := NewMacroTable()
	for name, value := range opts.Defines {
		mt.Define(name, nil, false, lexReplacementBody(value))
	}
	for _, name := range opts.Undefines {
		mt.Undefine(name)
	}
	errOut := opts.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Preprocessor{
		Macros:   mt,
		Expander: NewExpander(mt),
		Envs:     newEnvStack(),
		Includes: NewIncludeResolver(opts.IncludeDirs),
		ErrOut:   errOut,
	}
}

// lexReplacementBody lexes a -D value (or an empty string, for bare -DNAME)
// into a token chain suitable as a macro's replacement body.
func lexReplacementBody(text string) *Token {
	env := &Environment{Path: "<command-line>", Input: text, atBOL: false}
	var head, tail *Token
	for {
		tok, err := env.NextToken()
		if err != nil || tok.Kind == End {
			break
		}
		if head == nil {
			head = tok
		} else {
			tail.Next = tok
		}
		tail = tok
	}
	return head
}

// PreprocessFile reads path and preprocesses it to a single expanded
// token chain.
func (p *Preprocessor) PreprocessFile(path string) (*Token, error) {
	src, err := p.readFile(path)
	if err != nil {
		return nil, &DiagError{Category: CatIO, Message: err.Error()}
	}
	return p.PreprocessString(path, src)
}

// PreprocessString preprocesses src as if it were read from path (used
// for __FILE__ and relative #include resolution).
func (p *Preprocessor) PreprocessString(path, src string) (*Token, error) {
	if _, err := p.Envs.push(path, src, 0); err != nil {
		return nil, err
	}
	head := &Token{}
	tail := head
	if err := p.process(&tail, true); err != nil {
		return nil, err
	}
	p.Envs.pop()
	return head.Next, nil
}

// process is the top-level driver loop: it consumes tokens from the
// current environment, expanding identifiers and dispatching directives,
// splicing the result onto *tail as it goes. isTop controls whether an
// unmatched #endif/#elif/#else is an error (at the outermost level) or a
// signal to return control to an enclosing conditional.
func (p *Preprocessor) process(tail **Token, isTop bool) error {
	env := p.Envs.current()
	for env.Cur != nil && env.Cur.Kind != End {
		switch env.Cur.Kind {
		case DirectiveIntro:
			if _, err := env.advance(); err != nil {
				return err
			}
			stop, err := p.directive(env, tail, isTop)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}

		case Ident:
			idTok, err := env.advance()
			if err != nil {
				return err
			}
			head, err := p.Expander.ExpandAtCursor(&idTok, env)
			if err != nil {
				return err
			}
			(*tail).Next = head
			*tail = idTok

		default:
			tok, err := env.advance()
			if err != nil {
				return err
			}
			(*tail).Next = tok
			*tail = tok
		}
	}
	return nil
}

// warn prints a non-fatal #warning diagnostic and continues.
func (p *Preprocessor) warn(e *DiagError) {
	fmt.Fprintln(p.ErrOut, e.Diagnostic())
}

// Print renders an expanded token chain back to source text: each
// token's leading whitespace first, then the token itself, substituting
// __LINE__ with its call site's line number and __FILE__ with its call
// site's quoted path, and re-adding quotes around string/char literal
// content (stripped at lex time).
func Print(w io.Writer, t *Token) error {
	for ; t != nil; t = t.Next {
		if err := printLeading(w, t.Leading); err != nil {
			return err
		}
		switch {
		case t.is("__LINE__") && t.MacroOrigin != nil:
			line, _ := t.MacroOrigin.Env.lineCol(t.MacroOrigin.Offset)
			if _, err := fmt.Fprintf(w, "%d", line); err != nil {
				return err
			}
		case t.is("__FILE__") && t.MacroOrigin != nil:
			if _, err := fmt.Fprintf(w, "%q", t.MacroOrigin.Env.Path); err != nil {
				return err
			}
		case t.Kind == StringLiteral:
			if _, err := fmt.Fprintf(w, "\"%s\"", t.Text); err != nil {
				return err
			}
		case t.Kind == CharLiteral:
			if _, err := fmt.Fprintf(w, "'%s'", t.Text); err != nil {
				return err
			}
		default:
			if _, err := io.WriteString(w, t.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

func printLeading(w io.Writer, t *Token) error {
	for ; t != nil; t = t.Next {
		if err := printLeading(w, t.Leading); err != nil {
			return err
		}
		if _, err := io.WriteString(w, t.Text); err != nil {
			return err
		}
	}
	return nil
}

// PrintString is a convenience wrapper around Print for callers (and
// tests) that want the expanded output as a single string.
func PrintString(t *Token) string {
	var sb strings.Builder
	_ = Print(&sb, t)
	return sb.String()
}
