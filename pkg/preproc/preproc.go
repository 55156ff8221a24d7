// Package preproc is the thin adapter between a command-line driver and
// the pkg/cpp preprocessing engine: it turns an Options value into a
// cpp.PreprocessorOptions, runs a file through it, and renders the result
// back to source text.
package preproc

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/tinycpp/tinycpp/pkg/cpp"
)

// Options configures the preprocessing step.
type Options struct {
	IncludePaths []string          // -I directories
	Defines      map[string]string // -D macros (name -> value, empty string for simple define)
	Undefines    []string          // -U macros
	ErrOut       io.Writer         // where #warning diagnostics go; defaults to os.Stderr
}

func (o *Options) toCppOptions() cpp.PreprocessorOptions {
	ppOpts := cpp.PreprocessorOptions{}
	if o == nil {
		return ppOpts
	}
	ppOpts.IncludeDirs = o.IncludePaths
	ppOpts.Defines = o.Defines
	ppOpts.Undefines = o.Undefines
	ppOpts.ErrOut = o.ErrOut
	return ppOpts
}

// Preprocess runs the preprocessor on filename and returns the expanded
// source text.
func Preprocess(filename string, opts *Options) (string, error) {
	pp := cpp.NewPreprocessor(opts.toCppOptions())
	tokens, err := pp.PreprocessFile(filename)
	if err != nil {
		return "", err
	}
	return cpp.PrintString(tokens), nil
}

// PreprocessString preprocesses C source code provided as a string, as if
// it had been read from filename (so relative #include and __FILE__ still
// resolve against it).
func PreprocessString(source, filename string, opts *Options) (string, error) {
	pp := cpp.NewPreprocessor(opts.toCppOptions())
	tokens, err := pp.PreprocessString(filename, source)
	if err != nil {
		return "", err
	}
	return cpp.PrintString(tokens), nil
}

// NeedsPreprocessing returns true if the file might need preprocessing.
// Files ending in .i or .p are considered already preprocessed.
func NeedsPreprocessing(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext != ".i" && ext != ".p"
}
