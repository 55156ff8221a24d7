package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tinycpp/tinycpp/pkg/cpp"
	"github.com/tinycpp/tinycpp/pkg/preproc"
)

var version = "0.1.0"

// Preprocessor options
var (
	includePaths  []string
	defineFlags   []string
	undefineFlags []string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tinycpp [file]",
		Short: "tinycpp is a standalone C preprocessor",
		Long: `tinycpp expands a C source file: macro substitution, conditional
compilation, and #include resolution, writing the expanded translation
unit to stdout.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintf(errOut, "tinycpp: missing input file\n\n%s", cmd.UsageString())
				return fmt.Errorf("missing input file")
			}
			filename := args[0]
			opts := buildPreprocessorOptions(errOut)
			content, err := preproc.Preprocess(filename, opts)
			if err != nil {
				var de *cpp.DiagError
				if errors.As(err, &de) {
					fmt.Fprintln(errOut, de.Diagnostic())
				} else {
					fmt.Fprintf(errOut, "tinycpp: %v\n", err)
				}
				return err
			}
			fmt.Fprint(out, content)
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "Add directory to include search path")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "Undefine macro")
	rootCmd.Flags().BoolP("preprocess", "E", true, "Preprocess only, output to stdout (the only supported mode)")

	return rootCmd
}

// buildPreprocessorOptions creates preproc.Options from CLI flags.
func buildPreprocessorOptions(errOut io.Writer) *preproc.Options {
	opts := &preproc.Options{
		IncludePaths: includePaths,
		Defines:      make(map[string]string),
		Undefines:    undefineFlags,
		ErrOut:       errOut,
	}

	for _, d := range defineFlags {
		if idx := strings.Index(d, "="); idx >= 0 {
			opts.Defines[d[:idx]] = d[idx+1:]
		} else {
			opts.Defines[d] = ""
		}
	}

	return opts
}
