package cpp

import (
	"os"
	"path/filepath"
)

// defaultSystemPaths is the fixed list of system include directories a
// hosted toolchain on this platform is expected to expose. There is no
// runtime probing of an external compiler for this list; it is seeded
// once and searched last, after every -I directory.
var defaultSystemPaths = []string{
	"/usr/include/",
	"/usr/include/x86_64-linux-gnu/",
	"/usr/local/include/",
	"/usr/lib/gcc/x86_64-linux-gnu/13/include/",
}

// IncludeResolver locates the file named by an #include/#include_next
// directive. Search order for a quoted include with skip == 0 is: the
// directory of the including file, then UserPaths, then SystemPaths, in
// that fixed order, consulted as one flat list for skip-index purposes.
type IncludeResolver struct {
	UserPaths   []string
	SystemPaths []string
}

func NewIncludeResolver(userPaths []string) *IncludeResolver {
	return &IncludeResolver{UserPaths: append([]string{}, userPaths...), SystemPaths: defaultSystemPaths}
}

func (r *IncludeResolver) dirs() []string {
	all := make([]string, 0, len(r.UserPaths)+len(r.SystemPaths))
	all = append(all, r.UserPaths...)
	all = append(all, r.SystemPaths...)
	return all
}

// Resolve finds fname, searching from index skip onward in the combined
// directory list (quoted includes with skip == 0 try the including
// file's directory first). It returns the resolved path and the index at
// which it was found, so a later #include_next can resume the search one
// past it.
func (r *IncludeResolver) Resolve(fname string, quoted bool, fromPath string, skip int) (string, int, error) {
	if filepath.IsAbs(fname) {
		if _, err := os.Stat(fname); err == nil {
			return fname, skip, nil
		}
		return "", skip, &DiagError{Message: "cannot find include file: " + fname}
	}

	if quoted && skip == 0 {
		candidate := filepath.Join(filepath.Dir(fromPath), fname)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, skip, nil
		}
	}

	dirs := r.dirs()
	for i, dir := range dirs {
		if i < skip {
			continue
		}
		candidate := filepath.Join(dir, fname)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, i, nil
		}
	}
	return "", skip, &DiagError{Message: "cannot find include file: " + fname}
}

// readFile reads an include target's contents; kept as a Preprocessor
// method so tests can substitute an in-memory filesystem by embedding a
// Preprocessor with a different readFile closure in the future.
func (p *Preprocessor) readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
