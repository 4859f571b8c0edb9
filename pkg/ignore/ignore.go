// Package ignore provides gitignore-style deletion protection using go-git
package ignore

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the per-content-root protection file
const FileName = ".srcpruneignore"

// Matcher reports which content files must never be deleted. Matching
// ignores case, as the engine does.
type Matcher struct {
	matcher  gitignore.Matcher
	patterns int
}

// UserIgnoreFile returns the user-level protection file under the XDG
// config home.
func UserIgnoreFile() string {
	return filepath.Join(xdg.ConfigHome, "srcprune", "ignore")
}

// NewMatcher creates a matcher with layered protection files:
// 1. .srcpruneignore at the content root
// 2. each extra file, in order (typically UserIgnoreFile)
//
// Missing files are skipped. Later layers can re-include with "!".
func NewMatcher(contentRoot string, extra ...string) (*Matcher, error) {
	var all []gitignore.Pattern

	root, err := readIgnoreFile(osfs.New(contentRoot), FileName)
	if err != nil {
		return nil, err
	}
	all = append(all, root...)

	for _, path := range extra {
		if path == "" {
			continue
		}
		patterns, err := readIgnoreFile(osfs.New(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return nil, err
		}
		all = append(all, patterns...)
	}

	return &Matcher{matcher: gitignore.NewMatcher(all), patterns: len(all)}, nil
}

// FromPatterns builds a matcher from literal pattern lines
func FromPatterns(lines ...string) *Matcher {
	var all []gitignore.Pattern
	for _, line := range lines {
		if p, ok := parseLine(line); ok {
			all = append(all, p)
		}
	}
	return &Matcher{matcher: gitignore.NewMatcher(all), patterns: len(all)}
}

// readIgnoreFile reads patterns from name in fs; a missing file yields none
func readIgnoreFile(fs billy.Filesystem, name string) ([]gitignore.Pattern, error) {
	f, err := fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p, ok := parseLine(scanner.Text()); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns, scanner.Err()
}

func parseLine(line string) (gitignore.Pattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	return gitignore.ParsePattern(strings.ToLower(line), nil), true
}

// Len returns the number of loaded patterns
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return m.patterns
}

// IsProtected reports whether the content-relative path rel matches a
// protection pattern. A nil matcher protects nothing.
func (m *Matcher) IsProtected(rel string) bool {
	if m == nil || m.patterns == 0 {
		return false
	}
	parts := splitPath(strings.ToLower(filepath.ToSlash(rel)))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, false)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}

	// Remove leading slash if present
	path = strings.TrimPrefix(path, "/")

	// Split on forward slashes
	parts := strings.Split(path, "/")

	// Remove empty components
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}

	return result
}
