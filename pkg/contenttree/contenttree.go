// Package contenttree is a case-insensitive inventory of the files under a
// content root, keyed by canonical path.
package contenttree

import (
	"path/filepath"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/pathfinder"
)

// Entry is one file of the tree
type Entry struct {
	// Rel is the on-disk relative path with its original case
	Rel  string
	Path assetpath.Path
	Size int64
}

// Options configures Scan
type Options struct {
	SkipDirs []string
	Progress pathfinder.ProgressFunc
}

// Tree is the file inventory of one content root
type Tree struct {
	Root    string
	entries map[string]Entry
	order   []assetpath.Path
}

// Scan walks root. A missing root is a diag.MissingRoot error; unreadable
// subdirectories are skipped with a warning.
func Scan(root string, opts Options) (*Tree, error) {
	constraint, err := pathfinder.NewContentRootConstraint(root)
	if err != nil {
		return nil, diag.New(diag.MissingRoot, root, err)
	}

	validator := pathfinder.NewSafetyValidator()
	validator.SetAllowSymlinks(true)
	validator.SetConstraint(constraint)
	engine := pathfinder.NewDiscoveryEngine(validator)
	files, err := engine.DiscoverFiles(root, pathfinder.DiscoveryOptions{
		SkipDirs:         opts.SkipDirs,
		ProgressCallback: opts.Progress,
		ErrorHandler: func(path string, err error) error {
			if path == root {
				return err
			}
			logger.Warn("Skipping unreadable path", logger.String("path", path), logger.Err(err))
			return nil
		},
	})
	if err != nil {
		return nil, diag.New(diag.MissingRoot, root, err)
	}

	t := &Tree{Root: root, entries: make(map[string]Entry, len(files))}
	for _, f := range files {
		t.add(Entry{Rel: f.Rel, Path: assetpath.FromRel(f.Rel), Size: f.Size})
	}
	logger.Debug("Scanned content tree", logger.String("root", root), logger.Int("files", len(t.order)))
	return t, nil
}

// New creates a tree from entries, for callers that already know the files
func New(root string, entries ...Entry) *Tree {
	t := &Tree{Root: root, entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.Path == "" {
			e.Path = assetpath.FromRel(e.Rel)
		}
		t.add(e)
	}
	return t
}

func (t *Tree) add(e Entry) {
	k := e.Path.Key()
	if _, ok := t.entries[k]; ok {
		return
	}
	t.entries[k] = e
	t.order = append(t.order, e.Path)
}

// Lookup finds the file for p, ignoring case
func (t *Tree) Lookup(p assetpath.Path) (Entry, bool) {
	e, ok := t.entries[p.Key()]
	return e, ok
}

// Has reports whether p exists in the tree
func (t *Tree) Has(p assetpath.Path) bool {
	_, ok := t.Lookup(p)
	return ok
}

// Abs returns the absolute on-disk path of e
func (t *Tree) Abs(e Entry) string {
	return filepath.Join(t.Root, filepath.FromSlash(e.Rel))
}

// Len returns the number of files
func (t *Tree) Len() int {
	return len(t.entries)
}

// Entries returns every file in walk order
func (t *Tree) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, p := range t.order {
		if e, ok := t.entries[p.Key()]; ok {
			out = append(out, e)
		}
	}
	return out
}

// WithSuffix returns the files whose canonical path ends in suffix
func (t *Tree) WithSuffix(suffix string) []Entry {
	suffix = strings.ToLower(suffix)
	var out []Entry
	for _, e := range t.Entries() {
		if strings.HasSuffix(e.Path.String(), suffix) {
			out = append(out, e)
		}
	}
	return out
}

// Match returns the files matching any doublestar pattern
func (t *Tree) Match(patterns []string) []Entry {
	var out []Entry
	for _, e := range t.Entries() {
		if pathfinder.MatchesAny(e.Rel, patterns) {
			out = append(out, e)
		}
	}
	return out
}

// Forget drops p from the inventory after it was deleted
func (t *Tree) Forget(p assetpath.Path) {
	delete(t.entries, p.Key())
}
