// Package archiveindex builds the set of content paths a game installation
// already ships inside its pack archives.
package archiveindex

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/formats/vpk"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/pathfinder"
)

// DefaultPatterns locates directory archives under a game root
var DefaultPatterns = []string{"**/*.vpk"}

// Options configures Build
type Options struct {
	// Patterns are doublestar globs relative to the game root
	Patterns []string
	// SkipDirs are directory names never descended into
	SkipDirs []string
	// Progress is called after each archive with (completed, total)
	Progress func(completed, total int)
}

// ArchiveStat describes one archive that contributed to the index
type ArchiveStat struct {
	Path    string `json:"path" yaml:"path"`
	Version uint32 `json:"version" yaml:"version"`
	Entries int    `json:"entries" yaml:"entries"`
}

// Skipped records an archive left out of the index
type Skipped struct {
	Path string
	Err  error
}

// Index is the immutable set of paths provided by the game
type Index struct {
	Root     string
	paths    *assetpath.Set
	Archives []ArchiveStat
	Skipped  []Skipped
}

// MissingRootError is returned when the game root does not exist
type MissingRootError struct {
	Root string
	Err  error
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("game root %s: %v", e.Root, e.Err)
}

func (e *MissingRootError) Unwrap() error { return e.Err }

// Build globs the game root for directory archives and unions their entry
// paths. Corrupt archives are skipped whole and recorded in Skipped.
func Build(gameRoot string, opts Options) (*Index, error) {
	constraint, err := pathfinder.NewGameRootConstraint(gameRoot)
	if err != nil {
		return nil, &MissingRootError{Root: gameRoot, Err: err}
	}
	validator := pathfinder.NewSafetyValidator()
	validator.SetAllowSymlinks(true)
	validator.SetConstraint(constraint)

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	seen := make(map[string]bool)
	var archives []string
	for _, pattern := range patterns {
		matches, err := pathfinder.Glob(gameRoot, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m] || vpk.IsDataChunk(m) || inSkippedDir(gameRoot, m, opts.SkipDirs) {
				continue
			}
			if err := validator.ValidatePath(m); err != nil {
				logger.Warn("Skipping archive outside game root", logger.String("archive", m), logger.Err(err))
				continue
			}
			seen[m] = true
			archives = append(archives, m)
		}
	}

	idx := &Index{Root: gameRoot, paths: assetpath.NewSet()}
	for i, archive := range archives {
		idx.add(archive)
		if opts.Progress != nil {
			opts.Progress(i+1, len(archives))
		}
	}

	logger.Info("Archive index built",
		logger.Int("archives", len(idx.Archives)),
		logger.Int("skipped", len(idx.Skipped)),
		logger.Int("entries", idx.Len()))
	return idx, nil
}

// add unions one archive. A tree that fails halfway contributes nothing.
func (x *Index) add(archive string) {
	a, err := vpk.Open(archive)
	if err != nil {
		msg := "Skipping unreadable archive"
		if vpk.IsCorrupt(err) {
			msg = "Skipping corrupt archive"
		}
		logger.Warn(msg, logger.String("archive", archive), logger.Err(err))
		x.Skipped = append(x.Skipped, Skipped{Path: archive, Err: err})
		return
	}
	for _, e := range a.Entries {
		x.paths.Add(assetpath.FromRel(e.Path))
	}
	x.Archives = append(x.Archives, ArchiveStat{Path: archive, Version: a.Header.Version, Entries: len(a.Entries)})
	logger.Debug("Indexed archive", logger.String("archive", archive), logger.Int("entries", len(a.Entries)))
}

// New creates an index from known paths, normalizing each
func New(paths ...string) *Index {
	idx := &Index{paths: assetpath.NewSet()}
	for _, p := range paths {
		idx.paths.Add(assetpath.FromRel(p))
	}
	return idx
}

// Contains reports whether the game ships p. A nil index contains nothing.
func (x *Index) Contains(p assetpath.Path) bool {
	if x == nil {
		return false
	}
	return x.paths.Contains(assetpath.FromRel(p.String()))
}

// Len returns the number of distinct paths
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.paths.Len()
}

// Paths returns every indexed path, sorted
func (x *Index) Paths() []assetpath.Path {
	if x == nil {
		return nil
	}
	return x.paths.Sorted()
}

func inSkippedDir(root, path string, skip []string) bool {
	if len(skip) == 0 {
		return false
	}
	rel, err := relSlash(root, path)
	if err != nil {
		return false
	}
	for _, dir := range skip {
		if pathfinder.MatchesAny(rel, []string{dir + "/**", "**/" + dir + "/**"}) {
			return true
		}
	}
	return false
}

func relSlash(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
