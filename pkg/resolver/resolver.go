// Package resolver runs the content operations against one content root:
// unused-content removal, map-content export, game-file removal and legacy
// model format cleanup.
//
// A Resolver is single-threaded and not re-entrant. Every operation reports
// progress through Options.Progress and returns a Summary. Dry-run is the
// default; nothing on disk changes unless Options.Commit is set. Work done
// before an error or an abandoned call is not rolled back.
package resolver

import (
	"errors"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fulmenhq/srcprune/pkg/archiveindex"
	"github.com/fulmenhq/srcprune/pkg/contenttree"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/formats/mdl"
	"github.com/fulmenhq/srcprune/pkg/ignore"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/mapcontent"
)

// Aliases so callers handle failures without importing diag
type (
	Code     = diag.Code
	Warning  = diag.Warning
	Warnings = diag.Warnings
	Error    = diag.Error
)

// ProgressFunc receives (completed, total) after each unit of work.
// completed never decreases within one operation; total may grow as later
// phases learn their size.
type ProgressFunc func(completed, total int)

// Options configures a Resolver. Zero values select the defaults of each
// underlying package.
type Options struct {
	Commit   bool
	Progress ProgressFunc

	ScriptPatterns  []string
	CompanionExts   []string
	LegacyVTXExts   []string
	ArchivePatterns []string
	// ContentSkipDirs are directory names the content root walk skips;
	// ArchiveSkipDirs are skipped when globbing the game root.
	ContentSkipDirs []string
	ArchiveSkipDirs []string
	NodrawMaterial  string
	MapRoot         mapcontent.MapRootResolver

	// Protect guards files from deletion. Nil loads .srcpruneignore from
	// the content root plus the user-level file.
	Protect *ignore.Matcher
}

// indexCacheSize bounds the archive indexes kept within one operation
const indexCacheSize = 4

// Resolver operates on one content root. Archive indexes are cached per
// game root for one operation only; a MapContents batch counts as one, so
// exporting several maps scans the game's archives once.
type Resolver struct {
	root    string
	opts    Options
	done    int
	indexes *lru.Cache[string, *archiveindex.Index]
}

// New creates a resolver for contentRoot
func New(contentRoot string, opts Options) *Resolver {
	indexes, _ := lru.New[string, *archiveindex.Index](indexCacheSize)
	return &Resolver{root: contentRoot, opts: opts, indexes: indexes}
}

// Root returns the content root
func (r *Resolver) Root() string { return r.root }

// reset starts a new operation. Archive indexes from earlier operations
// are dropped so a changed game installation is always re-read.
func (r *Resolver) reset() {
	r.done = 0
	r.indexes.Purge()
}

// step reports one unit of work out of total
func (r *Resolver) step(total int) {
	r.done++
	if total < r.done {
		total = r.done
	}
	if r.opts.Progress != nil {
		r.opts.Progress(r.done, total)
	}
}

// forward wraps a phase callback so its counts continue from the units
// already reported.
func (r *Resolver) forward() func(completed, total int) {
	base := r.done
	return func(completed, total int) {
		r.done = base + completed
		if r.opts.Progress != nil {
			r.opts.Progress(r.done, base+total)
		}
	}
}

func (r *Resolver) scan() (*contenttree.Tree, error) {
	return contenttree.Scan(r.root, contenttree.Options{SkipDirs: r.opts.ContentSkipDirs})
}

func (r *Resolver) protector() (*ignore.Matcher, error) {
	if r.opts.Protect != nil {
		return r.opts.Protect, nil
	}
	m, err := ignore.NewMatcher(r.root, ignore.UserIgnoreFile())
	if err != nil {
		return nil, diag.New(diag.UnreadableFile, ignore.FileName, err)
	}
	if m.Len() > 0 {
		logger.Debug("Loaded protection patterns", logger.Int("patterns", m.Len()))
	}
	return m, nil
}

func (r *Resolver) companionExts() []string {
	if r.opts.CompanionExts != nil {
		return r.opts.CompanionExts
	}
	return mdl.CompanionExts
}

// archives builds the index of gameRoot, or an empty index when gameRoot
// is empty. A missing game root is fatal.
func (r *Resolver) archives(gameRoot string, s *Summary) (*archiveindex.Index, error) {
	if gameRoot == "" {
		return archiveindex.New(), nil
	}
	key := filepath.Clean(gameRoot)
	if idx, ok := r.indexes.Get(key); ok {
		logger.Debug("Reusing archive index", logger.String("game", gameRoot), logger.Int("paths", idx.Len()))
		r.skipped(s, idx)
		return idx, nil
	}
	idx, err := archiveindex.Build(gameRoot, archiveindex.Options{
		Patterns: r.opts.ArchivePatterns,
		SkipDirs: r.opts.ArchiveSkipDirs,
		Progress: r.forward(),
	})
	if err != nil {
		var missing *archiveindex.MissingRootError
		if errors.As(err, &missing) {
			return nil, diag.New(diag.MissingRoot, gameRoot, missing.Err)
		}
		return nil, err
	}
	r.indexes.Add(key, idx)
	r.skipped(s, idx)
	return idx, nil
}

func (r *Resolver) skipped(s *Summary, idx *archiveindex.Index) {
	for _, sk := range idx.Skipped {
		s.Warnings.Add(diag.ArchiveCorrupt, sk.Path, sk.Err)
	}
}
