package resolver

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/contenttree"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/formats/mdl"
	"github.com/fulmenhq/srcprune/pkg/ignore"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/safeio"
)

// RemoveGameFiles deletes every content file the game under gameRoot
// already ships in its archives, then prunes directories left empty.
func (r *Resolver) RemoveGameFiles(gameRoot string) (*Summary, error) {
	r.reset()
	s := newSummary("gamefiles", r.root, r.opts.Commit)

	if gameRoot == "" {
		return nil, diag.New(diag.MissingRoot, gameRoot, errors.New("game root not set"))
	}
	tree, err := r.scan()
	if err != nil {
		return nil, err
	}
	idx, err := r.archives(gameRoot, s)
	if err != nil {
		return nil, err
	}
	protect, err := r.protector()
	if err != nil {
		return nil, err
	}

	var shipped []contenttree.Entry
	for _, e := range tree.Entries() {
		if idx.Contains(e.Path) {
			shipped = append(shipped, e)
		}
	}
	r.remove(s, tree, protect, shipped)
	r.prune(s)

	logger.Info("Game file removal complete",
		logger.String("root", r.root),
		logger.String("game", gameRoot),
		logger.Bool("commit", r.opts.Commit),
		logger.Int("archives", len(idx.Archives)),
		logger.Int("files", s.Files),
		logger.Int64("bytes", s.Bytes))
	return s, nil
}

// UnusedModelFormats deletes the mesh variants current engine branches
// never load (.dx80.vtx, .sw.vtx and the console formats).
func (r *Resolver) UnusedModelFormats() (*Summary, error) {
	r.reset()
	s := newSummary("modelformats", r.root, r.opts.Commit)

	tree, err := r.scan()
	if err != nil {
		return nil, err
	}
	protect, err := r.protector()
	if err != nil {
		return nil, err
	}

	exts := r.opts.LegacyVTXExts
	if exts == nil {
		exts = mdl.LegacyVTXExts
	}
	var legacy []contenttree.Entry
	for _, e := range tree.Entries() {
		name := strings.ToLower(e.Path.Base())
		for _, ext := range exts {
			if strings.HasSuffix(name, strings.ToLower(ext)) {
				legacy = append(legacy, e)
				break
			}
		}
	}
	r.remove(s, tree, protect, legacy)

	logger.Info("Legacy model format removal complete",
		logger.String("root", r.root),
		logger.Bool("commit", r.opts.Commit),
		logger.Int("files", s.Files),
		logger.Int64("bytes", s.Bytes))
	return s, nil
}

// remove deletes entries, or only reports them in dry-run
func (r *Resolver) remove(s *Summary, tree *contenttree.Tree, protect *ignore.Matcher, entries []contenttree.Entry) {
	total := r.done + len(entries)
	for _, e := range entries {
		kind := assetpath.KindOf(e.Path)
		switch {
		case protect.IsProtected(e.Rel):
			s.record(e.Rel, kind, e.Size, StatusProtected)
		case !r.opts.Commit:
			s.record(e.Rel, kind, e.Size, StatusUnused)
		default:
			size, err := safeio.RemoveContained(tree.Root, e.Rel)
			if err != nil {
				logger.Warn("Failed to delete file", logger.String("path", e.Rel), logger.Err(err))
				s.Warnings.Add(diag.UnreadableFile, e.Rel, err)
				s.record(e.Rel, kind, e.Size, StatusFailed)
				break
			}
			tree.Forget(e.Path)
			s.record(e.Rel, kind, size, StatusDeleted)
		}
		r.step(total)
	}
}

// prune removes directories a commit left empty
func (r *Resolver) prune(s *Summary) {
	if !r.opts.Commit {
		return
	}
	dirs, err := safeio.PruneEmptyDirs(r.root, true)
	for _, d := range dirs {
		if rel, rerr := filepath.Rel(r.root, d); rerr == nil {
			s.PrunedDirs = append(s.PrunedDirs, filepath.ToSlash(rel))
		}
	}
	if err != nil {
		logger.Warn("Failed to prune empty directories", logger.String("root", r.root), logger.Err(err))
		s.Warnings.Add(diag.UnreadableFile, r.root, err)
	}
}
