package resolver

import (
	"os"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/contenttree"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/mapcontent"
	"github.com/fulmenhq/srcprune/pkg/safeio"
)

// MapContent collects everything mapPath needs and copies it from the
// content root to dest, preserving relative paths. Paths the game already
// ships in the archives under gameRoot are skipped; an empty gameRoot
// disables exclusion. Missing sources are warnings.
func (r *Resolver) MapContent(mapPath, dest, gameRoot string) (*Summary, error) {
	r.reset()
	return r.mapContent(mapPath, dest, gameRoot)
}

// MapContents exports several maps into one dest as a single operation,
// indexing the archives under gameRoot once. It stops at the first fatal
// error and returns the summaries produced up to it.
func (r *Resolver) MapContents(mapPaths []string, dest, gameRoot string) ([]*Summary, error) {
	r.reset()
	out := make([]*Summary, 0, len(mapPaths))
	for _, mapPath := range mapPaths {
		s, err := r.mapContent(mapPath, dest, gameRoot)
		if s != nil {
			out = append(out, s)
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (r *Resolver) mapContent(mapPath, dest, gameRoot string) (*Summary, error) {
	s := newSummary("map", r.root, r.opts.Commit)
	s.Destination = dest

	tree, err := r.scan()
	if err != nil {
		return nil, err
	}
	idx, err := r.archives(gameRoot, s)
	if err != nil {
		return nil, err
	}

	res, err := mapcontent.Collect(mapPath, mapcontent.Options{
		Tree:           tree,
		Resolver:       r.opts.MapRoot,
		NodrawMaterial: r.opts.NodrawMaterial,
		CompanionExts:  r.companionExts(),
		Exists: func(p assetpath.Path) bool {
			return tree.Has(p) || idx.Contains(p)
		},
		Progress: r.forward(),
	})
	if err != nil {
		return nil, err
	}
	s.Warnings = append(s.Warnings, res.Warnings...)

	if r.opts.Commit {
		if err := os.MkdirAll(dest, 0o750); err != nil {
			return nil, diag.New(diag.DestinationCreate, dest, err)
		}
	}

	items := res.Bundle.Items()
	total := r.done + len(items)
	for _, it := range items {
		if err := r.materialize(s, tree, idx.Contains, res.Bundle, it, dest); err != nil {
			return s, err
		}
		r.step(total)
	}

	logger.Info("Map content export complete",
		logger.String("map", mapPath),
		logger.String("destination", dest),
		logger.Bool("commit", r.opts.Commit),
		logger.Int("files", s.Files),
		logger.Int("missing", s.Count(StatusMissing)),
		logger.Int("excluded", s.Count(StatusExcluded)),
		logger.Int64("bytes", s.Bytes))
	return s, nil
}

// materialize handles one bundle item. Only a destination failure is
// returned.
func (r *Resolver) materialize(s *Summary, tree *contenttree.Tree, shipped func(assetpath.Path) bool, b *mapcontent.Bundle, it mapcontent.Item, dest string) error {
	if shipped(it.Path) {
		s.record(it.Path.String(), it.Kind, 0, StatusExcluded)
		return nil
	}
	e, ok := tree.Lookup(it.Path)
	if !ok {
		logger.Warn("Required file not found", logger.String("path", it.Path.String()), logger.String("from", b.From(it.Path)))
		s.Warnings.AddFrom(diag.UnresolvedReference, it.Path.String(), b.From(it.Path), "required file not found in content root")
		s.record(it.Path.String(), it.Kind, 0, StatusMissing)
		return nil
	}
	if !r.opts.Commit {
		s.record(e.Rel, it.Kind, e.Size, StatusNeeded)
		return nil
	}
	n, err := safeio.CopyContained(tree.Root, dest, e.Rel)
	if err != nil {
		if safeio.IsDestinationError(err) {
			return diag.New(diag.DestinationCreate, dest, err)
		}
		logger.Warn("Failed to copy file", logger.String("path", e.Rel), logger.Err(err))
		s.Warnings.Add(diag.UnreadableFile, e.Rel, err)
		s.record(e.Rel, it.Kind, 0, StatusFailed)
		return nil
	}
	s.record(e.Rel, it.Kind, n, StatusCopied)
	return nil
}
