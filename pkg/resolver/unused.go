package resolver

import (
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/refgraph"
	"github.com/fulmenhq/srcprune/pkg/safeio"
)

// UnusedContent classifies models no script mentions, then the materials
// and textures only those models cited. With Commit each unused file is
// deleted as it is classified. Protected models count as used.
func (r *Resolver) UnusedContent() (*Summary, error) {
	r.reset()
	s := newSummary("unused", r.root, r.opts.Commit)

	tree, err := r.scan()
	if err != nil {
		return nil, err
	}
	protect, err := r.protector()
	if err != nil {
		return nil, err
	}

	g := refgraph.Build(tree, refgraph.Options{
		ScriptPatterns: r.opts.ScriptPatterns,
		CompanionExts:  r.companionExts(),
		Protected:      protect.IsProtected,
		Progress:       r.forward(),
	})
	s.Warnings = append(s.Warnings, g.Warnings...)

	unused := g.Classify()
	total := r.done + len(unused)
	for _, u := range unused {
		rel := u.Entry.Rel
		switch {
		case !r.opts.Commit:
			s.record(rel, u.Kind, u.Entry.Size, StatusUnused)
		default:
			size, err := safeio.RemoveContained(tree.Root, rel)
			if err != nil {
				logger.Warn("Failed to delete unused file", logger.String("path", rel), logger.Err(err))
				s.Warnings.Add(diag.UnreadableFile, rel, err)
				s.record(rel, u.Kind, u.Entry.Size, StatusFailed)
				break
			}
			tree.Forget(u.Entry.Path)
			s.record(rel, u.Kind, size, StatusDeleted)
		}
		r.step(total)
	}

	logger.Info("Unused content scan complete",
		logger.String("root", r.root),
		logger.Bool("commit", r.opts.Commit),
		logger.Int("models", len(g.Models)),
		logger.Int("files", s.Files),
		logger.Int64("bytes", s.Bytes))
	return s, nil
}
