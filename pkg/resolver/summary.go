package resolver

import (
	"sort"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/diag"
)

// Status is what happened to one file
type Status string

const (
	StatusDeleted   Status = "deleted"
	StatusUnused    Status = "unused"
	StatusCopied    Status = "copied"
	StatusNeeded    Status = "needed"
	StatusMissing   Status = "missing"
	StatusExcluded  Status = "excluded"
	StatusProtected Status = "protected"
	StatusFailed    Status = "failed"
)

// Affected reports whether the status counts toward bytes and files
func (s Status) Affected() bool {
	switch s {
	case StatusDeleted, StatusUnused, StatusCopied, StatusNeeded:
		return true
	default:
		return false
	}
}

// File is one classified file
type File struct {
	Path   string         `json:"path" yaml:"path"`
	Kind   assetpath.Kind `json:"-" yaml:"-"`
	KindID string         `json:"kind" yaml:"kind"`
	Size   int64          `json:"size" yaml:"size"`
	Status Status         `json:"status" yaml:"status"`
}

// KindCounts are the per-kind tallies of a run
type KindCounts struct {
	Files    int   `json:"files" yaml:"files"`
	Bytes    int64 `json:"bytes" yaml:"bytes"`
	Missing  int   `json:"missing,omitempty" yaml:"missing,omitempty"`
	Excluded int   `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// Summary is the result of one resolver operation. Bytes and Files are the
// (bytes_affected, file_count) pair callers consume.
type Summary struct {
	Operation   string                `json:"operation" yaml:"operation"`
	Root        string                `json:"root" yaml:"root"`
	Destination string                `json:"destination,omitempty" yaml:"destination,omitempty"`
	Commit      bool                  `json:"commit" yaml:"commit"`
	Bytes       int64                 `json:"bytes" yaml:"bytes"`
	Files       int                   `json:"files" yaml:"files"`
	Kinds       map[string]KindCounts `json:"kinds" yaml:"kinds"`
	Items       []File                `json:"items" yaml:"items"`
	PrunedDirs  []string              `json:"pruned_dirs,omitempty" yaml:"pruned_dirs,omitempty"`
	Warnings    diag.Warnings         `json:"warnings" yaml:"warnings"`
}

func newSummary(op, root string, commit bool) *Summary {
	return &Summary{Operation: op, Root: root, Commit: commit, Kinds: map[string]KindCounts{}}
}

// record adds one file and updates the tallies
func (s *Summary) record(rel string, kind assetpath.Kind, size int64, status Status) {
	s.Items = append(s.Items, File{Path: rel, Kind: kind, KindID: kind.String(), Size: size, Status: status})
	kc := s.Kinds[kind.String()]
	switch {
	case status.Affected():
		s.Bytes += size
		s.Files++
		kc.Files++
		kc.Bytes += size
	case status == StatusMissing:
		kc.Missing++
	case status == StatusExcluded:
		kc.Excluded++
	}
	s.Kinds[kind.String()] = kc
}

// Result returns the (bytes_affected, file_count) pair
func (s *Summary) Result() (int64, int) {
	return s.Bytes, s.Files
}

// Paths returns the paths with the given statuses, sorted
func (s *Summary) Paths(statuses ...Status) []string {
	want := map[Status]bool{}
	for _, st := range statuses {
		want[st] = true
	}
	var out []string
	for _, f := range s.Items {
		if len(want) == 0 || want[f.Status] {
			out = append(out, f.Path)
		}
	}
	sort.Strings(out)
	return out
}

// Count returns the number of items with status
func (s *Summary) Count(status Status) int {
	n := 0
	for _, f := range s.Items {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Filter keeps only items whose kind is in kinds. Tallies are recomputed.
func (s *Summary) Filter(kinds ...assetpath.Kind) *Summary {
	if len(kinds) == 0 {
		return s
	}
	keep := map[assetpath.Kind]bool{}
	for _, k := range kinds {
		keep[k] = true
	}
	out := newSummary(s.Operation, s.Root, s.Commit)
	out.Destination = s.Destination
	out.PrunedDirs = s.PrunedDirs
	out.Warnings = s.Warnings
	for _, f := range s.Items {
		if keep[f.Kind] {
			out.record(f.Path, f.Kind, f.Size, f.Status)
		}
	}
	return out
}
