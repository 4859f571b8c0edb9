// Package assetpath defines the canonical identity of Source-engine content
// files and the rules that turn raw in-file references into that identity.
package assetpath

import (
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Path is a normalized, lower-cased, forward-slash separated path relative to
// a content root. It is the identity key for every set and map in srcprune.
type Path string

// String returns the path as a plain string
func (p Path) String() string { return string(p) }

// Ext returns the file extension including the leading dot
func (p Path) Ext() string { return path.Ext(string(p)) }

// Base returns the last element of the path
func (p Path) Base() string { return path.Base(string(p)) }

// Stem returns the file name without any known extension
func (p Path) Stem() string {
	return StripKnownExt(p.Base())
}

// Kind classifies a content file
type Kind int

const (
	Material Kind = iota
	Texture
	Model
	Sound
	Script
	Particle
	Other
)

// Kinds lists every kind in report order
var Kinds = []Kind{Material, Texture, Model, Sound, Script, Particle, Other}

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case Material:
		return "material"
	case Texture:
		return "texture"
	case Model:
		return "model"
	case Sound:
		return "sound"
	case Script:
		return "script"
	case Particle:
		return "particle"
	default:
		return "other"
	}
}

// ParseKind parses a kind name as produced by Kind.String
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == strings.ToLower(strings.TrimSpace(s)) {
			return k, true
		}
	}
	return Other, false
}

// RootDir returns the top-level content folder for the kind, or "" when the
// kind has no fixed home.
func (k Kind) RootDir() string {
	switch k {
	case Material, Texture:
		return "materials"
	case Model:
		return "models"
	case Sound:
		return "sound"
	case Script:
		return "scripts/vscripts"
	case Particle:
		return "particles"
	default:
		return ""
	}
}

// Ext returns the canonical extension for the kind. Sound and Other keep
// whatever extension the reference carried.
func (k Kind) Ext() string {
	switch k {
	case Material:
		return ".vmt"
	case Texture:
		return ".vtf"
	case Model:
		return ".mdl"
	case Particle:
		return ".pcf"
	default:
		return ""
	}
}

// KindOf infers the kind of an already canonical path from its extension
func KindOf(p Path) Kind {
	switch p.Ext() {
	case ".vmt", ".spr":
		return Material
	case ".vtf":
		return Texture
	case ".mdl", ".vvd", ".phy", ".vtx", ".ani":
		return Model
	case ".wav", ".mp3", ".ogg":
		return Sound
	case ".nut", ".lua":
		return Script
	case ".pcf":
		return Particle
	default:
		return Other
	}
}

// Key returns the case-folded identity used for set membership
func (p Path) Key() string {
	return cases.Fold().String(string(p))
}

// Set is a case-insensitive set of paths. The first spelling added wins.
type Set struct {
	items map[string]Path
}

// NewSet creates an empty set, optionally seeded with paths
func NewSet(paths ...Path) *Set {
	s := &Set{items: make(map[string]Path, len(paths))}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts p and reports whether it was not already present
func (s *Set) Add(p Path) bool {
	if p == "" {
		return false
	}
	k := p.Key()
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = p
	return true
}

// Contains reports whether p is in the set, ignoring case
func (s *Set) Contains(p Path) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[p.Key()]
	return ok
}

// Len returns the number of members
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Sorted returns the members in lexical order
func (s *Set) Sorted() []Path {
	if s == nil {
		return nil
	}
	out := make([]Path, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
