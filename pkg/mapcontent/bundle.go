package mapcontent

import (
	"github.com/fulmenhq/srcprune/pkg/assetpath"
)

// Bundle accumulates the content of a root map and its instances, one
// case-insensitive set per kind.
type Bundle struct {
	sets map[assetpath.Kind]*assetpath.Set
	from map[string]string
}

// NewBundle creates an empty bundle
func NewBundle() *Bundle {
	b := &Bundle{
		sets: make(map[assetpath.Kind]*assetpath.Set, len(assetpath.Kinds)),
		from: map[string]string{},
	}
	for _, k := range assetpath.Kinds {
		b.sets[k] = assetpath.NewSet()
	}
	return b
}

// Add inserts p under kind and records the first file that referenced it.
// It reports whether p was new.
func (b *Bundle) Add(kind assetpath.Kind, p assetpath.Path, from string) bool {
	if !b.sets[kind].Add(p) {
		return false
	}
	b.from[p.Key()] = from
	return true
}

// Set returns the set for kind
func (b *Bundle) Set(kind assetpath.Kind) *assetpath.Set {
	return b.sets[kind]
}

// Contains reports whether p is in the set for kind
func (b *Bundle) Contains(kind assetpath.Kind, p assetpath.Path) bool {
	return b.sets[kind].Contains(p)
}

// From returns the file that first referenced p
func (b *Bundle) From(p assetpath.Path) string {
	return b.from[p.Key()]
}

// Len returns the number of paths across all kinds
func (b *Bundle) Len() int {
	n := 0
	for _, s := range b.sets {
		n += s.Len()
	}
	return n
}

// Item is one bundle member
type Item struct {
	Kind assetpath.Kind
	Path assetpath.Path
}

// Items lists every member, kinds in report order and paths sorted within a
// kind.
func (b *Bundle) Items() []Item {
	out := make([]Item, 0, b.Len())
	for _, k := range assetpath.Kinds {
		for _, p := range b.sets[k].Sorted() {
			out = append(out, Item{Kind: k, Path: p})
		}
	}
	return out
}
