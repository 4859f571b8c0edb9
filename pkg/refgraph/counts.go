package refgraph

import (
	"sort"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
)

// Counts maps a canonical path to its inbound reference count
type Counts map[assetpath.Path]int

// Inc adds one reference to p
func (c Counts) Inc(p assetpath.Path) {
	c[p]++
}

// Dec removes n references from p, flooring at zero, and returns the new
// count.
func (c Counts) Dec(p assetpath.Path, n int) int {
	v := c[p] - n
	if v < 0 {
		v = 0
	}
	c[p] = v
	return v
}

// Get returns the count of p
func (c Counts) Get(p assetpath.Path) int {
	return c[p]
}

// Zero returns the paths whose count is zero, sorted
func (c Counts) Zero() []assetpath.Path {
	var out []assetpath.Path
	for p, v := range c {
		if v == 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
