// Package vmf reads Hammer map sources into a flat entity list and the
// brush faces of every solid.
package vmf

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/keyvalues"
)

// Pair is one key-value of an entity, in file order
type Pair struct {
	Key   string
	Value string
}

// Entity is a "world" or "entity" block. Keys repeat in Pairs as they did in
// the file; nested blocks other than solids are dropped.
type Entity struct {
	Pairs  []Pair
	Solids int
	Line   int
}

// Get returns the first value for key, ignoring case
func (e *Entity) Get(key string) string {
	for _, p := range e.Pairs {
		if strings.EqualFold(p.Key, key) {
			return p.Value
		}
	}
	return ""
}

// Class returns the entity classname
func (e *Entity) Class() string {
	return e.Get("classname")
}

// Face is one brush side with its material
type Face struct {
	Material string
	Line     int
}

// Map is a parsed map fragment
type Map struct {
	Entities []*Entity
	Faces    []Face
}

// World returns the worldspawn entity, or nil
func (m *Map) World() *Entity {
	for _, e := range m.Entities {
		if strings.EqualFold(e.Class(), "worldspawn") {
			return e
		}
	}
	return nil
}

// Read parses a map from r
func Read(r io.Reader) (*Map, error) {
	nodes, err := keyvalues.Parse(r)
	if err != nil {
		return nil, err
	}
	m := &Map{}
	for _, n := range nodes {
		collectTop(n, m)
	}
	return m, nil
}

// ReadFile opens and parses the map at path
func ReadFile(path string) (*Map, error) {
	f, err := os.Open(path) // #nosec G304 -- map paths come from the caller or instance resolution
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func collectTop(n *keyvalues.Node, m *Map) {
	if !n.IsBlock() {
		return
	}
	switch strings.ToLower(n.Key) {
	case "world", "entity":
		m.Entities = append(m.Entities, entityFrom(n))
		collectFaces(n, m)
	case "hidden":
		for _, c := range n.Children {
			collectTop(c, m)
		}
	default:
		// versioninfo, visgroups, cameras, cordons: no content, but a
		// stray solid still counts.
		collectFaces(n, m)
	}
}

func entityFrom(n *keyvalues.Node) *Entity {
	e := &Entity{Line: n.Line}
	for _, c := range n.Children {
		if !c.IsBlock() {
			e.Pairs = append(e.Pairs, Pair{Key: c.Key, Value: c.Value})
			continue
		}
		switch strings.ToLower(c.Key) {
		case "solid":
			e.Solids++
		case "hidden":
			for _, h := range c.Children {
				if h.IsBlock() && strings.EqualFold(h.Key, "solid") {
					e.Solids++
				}
			}
		}
	}
	return e
}

func collectFaces(n *keyvalues.Node, m *Map) {
	n.Walk(func(c *keyvalues.Node) {
		if !c.IsBlock() || !strings.EqualFold(c.Key, "side") {
			return
		}
		if mat, ok := c.Get("material"); ok && strings.TrimSpace(mat) != "" {
			m.Faces = append(m.Faces, Face{Material: mat, Line: c.Line})
		}
	})
}
