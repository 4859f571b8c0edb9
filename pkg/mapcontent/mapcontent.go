// Package mapcontent collects everything a Hammer map needs: the content its
// entities and brush faces name, the fragments its instances pull in, and
// the textures and materials those assets depend on.
package mapcontent

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/contenttree"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/formats/mdl"
	"github.com/fulmenhq/srcprune/pkg/formats/vmf"
	"github.com/fulmenhq/srcprune/pkg/formats/vmt"
	"github.com/fulmenhq/srcprune/pkg/logger"
)

// DefaultNodrawMaterial is the tool material never rendered or shipped
const DefaultNodrawMaterial = "tools/toolsnodraw"

// Options configures Collect
type Options struct {
	// Tree is the source content tree materials and models are read from.
	// A nil tree disables dependency expansion.
	Tree           *contenttree.Tree
	Resolver       MapRootResolver
	NodrawMaterial string
	CompanionExts  []string
	// Exists decides which $cdmaterials candidate a model resolves to.
	// Defaults to Tree.Has.
	Exists   func(assetpath.Path) bool
	Progress func(completed, total int)
}

// InstanceNode is one parsed map fragment
type InstanceNode struct {
	Path     string
	Parent   string
	Entities []*vmf.Entity
	Faces    int
}

// Result is the outcome of one collection
type Result struct {
	Bundle    *Bundle
	Instances []*InstanceNode
	Warnings  diag.Warnings
}

type collector struct {
	opts   Options
	canon  assetpath.Canonicalizer
	keys   keyTable
	nodraw assetpath.Path
	res    *Result
	// visited holds cleaned, case-folded fragment paths
	visited map[string]bool
}

type pending struct {
	path   string
	parent string
}

// Collect walks rootMap and every instance it reaches, then expands the
// collected models and materials. A missing or unreadable root map is
// returned as an error; every other failure is a warning.
func Collect(rootMap string, opts Options) (*Result, error) {
	info, err := os.Stat(rootMap)
	if err != nil {
		return nil, diag.New(diag.MissingRoot, rootMap, err)
	}
	if info.IsDir() {
		return nil, diag.New(diag.MissingRoot, rootMap, errors.New("map path is a directory"))
	}

	if opts.Resolver == nil {
		opts.Resolver = MapsFolderResolver{}
	}
	if opts.NodrawMaterial == "" {
		opts.NodrawMaterial = DefaultNodrawMaterial
	}
	if opts.Exists == nil && opts.Tree != nil {
		opts.Exists = opts.Tree.Has
	}

	base := filepath.Base(rootMap)
	c := &collector{
		opts:    opts,
		canon:   assetpath.Canonicalizer{MapBase: strings.TrimSuffix(base, filepath.Ext(base))},
		keys:    newKeyTable(),
		res:     &Result{Bundle: NewBundle()},
		visited: map[string]bool{},
	}
	c.nodraw = c.canon.Canonicalize(opts.NodrawMaterial, assetpath.Material)

	root, err := vmf.ReadFile(rootMap)
	if err != nil {
		return nil, diag.New(diag.UnreadableFile, rootMap, err)
	}
	c.traverse(rootMap, root)
	c.expand()

	logger.Debug("Map content collected",
		logger.String("map", rootMap),
		logger.Int("fragments", len(c.res.Instances)),
		logger.Int("assets", c.res.Bundle.Len()))
	return c.res, nil
}

func visitKey(p string) string {
	return strings.ToLower(filepath.Clean(p))
}

func (c *collector) warn(code diag.Code, path string, err error) {
	logger.Warn("Skipping map content", logger.String("code", string(code)), logger.String("path", path), logger.Err(err))
	c.res.Warnings.Add(code, path, err)
}

func (c *collector) missing(path, from, msg string) {
	logger.Warn("Referenced file not found", logger.String("path", path), logger.String("from", from))
	c.res.Warnings.AddFrom(diag.UnresolvedReference, path, from, msg)
}

// traverse runs the instance worklist starting from the already parsed root
func (c *collector) traverse(rootMap string, root *vmf.Map) {
	work := []pending{{path: rootMap}}
	parsed := map[string]*vmf.Map{visitKey(rootMap): root}
	done := 0

	for len(work) > 0 {
		next := work[0]
		work = work[1:]
		key := visitKey(next.path)
		if c.visited[key] {
			logger.Debug("Instance already visited", logger.String("path", next.path), logger.String("from", next.parent))
			continue
		}
		c.visited[key] = true

		m, ok := parsed[key]
		if !ok {
			var err error
			m, err = vmf.ReadFile(next.path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					c.missing(next.path, next.parent, "instance file not found")
				} else {
					c.warn(diag.UnreadableFile, next.path, err)
				}
				done++
				c.progress(done, done+len(work))
				continue
			}
		}

		node := &InstanceNode{Path: next.path, Parent: next.parent, Entities: m.Entities, Faces: len(m.Faces)}
		c.res.Instances = append(c.res.Instances, node)
		for _, inst := range c.scan(node, m) {
			work = append(work, pending{path: inst, parent: next.path})
		}
		done++
		c.progress(done, done+len(work))
	}
}

func (c *collector) progress(completed, total int) {
	if c.opts.Progress != nil {
		c.opts.Progress(completed, total)
	}
}

// scan adds the content of one fragment and returns the instance paths it
// names.
func (c *collector) scan(node *InstanceNode, m *vmf.Map) []string {
	var instances []string
	for _, e := range m.Entities {
		for _, p := range e.Pairs {
			kind, ok := c.keys[strings.ToLower(p.Key)]
			if !ok {
				continue
			}
			for _, r := range classify(kind, p.Value) {
				c.add(r.kind, r.raw, node.Path)
			}
		}
		if strings.EqualFold(e.Class(), InstanceClass) {
			if file := e.Get("file"); strings.TrimSpace(file) != "" {
				instances = append(instances, c.opts.Resolver.ResolveInstance(node.Path, file))
			}
		}
	}
	if world := m.World(); world != nil {
		for _, sky := range skyMaterials(world.Get("skyname")) {
			c.add(assetpath.Material, sky, node.Path)
		}
	}
	for _, f := range m.Faces {
		c.add(assetpath.Material, f.Material, node.Path)
	}
	return instances
}

// add canonicalizes raw and files it under kind
func (c *collector) add(kind assetpath.Kind, raw, from string) bool {
	p := c.canon.Canonicalize(raw, kind)
	if p == "" {
		return false
	}
	if kind == assetpath.Material && p.Key() == c.nodraw.Key() {
		return false
	}
	return c.res.Bundle.Add(kind, p, from)
}

// expand reads collected models for their materials and companions, then
// collected materials for their textures and patch includes.
func (c *collector) expand() {
	tree := c.opts.Tree
	if tree == nil {
		return
	}
	b := c.res.Bundle

	for _, p := range b.Set(assetpath.Model).Sorted() {
		if p.Ext() != ".mdl" {
			continue
		}
		e, ok := tree.Lookup(p)
		if !ok {
			continue
		}
		m, err := mdl.ReadFile(tree.Abs(e))
		if err != nil {
			c.warn(diag.UnreadableFile, e.Rel, err)
			continue
		}
		res := m.Resolve(c.opts.Exists)
		for _, mat := range append(res.Materials, res.Missing...) {
			b.Add(assetpath.Material, mat, e.Rel)
		}
		for _, comp := range mdl.Companions(p, c.opts.CompanionExts) {
			if tree.Has(comp) {
				b.Add(assetpath.Model, comp, e.Rel)
			}
		}
	}

	read := map[string]bool{}
	queue := b.Set(assetpath.Material).Sorted()
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if read[p.Key()] {
			continue
		}
		read[p.Key()] = true

		e, ok := tree.Lookup(p)
		if !ok {
			continue
		}
		m, err := vmt.ReadFile(tree.Abs(e))
		if err != nil {
			c.warn(diag.UnreadableFile, e.Rel, err)
			continue
		}
		for _, tex := range m.TexturePaths() {
			c.add(assetpath.Texture, tex, e.Rel)
		}
		if m.Include != "" {
			inc := c.canon.Canonicalize(m.Include, assetpath.Material)
			if c.res.Bundle.Add(assetpath.Material, inc, e.Rel) {
				queue = append(queue, inc)
			}
		}
	}
}
