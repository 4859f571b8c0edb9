// Package refgraph builds the model → material → texture reference graph of
// a content tree and classifies what the addon's scripts never reach.
//
// A model counts as used when its file stem occurs anywhere in the
// lower-cased text of the script files. That test is a plain substring
// search; it can be fooled both ways by names that are common words or are
// assembled at runtime.
package refgraph

import (
	"sort"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
	"github.com/fulmenhq/srcprune/pkg/contenttree"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/formats/mdl"
	"github.com/fulmenhq/srcprune/pkg/formats/vmt"
	"github.com/fulmenhq/srcprune/pkg/logger"
	"github.com/fulmenhq/srcprune/pkg/safeio"
)

// DefaultScriptPatterns select the files whose text forms the corpus
var DefaultScriptPatterns = []string{"**/*.lua", "**/*.nut"}

// Options configures Build
type Options struct {
	ScriptPatterns []string
	CompanionExts  []string
	// Protected reports whether an on-disk relative path must never be
	// classified unused. A protected model keeps its materials alive.
	Protected func(rel string) bool
	// Progress is called after each model and each script is read
	Progress func(completed, total int)
}

// ModelNode is one model with everything it cites. Materials and Textures
// hold one element per citation, so repeats are meaningful.
type ModelNode struct {
	Entry     contenttree.Entry
	Materials []assetpath.Path
	Textures  []assetpath.Path
	Used      bool
	Protected bool
}

// Graph is the fully built reference graph of one content tree
type Graph struct {
	Tree      *contenttree.Tree
	Models    []*ModelNode
	Materials Counts
	Textures  Counts
	Corpus    int
	Warnings  diag.Warnings

	opts      Options
	materials map[assetpath.Path]*materialInfo
}

type materialInfo struct {
	textures []assetpath.Path
	include  assetpath.Path
	ok       bool
}

// Build reads every model, its materials and their textures, then the
// script corpus. Nothing is decremented here.
func Build(tree *contenttree.Tree, opts Options) *Graph {
	if opts.ScriptPatterns == nil {
		opts.ScriptPatterns = DefaultScriptPatterns
	}
	g := &Graph{
		Tree:      tree,
		Materials: Counts{},
		Textures:  Counts{},
		opts:      opts,
		materials: map[assetpath.Path]*materialInfo{},
	}

	models := tree.WithSuffix(".mdl")
	scripts := tree.Match(opts.ScriptPatterns)
	total := len(models) + len(scripts)
	done := 0
	step := func() {
		done++
		if opts.Progress != nil {
			opts.Progress(done, total)
		}
	}

	for _, e := range models {
		if node := g.readModel(e); node != nil {
			g.Models = append(g.Models, node)
		}
		step()
	}

	var corpus strings.Builder
	for _, e := range scripts {
		data, err := safeio.ReadFileContained(tree.Root, tree.Abs(e))
		if err != nil {
			g.warn(diag.UnreadableFile, e.Rel, err)
		} else {
			corpus.WriteString(strings.ToLower(string(data)))
			corpus.WriteByte('\n')
		}
		step()
	}
	text := corpus.String()
	g.Corpus = len(text)

	for _, m := range g.Models {
		stem := strings.ToLower(m.Entry.Path.Stem())
		m.Used = m.Protected || (stem != "" && strings.Contains(text, stem))
	}

	logger.Debug("Reference graph built",
		logger.Int("models", len(g.Models)),
		logger.Int("materials", len(g.Materials)),
		logger.Int("textures", len(g.Textures)),
		logger.Int("scripts", len(scripts)))
	return g
}

func (g *Graph) warn(code diag.Code, path string, err error) {
	logger.Warn("Skipping asset", logger.String("code", string(code)), logger.String("path", path), logger.Err(err))
	g.Warnings.Add(code, path, err)
}

func (g *Graph) protected(rel string) bool {
	return g.opts.Protected != nil && g.opts.Protected(rel)
}

func (g *Graph) readModel(e contenttree.Entry) *ModelNode {
	model, err := mdl.ReadFile(g.Tree.Abs(e))
	if err != nil {
		g.warn(diag.UnreadableFile, e.Rel, err)
		return nil
	}
	node := &ModelNode{Entry: e, Protected: g.protected(e.Rel)}
	res := model.Resolve(g.Tree.Has)
	for _, miss := range res.Missing {
		logger.Warn("Model material not found", logger.String("model", e.Rel), logger.String("material", miss.String()))
		g.Warnings.AddFrom(diag.UnresolvedReference, miss.String(), e.Rel, "material not found in any $cdmaterials directory")
	}
	for _, mat := range res.Materials {
		g.cite(node, mat, map[assetpath.Path]bool{})
	}
	return node
}

// cite records one citation of mat by node, following patch includes
func (g *Graph) cite(node *ModelNode, mat assetpath.Path, seen map[assetpath.Path]bool) {
	if seen[mat] {
		return
	}
	seen[mat] = true
	g.Materials.Inc(mat)
	node.Materials = append(node.Materials, mat)

	info := g.material(mat)
	for _, tex := range info.textures {
		g.Textures.Inc(tex)
		node.Textures = append(node.Textures, tex)
	}
	if info.include != "" && g.Tree.Has(info.include) {
		g.cite(node, info.include, seen)
	}
}

// material parses mat once and caches the result
func (g *Graph) material(mat assetpath.Path) *materialInfo {
	if info, ok := g.materials[mat]; ok {
		return info
	}
	info := &materialInfo{}
	g.materials[mat] = info

	e, ok := g.Tree.Lookup(mat)
	if !ok {
		return info
	}
	m, err := vmt.ReadFile(g.Tree.Abs(e))
	if err != nil {
		g.warn(diag.UnreadableFile, e.Rel, err)
		return info
	}
	info.ok = true
	seen := map[assetpath.Path]bool{}
	for _, raw := range m.TexturePaths() {
		tex := assetpath.Canonicalize(raw, assetpath.Texture)
		if tex == "" || seen[tex] {
			continue
		}
		seen[tex] = true
		if !g.Tree.Has(tex) {
			logger.Debug("Texture not in content tree", logger.String("material", e.Rel), logger.String("texture", tex.String()))
		}
		info.textures = append(info.textures, tex)
	}
	if m.Include != "" {
		info.include = assetpath.Canonicalize(m.Include, assetpath.Material)
	}
	return info
}

// Unused is one file classified unused
type Unused struct {
	Entry contenttree.Entry
	Kind  assetpath.Kind
}

// Classify runs the decrement pass on a copy of the counts and returns the
// unused files that exist on disk: each unused model followed by its
// companion files, then materials, then textures.
func (g *Graph) Classify() []Unused {
	materials := g.Materials.Clone()
	textures := g.Textures.Clone()

	var out []Unused
	emitted := map[string]bool{}
	emit := func(p assetpath.Path, kind assetpath.Kind) {
		e, ok := g.Tree.Lookup(p)
		if !ok || emitted[p.Key()] || g.protected(e.Rel) {
			return
		}
		emitted[p.Key()] = true
		logger.Trace("Unused file", logger.String("path", e.Rel), logger.String("kind", kind.String()))
		out = append(out, Unused{Entry: e, Kind: kind})
	}

	models := g.UnusedModels()
	sort.Slice(models, func(i, j int) bool { return models[i].Entry.Path < models[j].Entry.Path })
	for _, m := range models {
		for _, mat := range m.Materials {
			materials.Dec(mat, 1)
		}
		for _, tex := range m.Textures {
			textures.Dec(tex, 1)
		}
		emit(m.Entry.Path, assetpath.Model)
		for _, c := range mdl.Companions(m.Entry.Path, g.opts.CompanionExts) {
			emit(c, assetpath.Model)
		}
	}
	for _, mat := range materials.Zero() {
		emit(mat, assetpath.Material)
	}
	for _, tex := range textures.Zero() {
		emit(tex, assetpath.Texture)
	}
	return out
}

// UnusedModels returns the models absent from the script corpus
func (g *Graph) UnusedModels() []*ModelNode {
	var out []*ModelNode
	for _, m := range g.Models {
		if !m.Used {
			out = append(out, m)
		}
	}
	return out
}
