// Package vmt reads Source material definitions and reports the textures
// they reference.
package vmt

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/keyvalues"
)

// TextureKeys are the material parameters whose value names a texture
var TextureKeys = []string{
	"$basetexture",
	"$basetexture2",
	"$bumpmap",
	"$bumpmap2",
	"$normalmap",
	"$detail",
	"$envmap",
	"$envmapmask",
	"$selfillummask",
	"$phongexponenttexture",
	"$lightwarptexture",
	"$blendmodulatetexture",
	"$dudvmap",
	"$refracttexture",
	"$reflecttexture",
	"$texture2",
	"$iris",
	"$ambientoccltexture",
	"$corneatexture",
	"$tintmasktexture",
	"$emissiveblendtexture",
	"$emissiveblendbasetexture",
	"$emissiveblendflowtexture",
	"$fleshinteriortexture",
	"$fleshbordertexture1d",
}

var textureKeySet = func() map[string]bool {
	m := make(map[string]bool, len(TextureKeys))
	for _, k := range TextureKeys {
		m[k] = true
	}
	return m
}()

// engineTextures are names resolved by the engine at runtime, not files
var engineTextures = map[string]bool{
	"env_cubemap":         true,
	"_rt_camera":          true,
	"_rt_fullframefb":     true,
	"_rt_waterreflection": true,
	"_rt_waterrefraction": true,
}

// Material is the parsed reference surface of one .vmt
type Material struct {
	Shader string
	// Textures maps a texture parameter to the texture paths it names. A
	// parameter repeated in conditional blocks yields several paths.
	Textures map[string][]string
	// Include is the base material of a "patch" material, if any
	Include string
}

// TexturePaths returns every distinct texture path, sorted
func (m *Material) TexturePaths() []string {
	seen := make(map[string]bool)
	var out []string
	for _, paths := range m.Textures {
		for _, p := range paths {
			k := strings.ToLower(p)
			if !seen[k] {
				seen[k] = true
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Read parses a material from r
func Read(r io.Reader) (*Material, error) {
	nodes, err := keyvalues.Parse(r)
	if err != nil {
		return nil, err
	}
	var root *keyvalues.Node
	for _, n := range nodes {
		if n.IsBlock() {
			root = n
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("vmt: no shader block")
	}

	m := &Material{
		Shader:   root.Key,
		Textures: make(map[string][]string),
	}
	collect(root, m)
	if strings.EqualFold(m.Shader, "patch") {
		if inc, ok := root.Get("include"); ok {
			m.Include = strings.TrimSpace(inc)
		}
	}
	return m, nil
}

// ReadFile opens and parses the material at path
func ReadFile(path string) (*Material, error) {
	f, err := os.Open(path) // #nosec G304 -- path is inside the scanned content root
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

// collect walks every nested block: conditionals (">=dx90"), the "insert"
// and "replace" blocks of patch materials, and proxies.
func collect(n *keyvalues.Node, m *Material) {
	for _, c := range n.Children {
		if c.IsBlock() {
			collect(c, m)
			continue
		}
		key := strings.ToLower(c.Key)
		if !textureKeySet[key] {
			continue
		}
		v := strings.TrimSpace(c.Value)
		if v == "" || engineTextures[strings.ToLower(v)] {
			continue
		}
		m.Textures[key] = append(m.Textures[key], v)
	}
}
