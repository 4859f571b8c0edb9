package mapcontent

import (
	"path/filepath"
	"strings"
)

// MapRootResolver turns the file attribute of an instance entity into the
// path of the fragment it names.
type MapRootResolver interface {
	ResolveInstance(current, file string) string
}

// MapRootFunc adapts a function to MapRootResolver
type MapRootFunc func(current, file string) string

// ResolveInstance calls f
func (f MapRootFunc) ResolveInstance(current, file string) string {
	return f(current, file)
}

// MapsFolderResolver resolves instances against the nearest ancestor
// directory named "maps", falling back to the current map's directory.
type MapsFolderResolver struct{}

// ResolveInstance implements MapRootResolver
func (MapsFolderResolver) ResolveInstance(current, file string) string {
	rel := filepath.FromSlash(strings.ReplaceAll(strings.TrimSpace(file), "\\", "/"))
	if filepath.Ext(rel) == "" {
		rel += ".vmf"
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}

	dir := filepath.Dir(current)
	for d := dir; ; {
		if strings.EqualFold(filepath.Base(d), "maps") {
			return filepath.Join(d, rel)
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return filepath.Join(dir, rel)
}
