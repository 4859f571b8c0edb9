package assetpath

import (
	"path"
	"strings"
)

// knownExts lists the extensions StripKnownExt removes, compound suffixes
// first so "a.dx90.vtx" loses the whole variant suffix.
var knownExts = []string{
	".dx80.vtx", ".dx90.vtx", ".sw.vtx", ".xbox.vtx", ".360.vtx",
	".vmt", ".vtf", ".mdl", ".vvd", ".phy", ".ani", ".vtx",
	".pcf", ".nut", ".lua", ".wav", ".mp3", ".ogg", ".vmf", ".spr",
}

// soundPrefixes are the mixing/spatialization markers the engine allows in
// front of a sound file name.
const soundPrefixes = "*#@><^)}$!?&~`+%"

// Normalize converts separators to forward slashes, lower-cases, and strips
// leading "./" and "/". It is rule 1 of the canonicalizer.
func Normalize(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ToLower(p)
	p = path.Clean(p)
	p = strings.TrimLeft(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// StripKnownExt removes a trailing known content extension, if any
func StripKnownExt(p string) string {
	lower := strings.ToLower(p)
	for _, ext := range knownExts {
		if strings.HasSuffix(lower, ext) {
			return p[:len(p)-len(ext)]
		}
	}
	return p
}

// WithKindExt replaces a known extension with the canonical extension of
// kind. Kinds without a canonical extension leave p unchanged.
func WithKindExt(p string, kind Kind) string {
	ext := kind.Ext()
	if ext == "" || p == "" {
		return p
	}
	return StripKnownExt(p) + ext
}

// StripLightmapSuffix undoes the per-surface names the map compiler bakes for
// patched materials: "water_wasteland002c_-7431_10685_225.vmt" becomes
// "water_wasteland002c.vmt". Only the file name of material and texture
// files is touched; directories keep their names.
func StripLightmapSuffix(p string) string {
	ext := path.Ext(p)
	if ext != ".vmt" && ext != ".vtf" {
		return p
	}
	dir := strings.LastIndex(p, "/") + 1
	idx := strings.Index(p[dir:], "_-")
	if idx < 0 {
		return p
	}
	return p[:dir+idx] + ext
}

// RewriteDecal maps "decals/..." to "materials/decals/..."; decal materials
// always live under materials/.
func RewriteDecal(p string) string {
	if strings.HasPrefix(p, "decals/") {
		return "materials/" + p
	}
	return p
}

// FlattenInstanceFolder removes every "maps/<mapBase>/" segment sequence so
// content a map keeps in its own subfolder resolves to the shared tree.
func FlattenInstanceFolder(p, mapBase string) string {
	mapBase = strings.ToLower(strings.TrimSpace(mapBase))
	if mapBase == "" {
		return p
	}
	seg := "maps/" + mapBase + "/"
	for {
		idx := indexSegment(p, seg)
		if idx < 0 {
			return p
		}
		p = p[:idx] + p[idx+len(seg):]
	}
}

// indexSegment finds seg in p starting at a path segment boundary
func indexSegment(p, seg string) int {
	offset := 0
	for {
		i := strings.Index(p[offset:], seg)
		if i < 0 {
			return -1
		}
		at := offset + i
		if at == 0 || p[at-1] == '/' {
			return at
		}
		offset = at + 1
	}
}

// Qualify prefixes the kind's root folder when p does not already start
// with it.
func Qualify(p string, kind Kind) string {
	root := kind.RootDir()
	if root == "" || p == "" {
		return p
	}
	if strings.HasPrefix(p, root+"/") {
		return p
	}
	return root + "/" + p
}

// Canonicalizer applies the fixed-order rewrite rules. MapBase is the root
// map's base name used by the instance-folder rule; empty disables it.
type Canonicalizer struct {
	MapBase string
}

// Canonicalize turns a raw in-file reference into a canonical Path
func (c Canonicalizer) Canonicalize(raw string, kind Kind) Path {
	p := Normalize(raw)
	if kind == Sound {
		p = strings.TrimLeft(p, soundPrefixes)
		p = strings.TrimPrefix(p, "/")
	}
	if p == "" {
		return ""
	}
	p = WithKindExt(p, kind)
	p = StripLightmapSuffix(p)
	p = RewriteDecal(p)
	p = FlattenInstanceFolder(p, c.MapBase)
	p = Qualify(p, kind)
	return Path(p)
}

// Canonicalize applies the rules without instance-folder flattening
func Canonicalize(raw string, kind Kind) Path {
	return Canonicalizer{}.Canonicalize(raw, kind)
}

// FromRel normalizes an on-disk relative path (rule 1 only). Archive entries
// and walked files go through here.
func FromRel(rel string) Path {
	return Path(Normalize(rel))
}
