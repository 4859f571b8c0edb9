package mdl

import (
	"github.com/fulmenhq/srcprune/pkg/assetpath"
)

// CompanionExts are the files compiled alongside a .mdl that belong to it
var CompanionExts = []string{
	".vvd", ".phy", ".ani", ".vtx",
	".dx80.vtx", ".dx90.vtx", ".sw.vtx", ".xbox.vtx", ".360.vtx",
}

// LegacyVTXExts are mesh variants current engine branches never load
var LegacyVTXExts = []string{".dx80.vtx", ".xbox.vtx", ".sw.vtx", ".360.vtx"}

// Companions returns the companion paths of model for the given extensions.
// A nil exts uses CompanionExts.
func Companions(model assetpath.Path, exts []string) []assetpath.Path {
	if exts == nil {
		exts = CompanionExts
	}
	stem := assetpath.StripKnownExt(model.String())
	out := make([]assetpath.Path, 0, len(exts))
	for _, ext := range exts {
		out = append(out, assetpath.Path(stem+ext))
	}
	return out
}
