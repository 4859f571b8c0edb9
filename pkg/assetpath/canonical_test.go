package assetpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"backslashes", `Materials\Nature\Water.VMT`, "materials/nature/water.vmt"},
		{"leading dot slash", "./models/props/a.mdl", "models/props/a.mdl"},
		{"leading slash", "/sound/ambient/wind.wav", "sound/ambient/wind.wav"},
		{"doubled separators", "materials//x.vmt", "materials/x.vmt"},
		{"blank", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestStripLightmapSuffix(t *testing.T) {
	assert.Equal(t,
		"materials/nature/water_wasteland002c.vmt",
		StripLightmapSuffix("materials/nature/water_wasteland002c_-7431_10685_225.vmt"))
	assert.Equal(t,
		"materials/nature/water_wasteland002c.vtf",
		StripLightmapSuffix("materials/nature/water_wasteland002c_-7431_10685_225.vtf"))
	assert.Equal(t, "models/odd_-name.mdl", StripLightmapSuffix("models/odd_-name.mdl"))
	assert.Equal(t, "materials/plain.vmt", StripLightmapSuffix("materials/plain.vmt"))
	assert.Equal(t, "materials/a_-b/x.vmt", StripLightmapSuffix("materials/a_-b/x.vmt"))
	assert.Equal(t, "materials/a_-b/x.vtf", StripLightmapSuffix("materials/a_-b/x_-1_2_3.vtf"))
	assert.Equal(t, "top.vmt", StripLightmapSuffix("top_-1_2_3.vmt"))
}

func TestRewriteDecal(t *testing.T) {
	assert.Equal(t, "materials/decals/blood1", RewriteDecal("decals/blood1"))
	assert.Equal(t, "materials/decals/blood1", RewriteDecal("materials/decals/blood1"))
	assert.Equal(t, "overlays/decals/x", RewriteDecal("overlays/decals/x"))
}

func TestFlattenInstanceFolder(t *testing.T) {
	assert.Equal(t, "props/barrel.vmt", FlattenInstanceFolder("maps/de_dust/props/barrel.vmt", "de_dust"))
	assert.Equal(t, "materials/props/barrel.vmt", FlattenInstanceFolder("materials/maps/de_dust/props/barrel.vmt", "DE_DUST"))
	assert.Equal(t, "x.vmt", FlattenInstanceFolder("maps/maps/de_dust/de_dust/x.vmt", "de_dust"))
	assert.Equal(t, "oldmaps/de_dust/x.vmt", FlattenInstanceFolder("oldmaps/de_dust/x.vmt", "de_dust"))
	assert.Equal(t, "maps/de_dust/x.vmt", FlattenInstanceFolder("maps/de_dust/x.vmt", ""))
}

func TestRulesAreIdempotent(t *testing.T) {
	inputs := []string{
		"materials/nature/water_wasteland002c_-7431_10685_225.vmt",
		"decals/blood1",
		"maps/de_dust/props/barrel.vmt",
		"maps/maps/de_dust/de_dust/a_-1_2_3.vtf",
		`Materials\Foo\Bar.VMT`,
		"sound/ambient/wind.wav",
	}
	rules := map[string]func(string) string{
		"normalize": Normalize,
		"kind ext":  func(p string) string { return WithKindExt(p, Material) },
		"lightmap":  StripLightmapSuffix,
		"decal":     RewriteDecal,
		"instance":  func(p string) string { return FlattenInstanceFolder(p, "de_dust") },
		"qualify":   func(p string) string { return Qualify(p, Texture) },
	}
	for name, rule := range rules {
		t.Run(name, func(t *testing.T) {
			for _, in := range inputs {
				once := rule(in)
				assert.Equal(t, once, rule(once), "input %q", in)
			}
		})
	}

	c := Canonicalizer{MapBase: "de_dust"}
	for _, in := range inputs {
		for _, k := range Kinds {
			once := c.Canonicalize(in, k)
			assert.Equal(t, once, c.Canonicalize(once.String(), k), "input %q kind %s", in, k)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	c := Canonicalizer{MapBase: "de_dust"}
	tests := []struct {
		name string
		raw  string
		kind Kind
		want Path
	}{
		{"brush material", "TOOLS/TOOLSNODRAW", Material, "materials/tools/toolsnodraw.vmt"},
		{"material with ext", `nature\Blend.vmt`, Material, "materials/nature/blend.vmt"},
		{"baked material", "maps/de_dust/nature/water_-1_2_3", Material, "materials/nature/water.vmt"},
		{"decal", "decals/blood1", Material, "materials/decals/blood1.vmt"},
		{"texture", "models/props/crate", Texture, "materials/models/props/crate.vtf"},
		{"model", "models/props/crate.mdl", Model, "models/props/crate.mdl"},
		{"sound with marker", ")ambient/wind.wav", Sound, "sound/ambient/wind.wav"},
		{"script", "logic/door", Script, "scripts/vscripts/logic/door"},
		{"script with ext", "logic/door.nut", Script, "scripts/vscripts/logic/door.nut"},
		{"particle file", "particles/fire.pcf", Particle, "particles/fire.pcf"},
		{"empty", "", Material, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Canonicalize(tt.raw, tt.kind))
		})
	}
}

func TestStripKnownExt(t *testing.T) {
	assert.Equal(t, "models/a", StripKnownExt("models/a.dx90.vtx"))
	assert.Equal(t, "models/a", StripKnownExt("models/a.MDL"))
	assert.Equal(t, "models/a.bin", StripKnownExt("models/a.bin"))
}
