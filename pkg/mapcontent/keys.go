package mapcontent

import (
	"path"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
)

// Entity keys whose values name content, by kind. Keys are matched without
// regard to case.
var (
	MaterialKeys = []string{
		"material", "texture", "ropematerial",
		"detailmaterial", "smokematerial", "spritename", "overlaymaterial",
	}
	ModelKeys = []string{
		"model", "gibmodel", "shootmodel", "worldmodel", "breakmodel",
	}
	SoundKeys = []string{
		"message", "soundname", "startsound", "stopsound", "movesound",
		"noise1", "noise2", "movepingsound", "startclosesound", "closesound",
		"unlocked_sound", "locked_sound", "pressedsound", "soundcloseoverride",
		"soundopenoverride", "soundmoveoverride", "soundlockedoverride",
		"soundunlockedoverride",
	}
	ScriptKeys   = []string{"vscripts"}
	ParticleKeys = []string{"effect_name"}
)

// InstanceClass is the entity class that includes another map fragment
const InstanceClass = "func_instance"

// SkyboxFaces are the suffixes of the six skybox materials
var SkyboxFaces = []string{"rt", "lf", "bk", "ft", "up", "dn"}

var audioExts = map[string]bool{".wav": true, ".mp3": true, ".ogg": true}

type keyTable map[string]assetpath.Kind

func newKeyTable() keyTable {
	t := keyTable{}
	for kind, keys := range map[assetpath.Kind][]string{
		assetpath.Material: MaterialKeys,
		assetpath.Model:    ModelKeys,
		assetpath.Sound:    SoundKeys,
		assetpath.Script:   ScriptKeys,
		assetpath.Particle: ParticleKeys,
	} {
		for _, k := range keys {
			t[strings.ToLower(k)] = kind
		}
	}
	return t
}

// classify maps one entity key-value to the raw references it carries. The
// returned kind may differ from the key's kind: a sprite in a model key is a
// material.
func classify(kind assetpath.Kind, value string) []ref {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	switch kind {
	case assetpath.Model:
		if strings.HasPrefix(value, "*") {
			return nil
		}
		switch strings.ToLower(path.Ext(value)) {
		case ".vmt", ".spr":
			return []ref{{assetpath.Material, value}}
		case ".mdl":
			return []ref{{assetpath.Model, value}}
		default:
			return nil
		}
	case assetpath.Sound:
		if !audioExts[strings.ToLower(path.Ext(value))] {
			return nil
		}
		return []ref{{assetpath.Sound, value}}
	case assetpath.Script:
		var out []ref
		for _, f := range strings.Fields(value) {
			if path.Ext(f) == "" {
				f += ".nut"
			}
			out = append(out, ref{assetpath.Script, f})
		}
		return out
	case assetpath.Particle:
		return []ref{{assetpath.Particle, value}}
	default:
		return []ref{{kind, value}}
	}
}

type ref struct {
	kind assetpath.Kind
	raw  string
}

// skyMaterials expands a worldspawn skyname into its six face materials
func skyMaterials(skyname string) []string {
	skyname = strings.TrimSpace(skyname)
	if skyname == "" {
		return nil
	}
	out := make([]string, 0, len(SkyboxFaces))
	for _, face := range SkyboxFaces {
		out = append(out, "skybox/"+skyname+face)
	}
	return out
}
