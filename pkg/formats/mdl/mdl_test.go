package mdl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/srcprune/internal/contenttest"
	"github.com/fulmenhq/srcprune/pkg/assetpath"
)

func TestDecode(t *testing.T) {
	data := contenttest.Model{
		Version:     48,
		Name:        "props/crate.mdl",
		Textures:    []string{"crate", "crate_dirty"},
		CDMaterials: []string{`models\props\`, "models/shared/"},
		Skins:       [][]int16{{0}, {1}},
	}.Bytes()

	m, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "props/crate.mdl", m.Name)
	assert.Equal(t, int32(48), m.Version)
	assert.Equal(t, int32(len(data)), m.Length)
	assert.Equal(t, []string{"crate", "crate_dirty"}, m.Textures)
	assert.Equal(t, []string{`models\props\`, "models/shared/"}, m.CDMaterials)
	assert.Equal(t, [][]int16{{0}, {1}}, m.Skins)

	assert.Equal(t, []assetpath.Path{
		"materials/models/props/crate.vmt",
		"materials/models/shared/crate.vmt",
	}, m.Candidates(0))
	assert.Nil(t, m.Candidates(5))
}

func TestResolve(t *testing.T) {
	m, err := Decode(contenttest.Model{
		Version:     44,
		Textures:    []string{"Crate", "Lid", "gone"},
		CDMaterials: []string{"models/props/", "models/shared/"},
	}.Bytes())
	require.NoError(t, err)

	onDisk := assetpath.NewSet(
		"materials/models/props/crate.vmt",
		"materials/models/shared/crate.vmt",
		"materials/models/shared/lid.vmt",
	)
	res := m.Resolve(onDisk.Contains)
	assert.Equal(t, []assetpath.Path{
		"materials/models/props/crate.vmt",
		"materials/models/shared/lid.vmt",
	}, res.Materials)
	assert.Equal(t, []assetpath.Path{"materials/models/props/gone.vmt"}, res.Missing)
}

func TestDecode_Errors(t *testing.T) {
	good := contenttest.Model{Version: 48, Textures: []string{"a"}}.Bytes()

	_, err := Decode(good[:100])
	assert.ErrorIs(t, err, ErrTruncated)

	bad := append([]byte(nil), good...)
	copy(bad, "IDSQ")
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrNotModel)

	_, err = Decode(contenttest.Model{Version: 37}.Bytes())
	var verr *UnsupportedVersionError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, int32(37), verr.Version)

	broken := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(broken[offTextureIndex:], uint32(len(broken)+10))
	_, err = Decode(broken)
	assert.ErrorIs(t, err, ErrTruncated)

	tests := []struct {
		name           string
		refs, families uint32
	}{
		{"cell count wraps to zero", 1 << 16, 1 << 16},
		{"too many families", 1, 1<<16 + 1},
		{"table past end", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skins := contenttest.Model{Textures: []string{"x"}}.Bytes()
			binary.LittleEndian.PutUint32(skins[offNumSkinRef:], tt.refs)
			binary.LittleEndian.PutUint32(skins[offNumSkinFamily:], tt.families)
			binary.LittleEndian.PutUint32(skins[offSkinIndex:], uint32(len(skins)-2))
			assert.NotPanics(t, func() {
				_, err := Decode(skins)
				assert.Error(t, err)
			})
		})
	}
}

func TestCompanions(t *testing.T) {
	got := Companions("models/props/crate.mdl", []string{".vvd", ".dx90.vtx"})
	assert.Equal(t, []assetpath.Path{"models/props/crate.vvd", "models/props/crate.dx90.vtx"}, got)
	assert.Len(t, Companions("models/a.mdl", nil), len(CompanionExts))
}
