package vpk

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/srcprune/internal/contenttest"
)

func TestRead_Versions(t *testing.T) {
	for _, version := range []uint32{1, 2} {
		t.Run(map[uint32]string{1: "v1", 2: "v2"}[version], func(t *testing.T) {
			data := contenttest.Pack(version, []contenttest.PackEntry{
				{Path: "materials/brick/wall.vmt", Preload: []byte(`"LightmappedGeneric" {}`)},
				{Path: "materials/brick/wall.vtf", Length: 4096},
				{Path: "readme", Length: 3},
				{Path: "sound/ambient/wind.wav", Length: 10},
			})
			a, err := Read(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, version, a.Header.Version)

			var paths []string
			for _, e := range a.Entries {
				paths = append(paths, e.Path)
			}
			assert.ElementsMatch(t, []string{
				"materials/brick/wall.vmt",
				"materials/brick/wall.vtf",
				"readme",
				"sound/ambient/wind.wav",
			}, paths)

			for _, e := range a.Entries {
				if e.Path == "materials/brick/wall.vtf" {
					assert.Equal(t, int64(4096), e.Size())
				}
				if e.Path == "materials/brick/wall.vmt" {
					assert.Equal(t, uint16(23), e.PreloadBytes)
				}
			}
		})
	}
}

func TestRead_Errors(t *testing.T) {
	good := contenttest.PackPaths(2, "a/b.txt", "a/c.txt")

	_, err := Read(bytes.NewReader([]byte("not a vpk file")))
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.True(t, IsCorrupt(err))

	v3 := append([]byte(nil), good...)
	v3[4] = 3
	_, err = Read(bytes.NewReader(v3))
	var verr *UnsupportedVersionError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, uint32(3), verr.Version)

	_, err = Read(bytes.NewReader(good[:len(good)-12]))
	require.Error(t, err)
	assert.True(t, IsCorrupt(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	seen := 0
	err := Walk(bytes.NewReader(contenttest.PackPaths(1, "a.txt", "b.txt", "c.txt")), nil, func(Entry) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pak01_dir.vpk")
	require.NoError(t, os.WriteFile(p, contenttest.PackPaths(2, "models/a.mdl"), 0o644))

	a, err := Open(p)
	require.NoError(t, err)
	assert.Equal(t, p, a.Path)
	require.Len(t, a.Entries, 1)
	assert.Equal(t, "models/a.mdl", a.Entries[0].Path)

	_, err = Open(filepath.Join(dir, "pak01_000.vpk"))
	assert.ErrorIs(t, err, ErrDataChunk)
}

func TestIsDataChunk(t *testing.T) {
	assert.True(t, IsDataChunk("pak01_000.vpk"))
	assert.True(t, IsDataChunk("/game/hl2/HL2_SOUND_VO_ENGLISH_012.VPK"))
	assert.False(t, IsDataChunk("pak01_dir.vpk"))
	assert.False(t, IsDataChunk("single.vpk"))
}
