// Package mdl reads the header of compiled Source models (studiohdr_t) far
// enough to list the materials a model renders with.
package mdl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/fulmenhq/srcprune/pkg/assetpath"
)

// Magic is the studiohdr_t identifier
const Magic = "IDST"

// Supported header versions
const (
	MinVersion = 44
	MaxVersion = 49
)

// studiohdr_t field offsets
const (
	offID             = 0
	offVersion        = 4
	offName           = 12
	nameLen           = 64
	offLength         = 76
	offNumTextures    = 204
	offTextureIndex   = 208
	offNumCDTextures  = 212
	offCDTextureIndex = 216
	offNumSkinRef     = 220
	offNumSkinFamily  = 224
	offSkinIndex      = 228
	headerSize        = 232

	textureStride = 64 // sizeof(mstudiotexture_t)
	maxTableCount = 1 << 16
)

var (
	// ErrNotModel is returned when the magic does not match
	ErrNotModel = errors.New("not a studio model")
	// ErrTruncated is returned when a table points past the end of the file
	ErrTruncated = errors.New("model file truncated")
)

// UnsupportedVersionError reports a header version outside MinVersion..MaxVersion
type UnsupportedVersionError struct {
	Version int32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported model version %d", e.Version)
}

// Model is the material-relevant part of a compiled model
type Model struct {
	Name    string
	Version int32
	Length  int32
	// Textures are the texture-table names, usually without directory
	Textures []string
	// CDMaterials are the $cdmaterials search directories in engine order
	CDMaterials []string
	// Skins holds, per skin family, the texture index of each skin slot
	Skins [][]int16
}

// Read decodes a model from r
func Read(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// ReadFile reads and decodes the model at path
func ReadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is inside the scanned content root
	if err != nil {
		return nil, err
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode parses a model from its raw bytes
func Decode(data []byte) (*Model, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if string(data[offID:offID+4]) != Magic {
		return nil, ErrNotModel
	}
	d := decoder{data: data}
	m := &Model{
		Version: d.i32(offVersion),
		Name:    cstring(data[offName : offName+nameLen]),
		Length:  d.i32(offLength),
	}
	if m.Version < MinVersion || m.Version > MaxVersion {
		return nil, &UnsupportedVersionError{Version: m.Version}
	}

	numTex, texIndex := d.i32(offNumTextures), d.i32(offTextureIndex)
	if err := d.table(int64(numTex), texIndex, textureStride); err != nil {
		return nil, fmt.Errorf("texture table: %w", err)
	}
	for i := int32(0); i < numTex; i++ {
		base := int(texIndex) + int(i)*textureStride
		name, err := d.stringAt(base + int(d.i32(base)))
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		m.Textures = append(m.Textures, name)
	}

	numCD, cdIndex := d.i32(offNumCDTextures), d.i32(offCDTextureIndex)
	if err := d.table(int64(numCD), cdIndex, 4); err != nil {
		return nil, fmt.Errorf("cdmaterials table: %w", err)
	}
	for i := int32(0); i < numCD; i++ {
		dir, err := d.stringAt(int(d.i32(int(cdIndex) + int(i)*4)))
		if err != nil {
			return nil, fmt.Errorf("cdmaterials %d: %w", i, err)
		}
		m.CDMaterials = append(m.CDMaterials, dir)
	}

	numRef, numFam, skinIndex := d.i32(offNumSkinRef), d.i32(offNumSkinFamily), d.i32(offSkinIndex)
	if numRef > 0 && numFam > 0 {
		if numRef > maxTableCount || numFam > maxTableCount {
			return nil, fmt.Errorf("skin table: bad size %dx%d", numFam, numRef)
		}
		if err := d.table(int64(numRef)*int64(numFam), skinIndex, 2); err != nil {
			return nil, fmt.Errorf("skin table: %w", err)
		}
		for f := int64(0); f < int64(numFam); f++ {
			row := make([]int16, numRef)
			for s := int64(0); s < int64(numRef); s++ {
				off := int64(skinIndex) + (f*int64(numRef)+s)*2
				row[s] = int16(binary.LittleEndian.Uint16(data[off:])) // #nosec G115 -- reinterpreting on-disk short
			}
			m.Skins = append(m.Skins, row)
		}
	}
	return m, nil
}

// Candidates returns, for texture i, the material paths the engine tries in
// $cdmaterials order.
func (m *Model) Candidates(i int) []assetpath.Path {
	if i < 0 || i >= len(m.Textures) {
		return nil
	}
	tex := strings.ReplaceAll(m.Textures[i], "\\", "/")
	dirs := m.CDMaterials
	if len(dirs) == 0 {
		dirs = []string{""}
	}
	out := make([]assetpath.Path, 0, len(dirs))
	for _, dir := range dirs {
		p := assetpath.Canonicalize(path.Join(strings.ReplaceAll(dir, "\\", "/"), tex), assetpath.Material)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Resolution is the outcome of matching a model's textures against a
// content tree.
type Resolution struct {
	Materials []assetpath.Path
	// Missing holds the first candidate of every texture no directory
	// provided.
	Missing []assetpath.Path
}

// Resolve picks, per texture, the first candidate for which exists reports
// true. Each texture yields at most one material citation.
func (m *Model) Resolve(exists func(assetpath.Path) bool) Resolution {
	var res Resolution
	for i := range m.Textures {
		cands := m.Candidates(i)
		if len(cands) == 0 {
			continue
		}
		found := false
		for _, c := range cands {
			if exists(c) {
				res.Materials = append(res.Materials, c)
				found = true
				break
			}
		}
		if !found {
			res.Missing = append(res.Missing, cands[0])
		}
	}
	return res
}

type decoder struct {
	data []byte
}

func (d decoder) i32(off int) int32 {
	if off < 0 || off+4 > len(d.data) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(d.data[off:])) // #nosec G115 -- reinterpreting on-disk int
}

func (d decoder) table(count int64, index int32, stride int) error {
	if count < 0 || count > maxTableCount {
		return fmt.Errorf("bad count %d", count)
	}
	if count == 0 {
		return nil
	}
	end := int64(index) + int64(count)*int64(stride)
	if index < 0 || end > int64(len(d.data)) {
		return ErrTruncated
	}
	return nil
}

func (d decoder) stringAt(off int) (string, error) {
	if off < 0 || off >= len(d.data) {
		return "", ErrTruncated
	}
	end := bytes.IndexByte(d.data[off:], 0)
	if end < 0 {
		return "", ErrTruncated
	}
	return string(d.data[off : off+end]), nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
