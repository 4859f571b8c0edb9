// Package contenttest builds on-disk Source content fixtures for tests:
// plain files, compiled model headers and pack directory files.
package contenttest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteFile writes content at rel under root, creating parent directories
func WriteFile(t testing.TB, root, rel string, content []byte) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", p, err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// WriteString is WriteFile for text content
func WriteString(t testing.TB, root, rel, content string) string {
	t.Helper()
	return WriteFile(t, root, rel, []byte(content))
}

// Exists reports whether rel exists under root
func Exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// Model describes a compiled model header fixture
type Model struct {
	Version     int32
	Name        string
	Textures    []string
	CDMaterials []string
	Skins       [][]int16
}

const (
	mdlHeaderSize    = 232
	mdlTextureStride = 64
)

// Bytes encodes a studiohdr_t with texture, cdmaterials and skin tables
// laid out after the header.
func (m Model) Bytes() []byte {
	version := m.Version
	if version == 0 {
		version = 48
	}
	buf := make([]byte, mdlHeaderSize)
	copy(buf, "IDST")
	put := func(off int, v int) { binary.LittleEndian.PutUint32(buf[off:], uint32(int32(v))) } // #nosec G115 -- fixture sizes are small
	put(4, int(version))
	copy(buf[12:76], m.Name)

	texIndex := len(buf)
	buf = append(buf, make([]byte, len(m.Textures)*mdlTextureStride)...)
	cdIndex := len(buf)
	buf = append(buf, make([]byte, len(m.CDMaterials)*4)...)
	skinIndex := len(buf)
	for _, row := range m.Skins {
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v)) // #nosec G115
		}
	}
	for i, tex := range m.Textures {
		base := texIndex + i*mdlTextureStride
		binary.LittleEndian.PutUint32(buf[base:], uint32(len(buf)-base)) // #nosec G115
		buf = append(buf, tex...)
		buf = append(buf, 0)
	}
	for i, dir := range m.CDMaterials {
		binary.LittleEndian.PutUint32(buf[cdIndex+i*4:], uint32(len(buf))) // #nosec G115
		buf = append(buf, dir...)
		buf = append(buf, 0)
	}

	put(204, len(m.Textures))
	put(208, texIndex)
	put(212, len(m.CDMaterials))
	put(216, cdIndex)
	if len(m.Skins) > 0 {
		put(220, len(m.Skins[0]))
		put(224, len(m.Skins))
		put(228, skinIndex)
	}
	put(76, len(buf))
	return buf
}

// PackEntry is one file of a pack directory fixture
type PackEntry struct {
	Path    string
	Preload []byte
	Length  uint32
}

// Pack encodes a VPK directory file of the given version (1 or 2)
func Pack(version uint32, entries []PackEntry) []byte {
	type named struct {
		name string
		e    PackEntry
	}
	tree := map[string]map[string][]named{}
	for _, e := range entries {
		dir, file := path.Split(e.Path)
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			dir = " "
		}
		ext := path.Ext(file)
		name := strings.TrimSuffix(file, ext)
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			ext = " "
		}
		if tree[ext] == nil {
			tree[ext] = map[string][]named{}
		}
		tree[ext][dir] = append(tree[ext][dir], named{name, e})
	}

	var body bytes.Buffer
	cstr := func(s string) {
		body.WriteString(s)
		body.WriteByte(0)
	}
	for _, ext := range sortedKeys(tree) {
		cstr(ext)
		for _, dir := range sortedKeys(tree[ext]) {
			cstr(dir)
			for _, n := range tree[ext][dir] {
				cstr(n.name)
				_ = binary.Write(&body, binary.LittleEndian, uint32(0))
				_ = binary.Write(&body, binary.LittleEndian, uint16(len(n.e.Preload)))
				_ = binary.Write(&body, binary.LittleEndian, uint16(0x7fff))
				_ = binary.Write(&body, binary.LittleEndian, uint32(0))
				_ = binary.Write(&body, binary.LittleEndian, n.e.Length)
				_ = binary.Write(&body, binary.LittleEndian, uint16(0xffff))
				body.Write(n.e.Preload)
			}
			cstr("")
		}
		cstr("")
	}
	cstr("")

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, uint32(0x55aa1234))
	_ = binary.Write(&out, binary.LittleEndian, version)
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len())) // #nosec G115
	if version == 2 {
		_ = binary.Write(&out, binary.LittleEndian, [4]uint32{})
	}
	out.Write(body.Bytes())
	return out.Bytes()
}

// PackPaths is Pack for entries with no payload
func PackPaths(version uint32, paths ...string) []byte {
	entries := make([]PackEntry, len(paths))
	for i, p := range paths {
		entries[i] = PackEntry{Path: p}
	}
	return Pack(version, entries)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
