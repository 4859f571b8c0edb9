// Package vpk reads the directory tree of Valve pack files without touching
// their payload chunks.
package vpk

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Signature is the little-endian magic at offset 0 of a directory file
const Signature uint32 = 0x55aa1234

const (
	headerSizeV1 = 12
	headerSizeV2 = 28
	terminator   = 0xffff
	// emptyMarker stands for an empty extension or directory in the tree
	emptyMarker = " "
)

var (
	// ErrBadSignature is returned for files that are not VPK directories
	ErrBadSignature = errors.New("vpk: bad signature")
	// ErrDataChunk is returned when opening a numbered data chunk
	ErrDataChunk = errors.New("vpk: numbered data chunk has no directory")
)

// UnsupportedVersionError reports a directory version other than 1 or 2
type UnsupportedVersionError struct {
	Version uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("vpk: unsupported version %d", e.Version)
}

// CorruptError reports a malformed directory tree
type CorruptError struct {
	Offset int64
	Reason string
	Err    error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vpk: corrupt tree at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("vpk: corrupt tree at offset %d: %s", e.Offset, e.Reason)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// IsCorrupt checks if an error is a malformed-archive error
func IsCorrupt(err error) bool {
	var ce *CorruptError
	var ve *UnsupportedVersionError
	return errors.As(err, &ce) || errors.As(err, &ve) || errors.Is(err, ErrBadSignature)
}

// Entry is the directory metadata of one packed file
type Entry struct {
	Path         string
	CRC          uint32
	PreloadBytes uint16
	ArchiveIndex uint16
	Offset       uint32
	Length       uint32
}

// Size returns the unpacked size of the file
func (e Entry) Size() int64 {
	return int64(e.PreloadBytes) + int64(e.Length)
}

// Header is the fixed part of a directory file
type Header struct {
	Version  uint32
	TreeSize uint32
}

// Archive is a parsed directory file
type Archive struct {
	Path    string
	Header  Header
	Entries []Entry
}

var dataChunk = regexp.MustCompile(`_\d{3}\.vpk$`)

// IsDataChunk reports whether name is a numbered payload chunk such as
// "pak01_003.vpk".
func IsDataChunk(name string) bool {
	return dataChunk.MatchString(strings.ToLower(filepath.Base(name)))
}

// Open reads the directory tree of the archive at path. Either the whole
// tree parses or an error is returned; partial entry lists are never
// returned.
func Open(path string) (*Archive, error) {
	if IsDataChunk(path) {
		return nil, ErrDataChunk
	}
	f, err := os.Open(path) // #nosec G304 -- archive paths come from globbing the game root
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	a, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.Path = path
	return a, nil
}

// Read parses a directory file from r
func Read(r io.Reader) (*Archive, error) {
	a := &Archive{}
	err := Walk(r, func(h Header) {
		a.Header = h
	}, func(e Entry) error {
		a.Entries = append(a.Entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Walk streams the tree of r, calling onHeader once and fn per entry.
// Returning an error from fn stops the walk with that error.
func Walk(r io.Reader, onHeader func(Header), fn func(Entry) error) error {
	tr := &treeReader{r: bufio.NewReader(r)}

	sig, err := tr.u32()
	if err != nil {
		return ErrBadSignature
	}
	if sig != Signature {
		return ErrBadSignature
	}
	var h Header
	if h.Version, err = tr.u32(); err != nil {
		return tr.corrupt("header", err)
	}
	if h.TreeSize, err = tr.u32(); err != nil {
		return tr.corrupt("header", err)
	}
	switch h.Version {
	case 1:
	case 2:
		if _, err := tr.skip(headerSizeV2 - headerSizeV1); err != nil {
			return tr.corrupt("v2 header", err)
		}
	default:
		return &UnsupportedVersionError{Version: h.Version}
	}
	if onHeader != nil {
		onHeader(h)
	}

	treeEnd := tr.off + int64(h.TreeSize)
	for {
		ext, err := tr.cstring()
		if err != nil {
			return tr.corrupt("extension", err)
		}
		if ext == "" {
			break
		}
		for {
			dir, err := tr.cstring()
			if err != nil {
				return tr.corrupt("directory", err)
			}
			if dir == "" {
				break
			}
			for {
				name, err := tr.cstring()
				if err != nil {
					return tr.corrupt("file name", err)
				}
				if name == "" {
					break
				}
				e, err := tr.entry(joinEntry(dir, name, ext))
				if err != nil {
					return err
				}
				if tr.off > treeEnd {
					return tr.corrupt("entry past tree end", nil)
				}
				if err := fn(e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func joinEntry(dir, name, ext string) string {
	p := name
	if ext != emptyMarker {
		p += "." + ext
	}
	if dir != emptyMarker {
		p = dir + "/" + p
	}
	return p
}

type treeReader struct {
	r   *bufio.Reader
	off int64
	buf [8]byte
}

func (t *treeReader) corrupt(reason string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &CorruptError{Offset: t.off, Reason: reason, Err: err}
}

func (t *treeReader) u16() (uint16, error) {
	if _, err := io.ReadFull(t.r, t.buf[:2]); err != nil {
		return 0, err
	}
	t.off += 2
	return binary.LittleEndian.Uint16(t.buf[:2]), nil
}

func (t *treeReader) u32() (uint32, error) {
	if _, err := io.ReadFull(t.r, t.buf[:4]); err != nil {
		return 0, err
	}
	t.off += 4
	return binary.LittleEndian.Uint32(t.buf[:4]), nil
}

func (t *treeReader) skip(n int) (int, error) {
	d, err := t.r.Discard(n)
	t.off += int64(d)
	return d, err
}

func (t *treeReader) cstring() (string, error) {
	s, err := t.r.ReadString(0)
	t.off += int64(len(s))
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func (t *treeReader) entry(path string) (Entry, error) {
	e := Entry{Path: path}
	var err error
	if e.CRC, err = t.u32(); err != nil {
		return e, t.corrupt(path, err)
	}
	if e.PreloadBytes, err = t.u16(); err != nil {
		return e, t.corrupt(path, err)
	}
	if e.ArchiveIndex, err = t.u16(); err != nil {
		return e, t.corrupt(path, err)
	}
	if e.Offset, err = t.u32(); err != nil {
		return e, t.corrupt(path, err)
	}
	if e.Length, err = t.u32(); err != nil {
		return e, t.corrupt(path, err)
	}
	term, err := t.u16()
	if err != nil {
		return e, t.corrupt(path, err)
	}
	if term != terminator {
		return e, t.corrupt(fmt.Sprintf("%s: bad terminator %#x", path, term), nil)
	}
	if e.PreloadBytes > 0 {
		if _, err := t.skip(int(e.PreloadBytes)); err != nil {
			return e, t.corrupt(path+": preload", err)
		}
	}
	return e, nil
}
