// Package safeio performs file operations that stay inside a given root
// directory: reading, copying between content trees and deleting.
package safeio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideRoot is returned when a path resolves outside its root
var ErrOutsideRoot = errors.New("path is outside root directory")

// CleanUserPath cleans a user-provided path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	for _, seg := range strings.Split(filepath.ToSlash(c), "/") {
		if seg == ".." {
			return "", errors.New("path traversal detected")
		}
	}
	return filepath.ToSlash(c), nil
}

// Contained joins rel onto root and verifies the result stays inside root.
// rel may use either separator.
func Contained(root, rel string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	p := filepath.Join(rootAbs, filepath.FromSlash(strings.ReplaceAll(rel, "\\", "/")))
	r, err := filepath.Rel(rootAbs, p)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
// filePath may be absolute or relative to the working directory.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.New("failed to resolve base directory")
	}
	filePathAbs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.New("failed to resolve file path")
	}

	rel, err := filepath.Rel(baseDirAbs, filePathAbs)
	if err != nil {
		return nil, errors.New("failed to compute relative path")
	}

	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return nil, ErrOutsideRoot
	}

	// #nosec G304 -- filePathAbs has been verified to be contained within baseDirAbs
	return os.ReadFile(filePathAbs)
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}

// DestinationError reports a failure to create the destination tree. It is
// distinct from a failure to read the source.
type DestinationError struct {
	Path string
	Err  error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("create destination %s: %v", e.Path, e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }

// IsDestinationError checks if an error came from creating the destination
func IsDestinationError(err error) bool {
	var de *DestinationError
	return errors.As(err, &de)
}

// CopyContained copies rel from srcRoot to the same relative location under
// dstRoot, creating parent directories and keeping mode and modification
// time. It returns the number of bytes copied.
func CopyContained(srcRoot, dstRoot, rel string) (int64, error) {
	src, err := Contained(srcRoot, rel)
	if err != nil {
		return 0, err
	}
	dst, err := Contained(dstRoot, rel)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(src) // #nosec G304 -- src verified inside srcRoot
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()
	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, &DestinationError{Path: filepath.Dir(dst), Err: err}
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm()) // #nosec G304 -- dst verified inside dstRoot
	if err != nil {
		return 0, &DestinationError{Path: dst, Err: err}
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", rel, err)
	}
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return n, nil
}

// RemoveContained deletes the regular file rel under root and returns its
// size.
func RemoveContained(root, rel string) (int64, error) {
	p, err := Contained(root, rel)
	if err != nil {
		return 0, err
	}
	info, err := os.Lstat(p)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", p)
	}
	if err := os.Remove(p); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// PruneEmptyDirs finds directories under root that are empty, or would be
// once their empty subdirectories are removed, deepest first. root itself is
// never listed. When remove is true they are deleted.
func PruneEmptyDirs(root string, remove bool) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Deepest first so parents see their children gone
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := strings.Count(dirs[i], string(filepath.Separator)), strings.Count(dirs[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	empty := make(map[string]bool)
	var pruned []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return pruned, err
		}
		isEmpty := true
		for _, e := range entries {
			if !e.IsDir() || !empty[filepath.Join(dir, e.Name())] {
				isEmpty = false
				break
			}
		}
		if !isEmpty {
			continue
		}
		empty[dir] = true
		pruned = append(pruned, dir)
		if remove {
			if err := os.Remove(dir); err != nil {
				return pruned, err
			}
		}
	}
	return pruned, nil
}
