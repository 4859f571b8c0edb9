package pathfinder

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoveryEngine provides file discovery with pattern matching
type DiscoveryEngine struct {
	validator *SafetyValidator
}

// NewDiscoveryEngine creates a new file discovery engine
func NewDiscoveryEngine(validator *SafetyValidator) *DiscoveryEngine {
	if validator == nil {
		validator = NewSafetyValidator()
	}
	return &DiscoveryEngine{
		validator: validator,
	}
}

// DiscoverFiles finds regular files under basePath matching the given
// criteria, sorted by relative path.
func (d *DiscoveryEngine) DiscoverFiles(basePath string, opts DiscoveryOptions) ([]FileEntry, error) {
	if err := d.validator.ValidatePath(basePath); err != nil {
		return nil, fmt.Errorf("base path validation failed: %w", err)
	}

	var files []FileEntry

	walkFunc := func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if opts.ErrorHandler != nil {
				return opts.ErrorHandler(path, err)
			}
			return err
		}

		// Skip symlinks unless explicitly enabled
		if !opts.FollowSymlinks && entry.Type()&os.ModeSymlink != 0 {
			return nil
		}

		relForDepth, relErr := filepath.Rel(basePath, path)
		if relErr != nil {
			return relErr
		}

		// Enforce max depth if provided (0 or negative means unlimited)
		if opts.MaxDepth > 0 && relForDepth != "." {
			depth := calculateDepth(relForDepth, entry.IsDir())
			if entry.IsDir() && depth >= opts.MaxDepth {
				return filepath.SkipDir
			}
			if !entry.IsDir() && depth > opts.MaxDepth {
				return nil
			}
		}

		if entry.IsDir() {
			if relForDepth == "." {
				return nil
			}
			name := entry.Name()
			for _, skipDir := range opts.SkipDirs {
				if strings.EqualFold(name, skipDir) {
					return filepath.SkipDir
				}
			}
			if !opts.IncludeHidden && isHidden(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() && entry.Type()&os.ModeSymlink == 0 {
			return nil
		}

		relPath := filepath.ToSlash(relForDepth)
		if !d.matchesFilters(relPath, opts) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			if opts.ErrorHandler != nil {
				return opts.ErrorHandler(path, err)
			}
			return err
		}
		files = append(files, FileEntry{Rel: relPath, Path: path, Size: info.Size()})

		if opts.ProgressCallback != nil && len(files)%100 == 0 {
			opts.ProgressCallback(len(files), -1, path)
		}
		return nil
	}

	if err := filepath.WalkDir(basePath, walkFunc); err != nil {
		return nil, fmt.Errorf("discovery walk failed: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })

	if opts.ProgressCallback != nil {
		opts.ProgressCallback(len(files), len(files), "discovery complete")
	}

	return files, nil
}

// matchesFilters checks if a file matches all the configured filters
func (d *DiscoveryEngine) matchesFilters(relPath string, opts DiscoveryOptions) bool {
	// Include patterns (must match at least one if specified)
	if len(opts.IncludePatterns) > 0 && !MatchesAny(relPath, opts.IncludePatterns) {
		return false
	}

	if len(opts.ExcludePatterns) > 0 && MatchesAny(relPath, opts.ExcludePatterns) {
		return false
	}

	if !opts.IncludeHidden && isHidden(filepath.Base(relPath)) {
		return false
	}

	return true
}

// MatchesAny checks if path matches any of the given patterns.
// Matching ignores case; Source content is case-insensitive on disk.
func MatchesAny(path string, patterns []string) bool {
	lowerPath := strings.ToLower(filepath.ToSlash(path))
	for _, pattern := range patterns {
		// Check if original pattern started with ./ or .\ (indicates "root only" intent)
		isRootOnly := strings.HasPrefix(pattern, "./") || strings.HasPrefix(pattern, ".\\")

		normalizedPattern := strings.ReplaceAll(pattern, "\\", "/")
		normalizedPattern = filepath.ToSlash(filepath.Clean(normalizedPattern))
		normalizedPattern = strings.ToLower(normalizedPattern)

		if matched, err := doublestar.Match(normalizedPattern, lowerPath); err == nil && matched {
			return true
		}

		// Simple patterns like "*.nut" also match on the base name
		if !isRootOnly && !strings.Contains(normalizedPattern, "/") {
			filename := filepath.Base(lowerPath)
			if matched, err := doublestar.Match(normalizedPattern, filename); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Glob returns the files under basePath matching a doublestar pattern,
// ignoring case, sorted. Unreadable subdirectories are skipped.
func Glob(basePath, pattern string) ([]string, error) {
	fsys := os.DirFS(basePath)
	matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly(), doublestar.WithCaseInsensitive())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(basePath, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// isHidden reports whether a file or directory name is dot-prefixed
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && len(name) > 1
}

func calculateDepth(relPath string, isDir bool) int {
	if relPath == "" || relPath == "." {
		return 0
	}
	normalized := filepath.ToSlash(relPath)
	normalized = strings.Trim(normalized, "/")
	if normalized == "" {
		return 0
	}
	segments := strings.Split(normalized, "/")
	if !isDir && len(segments) > 0 {
		return len(segments) - 1
	}
	return len(segments)
}
