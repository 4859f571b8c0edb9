// Package pathfinder provides path safety and file discovery over content
// trees and game installations.
package pathfinder

// PathConstraint defines boundaries for path operations
type PathConstraint interface {
	Contains(path string) bool
	Root() string
	Type() ConstraintType
}

// ConstraintType represents different types of path constraints
type ConstraintType string

const (
	ConstraintContentRoot ConstraintType = "content_root"
	ConstraintGameRoot    ConstraintType = "game_root"
)

// FileEntry is one discovered regular file
type FileEntry struct {
	// Rel is the slash-separated path relative to the discovery base
	Rel  string `json:"rel"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// DiscoveryOptions configures file discovery behavior
type DiscoveryOptions struct {
	IncludePatterns  []string
	ExcludePatterns  []string
	SkipDirs         []string
	MaxDepth         int
	FollowSymlinks   bool
	IncludeHidden    bool
	ErrorHandler     ErrorHandlerFunc
	ProgressCallback ProgressFunc
}

// ErrorHandlerFunc handles errors during directory walking. Returning nil
// skips the failing entry.
type ErrorHandlerFunc func(path string, err error) error

// ProgressFunc reports progress during discovery. total is -1 while unknown.
type ProgressFunc func(processed int, total int, currentPath string)
