package pathfinder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafetyValidator provides path validation and sanitization
type SafetyValidator struct {
	constraint    PathConstraint
	allowSymlinks bool
}

// NewSafetyValidator creates a new safety validator with default settings
func NewSafetyValidator() *SafetyValidator {
	return &SafetyValidator{
		allowSymlinks: false,
	}
}

// ValidatePath performs path validation
func (s *SafetyValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if err := s.detectTraversal(path); err != nil {
		return err
	}

	cleanPath := s.cleanPath(path)

	if s.constraint != nil {
		if !s.constraint.Contains(cleanPath) {
			return fmt.Errorf("path violates %s constraint", s.constraint.Type())
		}
	}

	if !s.allowSymlinks {
		if err := s.validateSymlink(cleanPath); err != nil {
			return err
		}
	}

	return nil
}

// cleanPath performs basic path cleaning and normalization
func (s *SafetyValidator) cleanPath(path string) string {
	cleanPath := filepath.Clean(path)

	if !filepath.IsAbs(cleanPath) {
		if absPath, err := filepath.Abs(cleanPath); err == nil {
			cleanPath = absPath
		}
	}

	return cleanPath
}

// detectTraversal rejects any ".." path segment
func (s *SafetyValidator) detectTraversal(path string) error {
	for _, seg := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if seg == ".." {
			return fmt.Errorf("path contains traversal sequences (..)")
		}
	}
	return nil
}

// validateSymlink rejects a path that is itself a symlink
func (s *SafetyValidator) validateSymlink(path string) error {
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("symlinks are not allowed: %s", path)
		}
	}
	return nil
}

// SetConstraint sets the path constraint for validation
func (s *SafetyValidator) SetConstraint(constraint PathConstraint) {
	s.constraint = constraint
}

// SetAllowSymlinks configures symlink handling
func (s *SafetyValidator) SetAllowSymlinks(allow bool) {
	s.allowSymlinks = allow
}

// RootConstraint keeps paths inside one directory tree
type RootConstraint struct {
	rootPath string
	kind     ConstraintType
}

// NewContentRootConstraint creates a constraint for an addon content tree
func NewContentRootConstraint(rootPath string) (*RootConstraint, error) {
	return newRootConstraint(rootPath, ConstraintContentRoot)
}

// NewGameRootConstraint creates a constraint for a game installation
func NewGameRootConstraint(rootPath string) (*RootConstraint, error) {
	return newRootConstraint(rootPath, ConstraintGameRoot)
}

func newRootConstraint(rootPath string, kind ConstraintType) (*RootConstraint, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absPath)
	}

	return &RootConstraint{rootPath: absPath, kind: kind}, nil
}

// Contains checks if the path is within the root
func (c *RootConstraint) Contains(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	relPath, err := filepath.Rel(c.rootPath, absPath)
	if err != nil {
		return false
	}

	return relPath != ".." && !strings.HasPrefix(relPath, ".."+string(filepath.Separator))
}

// Root returns the constraint root path
func (c *RootConstraint) Root() string {
	return c.rootPath
}

// Type returns the constraint type
func (c *RootConstraint) Type() ConstraintType {
	return c.kind
}
