// Package exitcode provides standardized exit codes for srcprune
package exitcode

import (
	"errors"
	"os"

	"github.com/fulmenhq/srcprune/pkg/diag"
)

// Exit codes for srcprune CLI
const (
	Success           = 0
	GeneralError      = 1
	ConfigError       = 2
	WarningsReported  = 3
	FileSystemError   = 4
	PermissionError   = 6
	UnsupportedFormat = 8
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case WarningsReported:
		return "Completed with warnings"
	case FileSystemError:
		return "File system error"
	case PermissionError:
		return "Permission error"
	case UnsupportedFormat:
		return "Unsupported format"
	default:
		return "Unknown error"
	}
}

// FromError maps an operation error to an exit code
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, os.ErrPermission):
		return PermissionError
	case diag.IsMissingRoot(err), diag.IsDestinationCreate(err):
		return FileSystemError
	case diag.CodeOf(err) == diag.UnreadableFile:
		return UnsupportedFormat
	default:
		return GeneralError
	}
}
