package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/fulmenhq/srcprune/pkg/config"
	"github.com/fulmenhq/srcprune/pkg/diag"
	"github.com/fulmenhq/srcprune/pkg/exitcode"
)

// execRoot runs the production root command with args and returns its
// combined output. Flag values are reset first so runs do not bleed.
func execRoot(t *testing.T, args []string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	// Reduce log noise to capture clean command output for JSON parsing
	full := append([]string{"--log-level", "error"}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func loggerFlags(level string, json, noColor, noOp bool) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", level, "")
	cmd.Flags().Bool("json", json, "")
	cmd.Flags().Bool("no-color", noColor, "")
	cmd.Flags().Bool("no-op", noOp, "")
	return cmd
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		json    bool
		noColor bool
		noOp    bool
	}{
		{"default", "info", false, false, false},
		{"debug", "debug", false, false, false},
		{"invalid level falls back to info", "invalid", false, false, false},
		{"json", "info", true, false, false},
		{"no color", "info", false, true, false},
		{"no-op", "info", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				initializeLogger(loggerFlags(tt.level, tt.json, tt.noColor, tt.noOp))
			})
		})
	}
}

func TestRootHelp(t *testing.T) {
	out, err := execRoot(t, []string{"--help"})
	assert.NoError(t, err)
	assert.Contains(t, out, "Pruning Commands")
	assert.Contains(t, out, "Export Commands")
	assert.Contains(t, out, "Support Commands")
	for _, name := range []string{"unused", "gamefiles", "modelformats", "map", "archive", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestRootVersionFlag(t *testing.T) {
	assert.NotEmpty(t, rootCmd.Version)
	out, err := execRoot(t, []string{"--version"})
	assert.NoError(t, err)
	assert.Contains(t, out, "srcprune ")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"strict warnings", &warningsError{count: 2}, exitcode.WarningsReported},
		{"config", &config.Error{Path: "x", Err: errors.New("bad")}, exitcode.ConfigError},
		{"missing root", diag.New(diag.MissingRoot, "/x", errors.New("gone")), exitcode.FileSystemError},
		{"other", errors.New("boom"), exitcode.GeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
