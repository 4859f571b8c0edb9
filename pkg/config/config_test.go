package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{ProjectDir: t.TempDir(), SearchPaths: []string{}})
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Scripts.Patterns, cfg.Scripts.Patterns)
	assert.Equal(t, d.Models.CompanionExts, cfg.Models.CompanionExts)
	assert.Equal(t, []string{".git", "__MACOSX"}, cfg.Content.SkipDirs)
	assert.Equal(t, []string{".git", "__MACOSX"}, cfg.Archives.SkipDirs)
	assert.Equal(t, "tools/toolsnodraw", cfg.Maps.NodrawMaterial)
	assert.Equal(t, "text", cfg.Report.Format)
	assert.Empty(t, cfg.UserFile)
	assert.Empty(t, cfg.ProjectFile)
}

func TestLoad_Layers(t *testing.T) {
	userDir := t.TempDir()
	project := t.TempDir()
	writeFile(t, userDir, "srcprune.yaml", "report:\n  format: json\nmaps:\n  nodraw_material: tools/user_nodraw\n")
	path := writeFile(t, project, ".srcprune.yaml", "scripts:\n  patterns: [\"**/*.nut\"]\nmaps:\n  nodraw_material: tools/project_nodraw\n")

	cfg, err := Load(Options{ProjectDir: project, SearchPaths: []string{userDir}})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ProjectFile)
	assert.Equal(t, filepath.Join(userDir, "srcprune.yaml"), cfg.UserFile)
	assert.Equal(t, []string{"**/*.nut"}, cfg.Scripts.Patterns)
	assert.Equal(t, "tools/project_nodraw", cfg.Maps.NodrawMaterial)
	assert.Equal(t, "json", cfg.Report.Format)
}

func TestLoad_SkipDirsAreSeparate(t *testing.T) {
	project := t.TempDir()
	writeFile(t, project, ".srcprune.yaml", "archives:\n  skip_dirs: [backup]\n")

	cfg, err := Load(Options{ProjectDir: project, SearchPaths: []string{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"backup"}, cfg.Archives.SkipDirs)
	assert.Equal(t, Default().Content.SkipDirs, cfg.Content.SkipDirs)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SRCPRUNE_REPORT_FORMAT", "yaml")
	cfg, err := Load(Options{SearchPaths: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Report.Format)

	t.Setenv("SRCPRUNE_REPORT_FORMAT", "xml")
	_, err = Load(Options{SearchPaths: []string{}})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "report.format")
}

func TestLoad_InvalidProjectFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown section", "network:\n  proxy: x\n"},
		{"bad format", "report:\n  format: html\n"},
		{"wrong type", "scripts:\n  patterns: \"**/*.lua\"\n"},
		{"not yaml", "scripts: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "srcprune.yaml", tt.content)
			_, err := Load(Options{ProjectDir: dir, SearchPaths: []string{}})
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestLoad_ProjectFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "srcprune.yaml", "report:\n  format: yaml\n")
	hidden := writeFile(t, dir, ".srcprune.yml", "report:\n  format: json\n")

	cfg, err := Load(Options{ProjectDir: dir, SearchPaths: []string{}})
	require.NoError(t, err)
	assert.Equal(t, hidden, cfg.ProjectFile)
	assert.Equal(t, "json", cfg.Report.Format)
}

func TestConfigValidate(t *testing.T) {
	c := Default()
	assert.NoError(t, c.Validate())

	c.Scripts.Patterns = nil
	assert.Error(t, c.Validate())
}

func TestIsConfigError(t *testing.T) {
	assert.False(t, IsConfigError(nil))
	assert.False(t, IsConfigError(os.ErrNotExist))
	assert.True(t, IsConfigError(&Error{Path: "x", Err: os.ErrNotExist}))
	assert.Equal(t, "config x: file does not exist", (&Error{Path: "x", Err: os.ErrNotExist}).Error())
}
