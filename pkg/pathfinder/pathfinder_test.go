package pathfinder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafetyValidator_ValidatePath(t *testing.T) {
	validator := NewSafetyValidator()
	validator.SetAllowSymlinks(true)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid path", "/tmp/test", false},
		{"empty path", "", true},
		{"traversal attempt", "/tmp/../etc/passwd", true},
		{"dots inside a name", "/tmp/a..b/c", false},
		{"current dir", ".", false},
		{"relative path", "test/file.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRootConstraint(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "addon")
	require.NoError(t, os.MkdirAll(root, 0o755))

	c, err := NewContentRootConstraint(root)
	require.NoError(t, err)
	assert.Equal(t, ConstraintContentRoot, c.Type())
	assert.True(t, c.Contains(filepath.Join(root, "materials", "x.vmt")))
	assert.True(t, c.Contains(filepath.Join(root, "..addon", "x")))
	assert.False(t, c.Contains(filepath.Join(tmpDir, "other", "x.vmt")))

	_, err = NewGameRootConstraint(filepath.Join(tmpDir, "missing"))
	assert.Error(t, err)

	validator := NewSafetyValidator()
	validator.SetConstraint(c)
	assert.NoError(t, validator.ValidatePath(filepath.Join(root, "models")))
	assert.Error(t, validator.ValidatePath(tmpDir))
}

func TestDiscoveryEngine_DiscoverFiles(t *testing.T) {
	tmpDir := t.TempDir()
	files := map[string]string{
		"models/props/crate.mdl":    "mdl",
		"models/props/crate.vvd":    "vvd",
		"scripts/vscripts/door.nut": "// door",
		"lua/autorun/init.LUA":      "-- init",
		".git/config":               "x",
		"materials/.hidden.vmt":     "x",
		"backup/models/old.mdl":     "old",
	}
	for rel, content := range files {
		p := filepath.Join(tmpDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	engine := NewDiscoveryEngine(nil)

	var progressed []int
	got, err := engine.DiscoverFiles(tmpDir, DiscoveryOptions{
		IncludePatterns:  []string{"**/*.mdl", "*.nut", "*.lua"},
		SkipDirs:         []string{"Backup"},
		ProgressCallback: func(processed, total int, _ string) { progressed = append(progressed, total) },
	})
	require.NoError(t, err)

	var rels []string
	for _, f := range got {
		rels = append(rels, f.Rel)
	}
	assert.Equal(t, []string{"lua/autorun/init.LUA", "models/props/crate.mdl", "scripts/vscripts/door.nut"}, rels)
	assert.Equal(t, int64(3), got[1].Size)
	assert.Equal(t, []int{3}, progressed)

	all, err := engine.DiscoverFiles(tmpDir, DiscoveryOptions{IncludeHidden: true, MaxDepth: 2})
	require.NoError(t, err)
	rels = nil
	for _, f := range all {
		rels = append(rels, f.Rel)
	}
	assert.Equal(t, []string{".git/config", "materials/.hidden.vmt"}, rels)

	_, err = engine.DiscoverFiles(filepath.Join(tmpDir, "missing"), DiscoveryOptions{})
	assert.Error(t, err)
}

func TestGlob(t *testing.T) {
	tmpDir := t.TempDir()
	for _, rel := range []string{"hl2/pak01_dir.vpk", "hl2/pak01_000.vpk", "platform/platform_misc_dir.vpk", "hl2/readme.txt", "custom/PAK02_DIR.VPK"} {
		p := filepath.Join(tmpDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	got, err := Glob(tmpDir, "**/*.vpk")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "custom", "PAK02_DIR.VPK"),
		filepath.Join(tmpDir, "hl2", "pak01_000.vpk"),
		filepath.Join(tmpDir, "hl2", "pak01_dir.vpk"),
		filepath.Join(tmpDir, "platform", "platform_misc_dir.vpk"),
	}, got)
}

func TestMatchesAny(t *testing.T) {
	assert.True(t, MatchesAny("Lua/Autorun/Init.lua", []string{"**/*.lua"}))
	assert.True(t, MatchesAny("deep/x.NUT", []string{"*.nut"}))
	assert.False(t, MatchesAny("deep/x.nut", []string{"./*.nut"}))
	assert.False(t, MatchesAny("x.txt", []string{"*.nut"}))
}
