package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/srcprune/internal/contenttest"
)

type reportDoc struct {
	Operation string `json:"operation"`
	Commit    bool   `json:"commit"`
	Files     int    `json:"files"`
	Items     []struct {
		Path   string `json:"path"`
		Kind   string `json:"kind"`
		Status string `json:"status"`
	} `json:"items"`
	Warnings []struct {
		Code string `json:"code"`
	} `json:"warnings"`
}

func decodeReport(t *testing.T, out string) reportDoc {
	t.Helper()
	var doc reportDoc
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	return doc
}

func addonFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	contenttest.WriteFile(t, root, "models/props/barrel.mdl", contenttest.Model{Textures: []string{"barrel"}, CDMaterials: []string{"models/props"}}.Bytes())
	contenttest.WriteString(t, root, "materials/models/props/barrel.vmt", `"VertexLitGeneric" { "$basetexture" "models/props/barrel" }`)
	contenttest.WriteString(t, root, "materials/models/props/barrel.vtf", "vtf")
	contenttest.WriteString(t, root, "lua/autorun/init.lua", `print("hello")`)
	return root
}

func TestUnusedCommand(t *testing.T) {
	root := addonFixture(t)

	out, err := execRoot(t, []string{"unused", root, "--format", "json", "--no-progress"})
	require.NoError(t, err)
	doc := decodeReport(t, out)
	assert.Equal(t, "unused", doc.Operation)
	assert.False(t, doc.Commit)
	assert.Equal(t, 3, doc.Files)
	assert.True(t, contenttest.Exists(root, "models/props/barrel.mdl"))

	out, err = execRoot(t, []string{"unused", root, "--format", "json", "--kinds", "model"})
	require.NoError(t, err)
	doc = decodeReport(t, out)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "model", doc.Items[0].Kind)

	_, err = execRoot(t, []string{"--no-op", "unused", root, "--commit"})
	require.NoError(t, err)
	assert.True(t, contenttest.Exists(root, "models/props/barrel.mdl"))

	out, err = execRoot(t, []string{"unused", root, "--commit"})
	require.NoError(t, err)
	assert.Contains(t, out, "srcprune unused (committed)")
	assert.False(t, contenttest.Exists(root, "models/props/barrel.mdl"))
	assert.False(t, contenttest.Exists(root, "materials/models/props/barrel.vtf"))
	assert.True(t, contenttest.Exists(root, "lua/autorun/init.lua"))
}

func TestUnusedCommand_Errors(t *testing.T) {
	_, err := execRoot(t, []string{"unused", filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	_, err = execRoot(t, []string{"unused", t.TempDir(), "--kinds", "shader"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")

	_, err = execRoot(t, []string{"unused", t.TempDir(), "--format", "xml"})
	assert.Error(t, err)

	bad := t.TempDir()
	contenttest.WriteString(t, bad, ".srcprune.yaml", "report:\n  format: pdf\n")
	_, err = execRoot(t, []string{"unused", bad})
	assert.Equal(t, 2, exitCode(err))
}

func TestUnusedCommand_ProjectConfig(t *testing.T) {
	root := addonFixture(t)
	contenttest.WriteString(t, root, ".srcprune.yaml", "report:\n  format: json\n")

	out, err := execRoot(t, []string{"unused", root})
	require.NoError(t, err)
	assert.Equal(t, 3, decodeReport(t, out).Files)
}

const cliMap = `world
{
	"classname" "worldspawn"
	solid { side { "material" "CONCRETE/FLOOR" } }
}
entity
{
	"classname" "ambient_generic"
	"message" "ambient/wind.wav"
}
`

func TestMapCommand(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	dest := filepath.Join(dir, "out")
	contenttest.WriteString(t, content, "materials/concrete/floor.vmt", `"LightmappedGeneric" { "$basetexture" "concrete/floor" }`)
	contenttest.WriteString(t, content, "materials/concrete/floor.vtf", "vtf")
	first := contenttest.WriteString(t, dir, "src/maps/first.vmf", cliMap)
	second := contenttest.WriteString(t, dir, "src/maps/second.vmf", cliMap)

	out, err := execRoot(t, []string{"map", content, first, "--dest", dest, "--format", "json"})
	require.NoError(t, err)
	doc := decodeReport(t, out)
	assert.Equal(t, "map", doc.Operation)
	assert.Equal(t, 2, doc.Files)
	require.Len(t, doc.Warnings, 1)
	assert.Equal(t, "unresolved_reference", doc.Warnings[0].Code)
	assert.False(t, contenttest.Exists(dest, "materials/concrete/floor.vmt"))

	out, err = execRoot(t, []string{"map", content, first, second, "--dest", dest, "--commit", "--strict"})
	require.Error(t, err)
	assert.Equal(t, 3, exitCode(err))
	assert.Equal(t, 2, strings.Count(out, "srcprune map (committed)"))
	assert.True(t, contenttest.Exists(dest, "materials/concrete/floor.vmt"))
	assert.True(t, contenttest.Exists(dest, "materials/concrete/floor.vtf"))

	_, err = execRoot(t, []string{"map", content, first})
	assert.Error(t, err, "--dest is required")

	_, err = execRoot(t, []string{"map", content, first, "--dest", dest, "--nodraw", "../tools/nodraw"})
	assert.Error(t, err)
}

func TestReportOutputFile(t *testing.T) {
	root := addonFixture(t)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	out, err := execRoot(t, []string{"unused", root, "--format", "json", "--output", reportPath})
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, 3, decodeReport(t, string(data)).Files)
}

func TestGamefilesCommand(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	game := filepath.Join(dir, "game")
	contenttest.WriteString(t, content, "materials/shipped/a.vtf", "a")
	contenttest.WriteString(t, content, "materials/custom/b.vtf", "b")
	contenttest.WriteFile(t, game, "pak01_dir.vpk", contenttest.PackPaths(2, "materials/shipped/a.vtf"))

	out, err := execRoot(t, []string{"gamefiles", content, "--game", game, "--commit", "--format", "yaml"})
	require.NoError(t, err)
	assert.Contains(t, out, "operation: gamefiles")
	assert.Contains(t, out, "materials/shipped")
	assert.False(t, contenttest.Exists(content, "materials/shipped/a.vtf"))
	assert.True(t, contenttest.Exists(content, "materials/custom/b.vtf"))

	_, err = execRoot(t, []string{"gamefiles", content})
	assert.Error(t, err)
}

func TestModelformatsCommand(t *testing.T) {
	root := t.TempDir()
	contenttest.WriteString(t, root, "models/a.dx90.vtx", "x")
	contenttest.WriteString(t, root, "models/a.sw.vtx", "x")

	out, err := execRoot(t, []string{"modelformats", root, "--format", "json"})
	require.NoError(t, err)
	doc := decodeReport(t, out)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "models/a.sw.vtx", doc.Items[0].Path)
	assert.Equal(t, "unused", doc.Items[0].Status)
}

func TestArchiveListCommand(t *testing.T) {
	game := t.TempDir()
	contenttest.WriteFile(t, game, "hl2/hl2_textures_dir.vpk", contenttest.PackPaths(2, "materials/a.vtf", "materials/b.vtf"))

	out, err := execRoot(t, []string{"archive", "list", "--game", game})
	require.NoError(t, err)
	assert.Contains(t, out, "hl2_textures_dir.vpk")
	assert.Contains(t, out, "2 distinct paths")

	out, err = execRoot(t, []string{"archive", "list", "--game", game, "--paths"})
	require.NoError(t, err)
	assert.Equal(t, "materials/a.vtf\nmaterials/b.vtf\n", out)

	_, err = execRoot(t, []string{"archive", "list", "--game", filepath.Join(game, "nope")})
	assert.Equal(t, 4, exitCode(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := execRoot(t, []string{"version"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "srcprune "))

	out, err = execRoot(t, []string{"version", "--format", "json"})
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "goVersion")

	out, err = execRoot(t, []string{"version", "--extended"})
	require.NoError(t, err)
	assert.Contains(t, out, "Config schema:")
}
