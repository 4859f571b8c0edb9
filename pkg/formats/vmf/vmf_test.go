package vmf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMap = `versioninfo
{
	"editorversion" "400"
}
world
{
	"id" "1"
	"classname" "worldspawn"
	"skyname" "sky_day01_01"
	solid
	{
		"id" "2"
		side
		{
			"id" "1"
			"material" "TOOLS/TOOLSNODRAW"
		}
		side
		{
			"id" "2"
			"material" "BRICK/BRICKWALL001A"
		}
	}
	hidden
	{
		solid
		{
			side { "material" "CONCRETE/FLOOR01" }
		}
	}
}
entity
{
	"classname" "prop_static"
	"model" "models/props/crate.mdl"
	"skin" "0"
	connections
	{
		"OnTrigger" "relay,Trigger,,0,-1"
	}
}
hidden
{
	entity
	{
		"classname" "func_instance"
		"file" "instances/door.vmf"
	}
}
entity
{
	"classname" "func_brush"
	"model" "*3"
	solid
	{
		side { "material" "GLASS/WINDOW01" }
	}
}
`

func TestRead(t *testing.T) {
	m, err := Read(strings.NewReader(sampleMap))
	require.NoError(t, err)
	require.Len(t, m.Entities, 4)

	world := m.World()
	require.NotNil(t, world)
	assert.Equal(t, "sky_day01_01", world.Get("SkyName"))
	assert.Equal(t, 1, world.Solids)

	assert.Equal(t, "prop_static", m.Entities[1].Class())
	assert.Equal(t, "models/props/crate.mdl", m.Entities[1].Get("model"))
	assert.Empty(t, m.Entities[1].Get("OnTrigger"))

	assert.Equal(t, "func_instance", m.Entities[2].Class())
	assert.Equal(t, "instances/door.vmf", m.Entities[2].Get("file"))

	var mats []string
	for _, f := range m.Faces {
		mats = append(mats, f.Material)
	}
	assert.Equal(t, []string{
		"TOOLS/TOOLSNODRAW",
		"BRICK/BRICKWALL001A",
		"CONCRETE/FLOOR01",
		"GLASS/WINDOW01",
	}, mats)
}

func TestRead_DuplicateKeys(t *testing.T) {
	m, err := Read(strings.NewReader(`entity { "classname" "logic_script" "vscripts" "a.nut" "vscripts" "b.nut" }`))
	require.NoError(t, err)
	require.Len(t, m.Entities, 1)
	assert.Len(t, m.Entities[0].Pairs, 3)
	assert.Equal(t, "a.nut", m.Entities[0].Get("vscripts"))
	assert.Nil(t, m.World())
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(strings.NewReader(`world { "classname" "worldspawn"`))
	assert.Error(t, err)
}
