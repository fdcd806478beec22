package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/starmap/internal/universe"
)

const solYAML = `
systems:
  - id: SOL
    name: Sol
    x: 0
    y: 0
    spectral_class: G
    subtype: 2
    luminosity: V
    planets:
      - id: earth
        name: Earth
        system_position: 3
        orbit_semimajor_axis: 149597871
      - id: mars
        name: Mars
        system_position: 4
  - id: ALPHACEN
    name: Alpha Centauri
    x: 3.1
    y: -2.9
    spectral_class: g
    subtype: 2
    nadir_charge: true
`

const farYAML = `
systems:
  - id: BARNARD
    name: Barnard's Star
    x: 5.9
    y: 0.1
    spectral_class: M
    subtype: 4
  - id: SOL
    name: Imposter Sol
    x: 100
    y: 100
    spectral_class: K
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseSystems(t *testing.T) {
	systems, err := parseSystems([]byte(solYAML))
	require.NoError(t, err)
	require.Len(t, systems, 2)
	assert.Equal(t, "SOL", systems[0].ID)
	assert.Len(t, systems[0].Planets, 2)
	assert.True(t, systems[1].NadirCharge)

	_, err = parseSystems([]byte("systems: [unterminated"))
	assert.Error(t, err)
}

func TestDirSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_sol.yaml", solYAML)
	writeFile(t, dir, "b_far.yml", farYAML)
	writeFile(t, dir, "notes.txt", "ignored")

	core, logs := observer.New(zap.WarnLevel)
	src := &DirSource{Dir: dir, Workers: 2, Logger: zap.New(core)}
	data, err := src.Load(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(data.Stars))
	for _, s := range data.Stars {
		ids = append(ids, s.ID())
	}
	assert.ElementsMatch(t, []string{"SOL", "ALPHACEN", "BARNARD"}, ids)
	assert.Len(t, data.Planets, 2)

	dups := logs.FilterMessage("duplicate star ID rejected").All()
	require.Len(t, dups, 1)
	assert.Equal(t, "SOL", dups[0].ContextMap()["star"])

	var sol *universe.Star
	for _, s := range data.Stars {
		if s.ID() == "SOL" {
			sol = s
		}
	}
	require.NotNil(t, sol)
	assert.Equal(t, "Sol", sol.Name(), "the first file wins")
	assert.Equal(t, "G2V", sol.StarType())
	assert.Equal(t, []string{"earth", "mars"}, sol.PlanetIDs())
}

func TestDirSource_SkipsInvalidFilesAndStars(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", solYAML)
	writeFile(t, dir, "broken.yaml", "systems: [unterminated")
	writeFile(t, dir, "bad_star.yaml", `
systems:
  - id: BAD
    spectral_class: G
    subtype: 12
  - id: ""
`)

	core, logs := observer.New(zap.WarnLevel)
	data, err := (&DirSource{Dir: dir, Logger: zap.New(core)}).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Stars, 2)
	assert.Equal(t, 1, logs.FilterMessage("skipping invalid system file").Len())
	assert.Equal(t, 2, logs.FilterMessage("skipping invalid star").Len())
}

func TestDirSource_PlanetSlotCollisions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crowded.yaml", `
systems:
  - id: CROWD
    spectral_class: G
    subtype: 2
    planets:
      - id: first
        system_position: 2
      - id: second
        system_position: 2
      - id: floater
      - id: drifter
  - id: "New Avalon, Crucis"
    spectral_class: K
`)

	core, logs := observer.New(zap.WarnLevel)
	data, err := (&DirSource{Dir: dir, Logger: zap.New(core)}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Stars, 1)
	assert.Equal(t, 1, logs.FilterMessage("skipping invalid star").Len())

	crowd := data.Stars[0]
	assert.Equal(t, []string{"floater", "first", "drifter"}, crowd.PlanetIDs())

	ids := make([]string, 0, len(data.Planets))
	for _, p := range data.Planets {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []string{"first", "floater", "drifter"}, ids)

	skipped := logs.FilterMessage("skipping invalid planet").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "second", skipped[0].ContextMap()["planet"])
}

func TestDirSource_Overrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sol.yaml", solYAML)
	writeFile(t, dir, "overrides/01_base.toml", `
[[system]]
id = "SOL"
name = "Old Sol"
zenith_charge = true

[[system]]
id = "NOWHERE"
name = "ghost"
`)
	writeFile(t, dir, "overrides/02_later.toml", `
[[system]]
id = "SOL"
name = "New Sol"
`)

	core, logs := observer.New(zap.WarnLevel)
	data, err := (&DirSource{Dir: dir, Logger: zap.New(core)}).Load(context.Background())
	require.NoError(t, err)

	var sol *universe.Star
	for _, s := range data.Stars {
		if s.ID() == "SOL" {
			sol = s
		}
	}
	require.NotNil(t, sol)
	assert.Equal(t, "New Sol", sol.Name())
	assert.True(t, sol.ZenithCharge())
	assert.False(t, sol.NadirCharge())
	assert.Equal(t, 1, logs.FilterMessage("override for unknown star").Len())
}

func TestDirSource_CustomOverridesDir(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	writeFile(t, dir, "sol.yaml", solYAML)
	writeFile(t, other, "o.toml", "[[system]]\nid = \"ALPHACEN\"\nnadir_charge = false\n")

	data, err := (&DirSource{Dir: dir, OverridesDir: other}).Load(context.Background())
	require.NoError(t, err)
	for _, s := range data.Stars {
		if s.ID() == "ALPHACEN" {
			assert.False(t, s.NadirCharge())
		}
	}
}

func TestDirSource_Errors(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "missing"), nil).Load(context.Background())
	assert.Error(t, err)

	empty := t.TempDir()
	_, err = NewDirSource(empty, nil).Load(context.Background())
	assert.ErrorContains(t, err, "no star systems")

	dir := t.TempDir()
	writeFile(t, dir, "sol.yaml", solYAML)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDirSource(dir, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
