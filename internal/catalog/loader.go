package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starmap/internal/universe"
)

// DefaultLoadWorkers bounds concurrent file parsing when DirSource.Workers is unset.
const DefaultLoadWorkers = 4

// yamlSystemFile is the top-level YAML structure for star system files.
type yamlSystemFile struct {
	Systems []yamlSystem `yaml:"systems"`
}

// yamlSystem is the YAML representation of one star and its planets.
type yamlSystem struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	X             float64      `yaml:"x"`
	Y             float64      `yaml:"y"`
	SpectralClass string       `yaml:"spectral_class"`
	Subtype       int          `yaml:"subtype"`
	Luminosity    string       `yaml:"luminosity"`
	NadirCharge   bool         `yaml:"nadir_charge"`
	ZenithCharge  bool         `yaml:"zenith_charge"`
	Planets       []yamlPlanet `yaml:"planets"`
}

// yamlPlanet is the YAML representation of a planet.
type yamlPlanet struct {
	ID                 string  `yaml:"id"`
	Name               string  `yaml:"name"`
	SystemPosition     int     `yaml:"system_position"`
	OrbitSemimajorAxis float64 `yaml:"orbit_semimajor_axis"`
}

// tomlOverrideFile is the structure of a per-system override file. Only the
// fields present in the file replace the loaded values.
type tomlOverrideFile struct {
	System []tomlOverride `toml:"system"`
}

type tomlOverride struct {
	ID           string   `toml:"id"`
	Name         *string  `toml:"name"`
	NadirCharge  *bool    `toml:"nadir_charge"`
	ZenithCharge *bool    `toml:"zenith_charge"`
	Luminosity   *string  `toml:"luminosity"`
	X            *float64 `toml:"x"`
	Y            *float64 `toml:"y"`
}

// parseSystems decodes a YAML system file.
//
// Postcondition: Returns the systems in file order or a non-nil error.
func parseSystems(data []byte) ([]yamlSystem, error) {
	var file yamlSystemFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing system YAML: %w", err)
	}
	return file.Systems, nil
}

// DirSource loads a catalog from a directory of YAML system files, then
// applies TOML overrides from OverridesDir.
type DirSource struct {
	// Dir holds *.yaml / *.yml system files.
	Dir string
	// OverridesDir holds *.toml override files. Empty means Dir/overrides.
	// A missing directory is not an error.
	OverridesDir string
	// Workers bounds concurrent file parsing. Zero means DefaultLoadWorkers.
	Workers int
	Logger  *zap.Logger
}

// NewDirSource creates a DirSource for dir with default settings.
func NewDirSource(dir string, logger *zap.Logger) *DirSource {
	return &DirSource{Dir: dir, Logger: logger}
}

func (s *DirSource) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DirSource) overridesDir() string {
	if s.OverridesDir != "" {
		return s.OverridesDir
	}
	return filepath.Join(s.Dir, "overrides")
}

// Load reads every system file concurrently. Files that cannot be parsed and
// systems that fail validation are logged and skipped; a system ID seen a
// second time is rejected in favour of the one from the earlier file.
//
// Precondition: s.Dir must be a readable directory.
// Postcondition: Returns the loaded data, or an error if the directory cannot
// be read, ctx is cancelled, or no valid system was found.
func (s *DirSource) Load(ctx context.Context) (*Data, error) {
	files, err := listFiles(s.Dir, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("reading catalog directory %s: %w", s.Dir, err)
	}

	log := s.logger()
	workers := s.Workers
	if workers <= 0 {
		workers = DefaultLoadWorkers
	}

	parsed := make([][]yamlSystem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("skipping unreadable system file", zap.String("file", path), zap.Error(err))
				return nil
			}
			systems, err := parseSystems(data)
			if err != nil {
				log.Warn("skipping invalid system file", zap.String("file", path), zap.Error(err))
				return nil
			}
			parsed[i] = systems
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading systems: %w", err)
	}

	var systems []yamlSystem
	seen := make(map[string]string)
	for i, batch := range parsed {
		for _, sys := range batch {
			if first, dup := seen[sys.ID]; dup {
				log.Warn("duplicate star ID rejected",
					zap.String("star", sys.ID),
					zap.String("file", files[i]),
					zap.String("first", first),
				)
				continue
			}
			seen[sys.ID] = files[i]
			systems = append(systems, sys)
		}
	}

	if err := s.applyOverrides(systems); err != nil {
		return nil, err
	}

	data := buildData(systems, log)
	if len(data.Stars) == 0 {
		return nil, fmt.Errorf("no star systems found in %s", s.Dir)
	}
	return data, nil
}

// applyOverrides applies every override file in sorted path order, so a later
// file wins over an earlier one for the same field.
func (s *DirSource) applyOverrides(systems []yamlSystem) error {
	dir := s.overridesDir()
	files, err := listFiles(dir, ".toml")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading overrides directory %s: %w", dir, err)
	}

	log := s.logger()
	index := make(map[string]int, len(systems))
	for i, sys := range systems {
		index[sys.ID] = i
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable override file", zap.String("file", path), zap.Error(err))
			continue
		}
		var file tomlOverrideFile
		if err := toml.Unmarshal(data, &file); err != nil {
			log.Warn("skipping invalid override file", zap.String("file", path), zap.Error(err))
			continue
		}
		for _, o := range file.System {
			i, ok := index[o.ID]
			if !ok {
				log.Warn("override for unknown star", zap.String("star", o.ID), zap.String("file", path))
				continue
			}
			o.apply(&systems[i])
		}
	}
	return nil
}

func (o tomlOverride) apply(sys *yamlSystem) {
	if o.Name != nil {
		sys.Name = *o.Name
	}
	if o.NadirCharge != nil {
		sys.NadirCharge = *o.NadirCharge
	}
	if o.ZenithCharge != nil {
		sys.ZenithCharge = *o.ZenithCharge
	}
	if o.Luminosity != nil {
		sys.Luminosity = *o.Luminosity
	}
	if o.X != nil {
		sys.X = *o.X
	}
	if o.Y != nil {
		sys.Y = *o.Y
	}
}

// buildData converts parsed systems into domain types, logging and skipping
// anything that fails validation.
func buildData(systems []yamlSystem, log *zap.Logger) *Data {
	data := &Data{}
	planetIDs := make(map[string]bool)
	for _, sys := range systems {
		star, err := universe.NewStar(universe.StarParams{
			ID:            sys.ID,
			Name:          sys.Name,
			X:             sys.X,
			Y:             sys.Y,
			SpectralClass: universe.ParseSpectralClass(sys.SpectralClass),
			Subtype:       sys.Subtype,
			Luminosity:    universe.Luminosity(strings.TrimSpace(sys.Luminosity)),
			NadirCharge:   sys.NadirCharge,
			ZenithCharge:  sys.ZenithCharge,
		})
		if err != nil {
			log.Warn("skipping invalid star", zap.String("star", sys.ID), zap.Error(err))
			continue
		}
		data.Stars = append(data.Stars, star)

		for _, yp := range sys.Planets {
			if planetIDs[yp.ID] {
				log.Warn("duplicate planet ID rejected", zap.String("planet", yp.ID), zap.String("star", sys.ID))
				continue
			}
			planet, err := universe.NewPlanet(universe.PlanetParams{
				ID:                 yp.ID,
				Name:               yp.Name,
				SystemPosition:     yp.SystemPosition,
				OrbitSemimajorAxis: yp.OrbitSemimajorAxis,
			}, star)
			if err != nil {
				log.Warn("skipping invalid planet", zap.String("planet", yp.ID), zap.String("star", sys.ID), zap.Error(err))
				continue
			}
			planetIDs[yp.ID] = true
			data.Planets = append(data.Planets, planet)
		}
	}
	return data
}

// listFiles returns the regular files in dir with one of the given suffixes,
// sorted by path.
func listFiles(dir string, suffixes ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				files = append(files, filepath.Join(dir, name))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
