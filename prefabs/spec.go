package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// SceneSpec lists the entities of a scene. Entities refer to each other by
// name, so declaration order does not matter.
type SceneSpec struct {
	Name     string       `yaml:"name"`
	Script   string       `yaml:"script"`
	Entities []EntitySpec `yaml:"entities"`
	Grids    []GridSpec   `yaml:"grids"`
}

// EntitySpec describes one entity. Prefab names an EntityBuildSpec file
// whose components are used as a base; Components override them by key.
type EntitySpec struct {
	Name       string         `yaml:"name"`
	Prefab     string         `yaml:"prefab"`
	Components map[string]any `yaml:"components"`
}

// GridSpec stamps Components onto Rows x Cols entities named
// "<name>_<row>_<col>", offset from the rigid body position by the grid
// spacing. Link connects horizontal and vertical neighbours with joints of
// that kind.
type GridSpec struct {
	Name       string              `yaml:"name"`
	Rows       int                 `yaml:"rows"`
	Cols       int                 `yaml:"cols"`
	SpacingX   float64             `yaml:"spacing_x"`
	SpacingY   float64             `yaml:"spacing_y"`
	Components map[string]any      `yaml:"components"`
	Link       *JointComponentSpec `yaml:"link"`
}

func LoadSceneSpec(filename string) (SceneSpec, error) {
	spec, err := LoadSpec[SceneSpec](filename)
	if err != nil {
		return spec, err
	}
	if err := spec.validate(); err != nil {
		return spec, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

func (s SceneSpec) validate() error {
	seen := make(map[string]bool)
	for i, e := range s.Entities {
		if e.Name == "" {
			continue
		}
		if seen[e.Name] {
			return fmt.Errorf("entity %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
	}
	for _, g := range s.Grids {
		if g.Name == "" {
			return fmt.Errorf("grid without a name")
		}
		if g.Rows <= 0 || g.Cols <= 0 {
			return fmt.Errorf("grid %q: rows and cols must be positive", g.Name)
		}
	}
	return nil
}

type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

// DecodeComponentSpec re-decodes a loosely typed component block into T.
func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}
