package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/prefabs"
)

type pendingEntity struct {
	entity     ecs.Entity
	label      string
	components map[string]any
	offset     mgl64.Vec2
}

// LoadScene loads a scene spec and builds it into w.
func LoadScene(w *ecs.World, filename string) (map[string]ecs.Entity, prefabs.SceneSpec, error) {
	spec, err := prefabs.LoadSceneSpec(filename)
	if err != nil {
		return nil, spec, err
	}
	names, err := BuildScene(w, spec)
	return names, spec, err
}

// BuildScene creates every entity of spec and returns the named ones. All
// entities exist before any component is built, so references may point
// forward. On error nothing built by this call is left in w.
func BuildScene(w *ecs.World, spec prefabs.SceneSpec) (map[string]ecs.Entity, error) {
	if w == nil {
		return nil, fmt.Errorf("build scene: world is nil")
	}

	names := make(map[string]ecs.Entity)
	var pending []pendingEntity
	fail := func(err error) (map[string]ecs.Entity, error) {
		for _, p := range pending {
			ecs.DestroyEntity(w, p.entity)
		}
		return nil, fmt.Errorf("build scene %q: %w", spec.Name, err)
	}
	claim := func(name string, e ecs.Entity) error {
		if _, ok := names[name]; ok {
			return fmt.Errorf("duplicate entity name %q", name)
		}
		names[name] = e
		return nil
	}

	for i, es := range spec.Entities {
		components, err := entityComponents(es)
		if err != nil {
			return fail(fmt.Errorf("entity %d: %w", i, err))
		}
		e := ecs.CreateEntity(w)
		label := es.Name
		if label == "" {
			label = fmt.Sprintf("entity %d", i)
		}
		pending = append(pending, pendingEntity{entity: e, label: label, components: components})
		if es.Name != "" {
			if err := claim(es.Name, e); err != nil {
				return fail(err)
			}
		}
	}

	for _, g := range spec.Grids {
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				name := gridCellName(g.Name, r, c)
				e := ecs.CreateEntity(w)
				pending = append(pending, pendingEntity{
					entity:     e,
					label:      name,
					components: withName(g.Components, name),
					offset:     mgl64.Vec2{float64(c) * g.SpacingX, float64(r) * g.SpacingY},
				})
				if err := claim(name, e); err != nil {
					return fail(err)
				}
			}
		}
		if g.Link == nil {
			continue
		}
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				if c+1 < g.Cols {
					link, err := linkEntity(w, g, r, c, r, c+1)
					if err != nil {
						return fail(err)
					}
					pending = append(pending, link)
				}
				if r+1 < g.Rows {
					link, err := linkEntity(w, g, r, c, r+1, c)
					if err != nil {
						return fail(err)
					}
					pending = append(pending, link)
				}
			}
		}
	}

	ctx := &buildContext{PrefabPath: spec.Name, Names: names}
	for _, p := range pending {
		if err := buildComponents(w, p.entity, p.components, ctx); err != nil {
			return fail(fmt.Errorf("%s: %w", p.label, err))
		}
		if p.offset != (mgl64.Vec2{}) {
			if rb, ok := ecs.Get(w, p.entity, component.RigidBodyComponent.Kind()); ok {
				rb.Position = rb.Position.Add(p.offset)
			}
		}
	}
	return names, nil
}

// entityComponents merges the prefab's components with the entity's own.
// Map-valued components are merged key by key.
func entityComponents(es prefabs.EntitySpec) (map[string]any, error) {
	components := make(map[string]any)
	if es.Prefab != "" {
		base, err := prefabs.LoadEntityBuildSpec(es.Prefab)
		if err != nil {
			return nil, err
		}
		for k, v := range base.Components {
			components[k] = v
		}
	}
	for k, v := range es.Components {
		base, baseOK := components[k].(map[string]any)
		over, overOK := v.(map[string]any)
		if !baseOK || !overOK {
			components[k] = v
			continue
		}
		merged := make(map[string]any, len(base)+len(over))
		for bk, bv := range base {
			merged[bk] = bv
		}
		for key, val := range over {
			merged[key] = val
		}
		components[k] = merged
	}
	if es.Name != "" {
		components = withName(components, es.Name)
	}
	return components, nil
}

func withName(components map[string]any, name string) map[string]any {
	out := make(map[string]any, len(components)+1)
	for k, v := range components {
		out[k] = v
	}
	if _, ok := out["name"]; !ok {
		out["name"] = name
	}
	return out
}

func gridCellName(grid string, row, col int) string {
	return fmt.Sprintf("%s_%d_%d", grid, row, col)
}

// linkEntity creates a joint entity connecting two grid cells with the
// grid's link spec.
func linkEntity(w *ecs.World, g prefabs.GridSpec, r1, c1, r2, c2 int) (pendingEntity, error) {
	joint, err := prefabs.DecodeComponentSpec[map[string]any](*g.Link)
	if err != nil {
		return pendingEntity{}, fmt.Errorf("grid %q link: %w", g.Name, err)
	}
	joint["body_a"] = gridCellName(g.Name, r1, c1)
	joint["body_b"] = gridCellName(g.Name, r2, c2)
	return pendingEntity{
		entity:     ecs.CreateEntity(w),
		label:      fmt.Sprintf("%s link %d,%d-%d,%d", g.Name, r1, c1, r2, c2),
		components: map[string]any{"joint": joint},
	}, nil
}
