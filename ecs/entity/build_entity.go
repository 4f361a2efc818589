package entity

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/prefabs"
)

type buildContext struct {
	PrefabPath string
	// Names resolves entity references in collider and joint specs. It is
	// nil when building a single prefab.
	Names map[string]ecs.Entity
}

// entity resolves a referenced entity name. An empty name means self.
func (c *buildContext) entity(self ecs.Entity, name string) (ecs.Entity, error) {
	if name == "" {
		return self, nil
	}
	if e, ok := c.Names[name]; ok {
		return e, nil
	}
	return 0, fmt.Errorf("unknown entity %q", name)
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"name":          addName,
	"rigid_body":    addRigidBody,
	"collider":      addCollider,
	"joint":         addJoint,
	"interpolation": addInterpolation,
	"transform":     addTransform,
	"despawn":       addDespawn,
	"impulse":       addImpulse,
	"velocity":      addVelocity,
}

var componentBuildOrder = []string{
	"name",
	"rigid_body",
	"collider",
	"joint",
	"interpolation",
	"transform",
	"despawn",
	"impulse",
	"velocity",
}

func BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}

	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", prefabPath)
	}

	e := ecs.CreateEntity(w)
	ctx := &buildContext{PrefabPath: prefabPath}
	if err := buildComponents(w, e, spec.Components, ctx); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("build entity: %q: %w", prefabPath, err)
	}
	return e, nil
}

// buildComponents adds components in componentBuildOrder, then any others
// in name order.
func buildComponents(w *ecs.World, e ecs.Entity, components map[string]any, ctx *buildContext) error {
	remaining := make(map[string]any, len(components))
	for k, v := range components {
		remaining[k] = v
	}

	names := make([]string, 0, len(remaining))
	for _, name := range componentBuildOrder {
		if _, ok := remaining[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range remaining {
		if _, known := componentRegistry[name]; !known {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	for _, name := range names {
		builder, ok := componentRegistry[name]
		if !ok {
			return fmt.Errorf("no builder for component %q", name)
		}
		if err := builder(w, e, remaining[name], ctx); err != nil {
			return fmt.Errorf("add %q: %w", name, err)
		}
	}
	return nil
}

func addName(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	value, ok := raw.(string)
	if !ok {
		return fmt.Errorf("name must be a string, got %T", raw)
	}
	return ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: value})
}

func addRigidBody(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.RigidBodyComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode rigid_body spec: %w", err)
	}
	cfg, err := spec.BodyConfig()
	if err != nil {
		return err
	}
	return ecs.Add(w, e, component.RigidBodyComponent.Kind(), &component.RigidBody{BodyConfig: cfg})
}

func addCollider(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.ColliderComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode collider spec: %w", err)
	}
	cfg, err := spec.ColliderConfig()
	if err != nil {
		return err
	}
	col := &component.Collider{ColliderConfig: cfg}
	if spec.Body != "" {
		body, err := ctx.entity(e, spec.Body)
		if err != nil {
			return err
		}
		if body != e {
			col.Body = uint64(body)
		}
	}
	return ecs.Add(w, e, component.ColliderComponent.Kind(), col)
}

func addJoint(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.JointComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode joint spec: %w", err)
	}
	cfg, err := spec.JointConfig()
	if err != nil {
		return err
	}
	a, err := ctx.entity(e, spec.BodyA)
	if err != nil {
		return fmt.Errorf("body_a: %w", err)
	}
	b, err := ctx.entity(e, spec.BodyB)
	if err != nil {
		return fmt.Errorf("body_b: %w", err)
	}
	return ecs.Add(w, e, component.JointComponent.Kind(), &component.Joint{
		JointConfig: cfg,
		BodyA:       uint64(a),
		BodyB:       uint64(b),
	})
}

func addInterpolation(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.InterpolationComponent.Kind(), &component.Interpolation{})
}

func addTransform(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{})
}

func addDespawn(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.DespawnComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode despawn spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	return ecs.Add(w, e, component.DespawnComponent.Kind(), &component.Despawn{After: spec.After})
}

func addImpulse(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.ImpulseComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode impulse spec: %w", err)
	}
	return ecs.Add(w, e, component.ImpulseRequestComponent.Kind(), &component.ImpulseRequest{
		Linear:  mgl64.Vec2{spec.X, spec.Y},
		Angular: spec.Torque,
	})
}

func addVelocity(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.VelocityComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode velocity spec: %w", err)
	}
	return ecs.Add(w, e, component.VelocityRequestComponent.Kind(), &component.VelocityRequest{
		Linear:  mgl64.Vec2{spec.X, spec.Y},
		Angular: spec.AngularVelocity,
	})
}
