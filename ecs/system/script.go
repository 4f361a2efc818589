package system

import (
	"fmt"
	"log"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
)

// ScriptSystem runs a tengo script once per frame. The script reads
// `bodies` and `frame` and pushes impulses either by appending maps with
// id, x, y and torque keys to `impulses` or by calling
// engine.impulse(id, x, y, torque). Each impulse becomes an ImpulseRequest
// on the addressed entity.
type ScriptSystem struct {
	compiled *tengo.Compiled
	frame    int64
	queued   []scriptImpulse
}

type scriptImpulse struct {
	entity ecs.Entity
	linear mgl64.Vec2
	torque float64
}

func NewScriptSystem(src []byte) (*ScriptSystem, error) {
	s := &ScriptSystem{}
	script := tengo.NewScript(src)
	_ = script.Add("bodies", []interface{}{})
	_ = script.Add("frame", 0)
	_ = script.Add("impulses", []interface{}{})
	_ = script.Add("engine", s.engineModule())
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}
	s.compiled = compiled
	return s, nil
}

func (s *ScriptSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	if err := s.Run(w); err != nil {
		log.Printf("script: frame %d: %v", s.frame, err)
	}
}

// Run executes the script against the current body state and queues the
// impulses it asks for. Impulses addressed to dead entities are logged and
// skipped.
func (s *ScriptSystem) Run(w *ecs.World) error {
	s.frame++
	s.queued = s.queued[:0]

	if err := s.compiled.Set("bodies", scriptBodies(w)); err != nil {
		return err
	}
	if err := s.compiled.Set("frame", s.frame); err != nil {
		return err
	}
	if err := s.compiled.Set("impulses", []interface{}{}); err != nil {
		return err
	}
	if err := s.compiled.Run(); err != nil {
		return err
	}

	for _, item := range s.compiled.Get("impulses").Array() {
		m, ok := item.(map[string]interface{})
		if !ok {
			return fmt.Errorf("impulses entry %v is not a map", item)
		}
		s.queued = append(s.queued, scriptImpulse{
			entity: ecs.Entity(toInt64(m["id"])),
			linear: mgl64.Vec2{toFloat(m["x"]), toFloat(m["y"])},
			torque: toFloat(m["torque"]),
		})
	}

	for _, imp := range s.queued {
		req := &component.ImpulseRequest{Linear: imp.linear, Angular: imp.torque}
		if prev, ok := ecs.Get(w, imp.entity, component.ImpulseRequestComponent.Kind()); ok {
			req.Linear = req.Linear.Add(prev.Linear)
			req.Angular += prev.Angular
		}
		if err := ecs.Add(w, imp.entity, component.ImpulseRequestComponent.Kind(), req); err != nil {
			log.Printf("script: impulse for entity %s: %v", imp.entity, err)
		}
	}
	return nil
}

func (s *ScriptSystem) engineModule() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	values["impulse"] = &tengo.UserFunction{Name: "impulse", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		imp := scriptImpulse{
			entity: ecs.Entity(toInt64(tengo.ToInterface(args[0]))),
			linear: mgl64.Vec2{toFloat(tengo.ToInterface(args[1])), toFloat(tengo.ToInterface(args[2]))},
		}
		if len(args) > 3 {
			imp.torque = toFloat(tengo.ToInterface(args[3]))
		}
		s.queued = append(s.queued, imp)
		return tengo.TrueValue, nil
	}}
	return &tengo.ImmutableMap{Value: values}
}

func scriptBodies(w *ecs.World) []interface{} {
	var out []interface{}
	ecs.ForEach(w, component.RigidBodyComponent.Kind(), func(e ecs.Entity, rb *component.RigidBody) {
		name := ""
		if n, ok := ecs.Get(w, e, component.NameComponent.Kind()); ok {
			name = n.Value
		}
		st := rb.State
		if !rb.Synced {
			st.Position = rb.Position
			st.Angle = rb.Angle
			st.LinearVelocity = rb.LinearVelocity
		}
		out = append(out, map[string]interface{}{
			"id":    int64(e),
			"name":  name,
			"kind":  rb.Kind.String(),
			"x":     st.Position.X(),
			"y":     st.Position.Y(),
			"vx":    st.LinearVelocity.X(),
			"vy":    st.LinearVelocity.Y(),
			"angle": st.Angle,
		})
	})
	return out
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
