package main

import (
	"flag"
	"log"
	"sort"
	"time"

	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/ecs/entity"
	"github.com/milk9111/cpsync/ecs/system"
	"github.com/milk9111/cpsync/physics"
	"github.com/milk9111/cpsync/prefabs"
)

func main() {
	sceneName := flag.String("scene", "boxes.yaml", "scene spec in prefabs/")
	configName := flag.String("config", "physics.yaml", "physics config in prefabs/")
	frames := flag.Int("frames", 300, "number of frames to run")
	dt := flag.Duration("dt", 16*time.Millisecond, "frame time passed to the physics system")
	logEvery := flag.Int("log-every", 30, "log body state every n frames (0 disables)")
	scriptName := flag.String("script", "", "tengo script in prefabs/scripts (defaults to the scene's script)")
	contacts := flag.Bool("contacts", false, "log contact events")
	flag.Parse()

	log.SetFlags(log.Lmicroseconds)

	cfgSpec, err := prefabs.LoadPhysicsConfig(*configName)
	if err != nil {
		log.Fatal(err)
	}
	space, err := physics.NewSpace(cfgSpec.EngineConfig())
	if err != nil {
		log.Fatal(err)
	}

	w := ecs.NewWorld()
	names, scene, err := entity.LoadScene(w, *sceneName)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("sim: loaded scene %q with %d entities", scene.Name, len(ecs.Entities(w)))

	ps := system.NewPhysicsSystem(space, cfgSpec.SystemConfig())
	scheduler := ecs.NewScheduler()

	script := *scriptName
	if script == "" {
		script = scene.Script
	}
	if script != "" {
		src, err := prefabs.LoadScript(script)
		if err != nil {
			log.Fatal(err)
		}
		scripts, err := system.NewScriptSystem(src)
		if err != nil {
			log.Fatal(err)
		}
		scheduler.Add(scripts)
	}
	scheduler.Add(system.NewDespawnSystem(*dt))
	scheduler.Add(&tickSystem{ps: ps, delta: *dt})
	if *contacts {
		scheduler.Add(contactLogger{names: invert(names)})
	}

	start := time.Now()
	for frame := 1; frame <= *frames; frame++ {
		scheduler.Update(w)
		if *logEvery > 0 && frame%*logEvery == 0 {
			logBodies(w, frame)
		}
	}

	stats := space.Stats()
	log.Printf("sim: %d frames, %d steps in %s (bodies %d, colliders %d, joints %d)",
		*frames, stats.Steps, time.Since(start).Round(time.Millisecond), stats.Bodies, stats.Colliders, stats.Joints)
}

// tickSystem runs the physics system with a fixed frame delta that may
// differ from its step length.
type tickSystem struct {
	ps    *system.PhysicsSystem
	delta time.Duration
}

func (s *tickSystem) Update(w *ecs.World) {
	s.ps.Tick(w, s.delta)
}

type contactLogger struct {
	names map[ecs.Entity]string
}

func (l contactLogger) Update(w *ecs.World) {
	for _, c := range w.Events().Contacts() {
		log.Printf("sim: %s %s <-> %s (sensor %v)", c.Kind, l.label(c.BodyA), l.label(c.BodyB), c.Sensor)
	}
}

func (l contactLogger) label(e ecs.Entity) string {
	if name, ok := l.names[e]; ok {
		return name
	}
	return e.String()
}

func invert(names map[string]ecs.Entity) map[ecs.Entity]string {
	out := make(map[ecs.Entity]string, len(names))
	for name, e := range names {
		out[e] = name
	}
	return out
}

func logBodies(w *ecs.World, frame int) {
	type line struct {
		name string
		st   physics.BodyState
	}
	var lines []line
	ecs.ForEach2(w, component.NameComponent.Kind(), component.RigidBodyComponent.Kind(), func(_ ecs.Entity, n *component.Name, rb *component.RigidBody) {
		if rb.Kind == physics.BodyStatic || !rb.Synced {
			return
		}
		lines = append(lines, line{name: n.Value, st: rb.State})
	})
	sort.Slice(lines, func(i, j int) bool { return lines[i].name < lines[j].name })

	for _, l := range lines {
		log.Printf("sim: frame %d %-10s pos (%.3f, %.3f) angle %.3f vel (%.3f, %.3f) sleeping %v",
			frame, l.name, l.st.Position.X(), l.st.Position.Y(), l.st.Angle,
			l.st.LinearVelocity.X(), l.st.LinearVelocity.Y(), l.st.Sleeping)
	}
}
