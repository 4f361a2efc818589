package main

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/cpsync/ecs"
	"github.com/milk9111/cpsync/ecs/component"
	"github.com/milk9111/cpsync/ecs/entity"
	"github.com/milk9111/cpsync/ecs/system"
	"github.com/milk9111/cpsync/physics"
	"github.com/milk9111/cpsync/prefabs"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	pushImpulse = 3.0
)

type Game struct {
	sceneName  string
	configName string
	debug      bool
	camera     system.Camera

	world     *ecs.World
	space     *physics.Space
	physics   *system.PhysicsSystem
	scheduler *ecs.Scheduler
	names     map[string]ecs.Entity
	watcher   *prefabs.Watcher

	lastUpdate time.Time
	frameTime  time.Duration
}

func NewGame(sceneName, configName string, zoom float64, debug bool) (*Game, error) {
	g := &Game{
		sceneName:  sceneName,
		configName: configName,
		debug:      debug,
		camera:     system.Camera{Y: 4, Zoom: zoom, FlipY: true},
	}
	if err := g.load(); err != nil {
		return nil, err
	}
	return g, nil
}

// load builds a fresh world, space and physics system from the scene and
// config specs.
func (g *Game) load() error {
	cfgSpec, err := prefabs.LoadPhysicsConfig(g.configName)
	if err != nil {
		return err
	}
	space, err := physics.NewSpace(cfgSpec.EngineConfig())
	if err != nil {
		return err
	}

	world := ecs.NewWorld()
	names, scene, err := entity.LoadScene(world, g.sceneName)
	if err != nil {
		return err
	}

	ps := system.NewPhysicsSystem(space, cfgSpec.SystemConfig())
	scheduler := ecs.NewScheduler()
	if scene.Script != "" {
		src, err := prefabs.LoadScript(scene.Script)
		if err != nil {
			return err
		}
		scripts, err := system.NewScriptSystem(src)
		if err != nil {
			return err
		}
		scheduler.Add(scripts)
	}
	scheduler.Add(system.NewDespawnSystem(cfgSpec.SystemConfig().FixedStep))
	scheduler.Add(ps)
	scheduler.Add(system.NewTransformSync(ps))

	g.world = world
	g.space = space
	g.physics = ps
	g.scheduler = scheduler
	g.names = names
	return nil
}

func (g *Game) reloadConfig() {
	cfgSpec, err := prefabs.LoadPhysicsConfig(g.configName)
	if err != nil {
		log.Printf("viewer: reload %s: %v", g.configName, err)
		return
	}
	g.physics.ApplyConfig(cfgSpec.SystemConfig())
	log.Printf("viewer: applied %s", g.configName)
}

func (g *Game) reloadScene() {
	prev := *g
	if err := g.load(); err != nil {
		*g = prev
		log.Printf("viewer: reload %s: %v", g.sceneName, err)
		return
	}
	log.Printf("viewer: reloaded %s", g.sceneName)
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if filepath.Base(name) == filepath.Base(g.configName) {
				g.reloadConfig()
			} else {
				g.reloadScene()
			}
		case err, ok := <-g.watcher.Errors:
			if ok {
				log.Printf("viewer: watch: %v", err)
			}
		default:
			return
		}
	}
}

func (g *Game) Update() error {
	now := time.Now()
	if !g.lastUpdate.IsZero() {
		g.frameTime = now.Sub(g.lastUpdate)
	}
	g.lastUpdate = now

	g.drainWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.physics.SetPaused(!g.physics.Config().Paused)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reloadScene()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debug = !g.debug
	}
	g.pushPlayer()

	g.scheduler.Update(g.world)
	return nil
}

// pushPlayer turns arrow keys into impulse requests on the entity named
// "player", if the scene has one.
func (g *Game) pushPlayer() {
	player, ok := g.names["player"]
	if !ok || !ecs.IsAlive(g.world, player) {
		return
	}
	var dir mgl64.Vec2
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		dir[0]--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		dir[0]++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		dir[1]++
	}
	if dir == (mgl64.Vec2{}) {
		return
	}
	req := &component.ImpulseRequest{Linear: dir.Mul(pushImpulse)}
	if err := ecs.Add(g.world, player, component.ImpulseRequestComponent.Kind(), req); err != nil {
		log.Printf("viewer: push player: %v", err)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0x10, 0x10, 0x18, 0xff})

	system.DrawPhysicsDebug(g.space.CPSpace(), screen, g.camera)
	g.drawTransforms(screen)

	if g.debug {
		system.DrawPhysicsStats(screen, g.physics, g.frameTime)
	} else {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("%s  FPS: %.2f  [P] pause  [R] reload  [F1] stats", g.sceneName, ebiten.ActualFPS()))
	}
}

// drawTransforms marks each entity's render pose with a small heading line.
func (g *Game) drawTransforms(screen *ebiten.Image) {
	b := screen.Bounds()
	marker := color.RGBA{R: 255, G: 220, B: 80, A: 255}
	ecs.ForEach(g.world, component.TransformComponent.Kind(), func(_ ecs.Entity, t *component.Transform) {
		x, y := g.camera.WorldToScreen(t.X, t.Y, b.Dx(), b.Dy())
		hx, hy := g.camera.WorldToScreen(t.X+0.3*math.Cos(t.Rotation), t.Y+0.3*math.Sin(t.Rotation), b.Dx(), b.Dy())
		vector.FillRect(screen, float32(x)-2, float32(y)-2, 4, 4, marker, false)
		vector.StrokeLine(screen, float32(x), float32(y), float32(hx), float32(hy), 1, marker, false)
	})
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
