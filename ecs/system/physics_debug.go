package system

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/jakecoffman/cp"
)

const (
	debugCircleSegments = 24
	debugDotSize        = 4
)

// Camera maps world units to screen pixels. X and Y are the world point
// at the centre of the screen. FlipY draws +y upwards.
type Camera struct {
	X, Y  float64
	Zoom  float64
	FlipY bool
}

func DrawPhysicsDebug(space *cp.Space, screen *ebiten.Image, cam Camera) {
	if space == nil || screen == nil {
		return
	}
	if cam.Zoom <= 0 {
		cam.Zoom = 1
	}
	b := screen.Bounds()
	drawer := &physicsDebugDrawer{
		screen: screen,
		cam:    cam,
		halfW:  float64(b.Dx()) / 2,
		halfH:  float64(b.Dy()) / 2,
	}
	cp.DrawSpace(space, drawer)
}

// DrawPhysicsStats prints engine counters and the last frame report.
func DrawPhysicsStats(screen *ebiten.Image, ps *PhysicsSystem, frameTime time.Duration) {
	if screen == nil || ps == nil {
		return
	}
	stats := ps.Engine().Stats()
	last := ps.LastReport()
	text := fmt.Sprintf("Bodies: %d\nColliders: %d\nJoints: %d\nSteps: %d (+%d)\nAlpha: %.2f\nContacts: %d\nErrors: %d\nFrame: %s",
		stats.Bodies, stats.Colliders, stats.Joints, stats.Steps, last.Steps, last.Alpha, last.Contacts, len(last.Errors), frameTime.Round(time.Microsecond))
	ebitenutil.DebugPrintAt(screen, text, 10, 10)
}

type physicsDebugDrawer struct {
	screen       *ebiten.Image
	cam          Camera
	halfW, halfH float64
}

func (d *physicsDebugDrawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	if radius <= 0 {
		return
	}
	d.drawCircle(pos, radius, outline)
	end := cp.Vector{X: pos.X + math.Cos(angle)*radius, Y: pos.Y + math.Sin(angle)*radius}
	d.drawLine(pos, end, outline)
}

func (d *physicsDebugDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	d.drawLine(a, b, fill)
}

func (d *physicsDebugDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	d.drawLine(a, b, outline)
	if radius > 0 {
		d.drawCircle(a, radius, outline)
		d.drawCircle(b, radius, outline)
	}
}

func (d *physicsDebugDrawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if count <= 0 {
		return
	}
	d.drawPolygon(verts[:count], outline)
}

func (d *physicsDebugDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	if size <= 0 {
		size = debugDotSize
	}
	x, y := d.toScreen(pos)
	half := size / 2
	c := toNRGBA(fill)
	ebitenutil.DrawLine(d.screen, x-half, y, x+half, y, c)
	ebitenutil.DrawLine(d.screen, x, y-half, x, y+half, c)
}

func (d *physicsDebugDrawer) Flags() uint {
	return cp.DRAW_SHAPES | cp.DRAW_CONSTRAINTS
}

func (d *physicsDebugDrawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1, B: 0.2, A: 0.9}
}

func (d *physicsDebugDrawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	if shape.Body() != nil && shape.Body().GetType() == cp.BODY_STATIC {
		return cp.FColor{R: 0.5, G: 0.5, B: 0.5, A: 0.5}
	}
	return cp.FColor{R: 0.1, G: 0.6, B: 0.1, A: 0.5}
}

func (d *physicsDebugDrawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.5, B: 0.1, A: 0.9}
}

func (d *physicsDebugDrawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.2, B: 0.2, A: 0.9}
}

func (d *physicsDebugDrawer) Data() interface{} {
	return nil
}

func (d *physicsDebugDrawer) drawLine(a, b cp.Vector, color cp.FColor) {
	x1, y1 := d.toScreen(a)
	x2, y2 := d.toScreen(b)
	ebitenutil.DrawLine(d.screen, x1, y1, x2, y2, toNRGBA(color))
}

func (d *physicsDebugDrawer) drawPolygon(verts []cp.Vector, color cp.FColor) {
	for i := 0; i < len(verts); i++ {
		d.drawLine(verts[i], verts[(i+1)%len(verts)], color)
	}
}

func (d *physicsDebugDrawer) drawCircle(center cp.Vector, radius float64, color cp.FColor) {
	points := make([]cp.Vector, 0, debugCircleSegments)
	for i := 0; i < debugCircleSegments; i++ {
		t := (2 * math.Pi) * (float64(i) / float64(debugCircleSegments))
		points = append(points, cp.Vector{X: center.X + math.Cos(t)*radius, Y: center.Y + math.Sin(t)*radius})
	}
	d.drawPolygon(points, color)
}

func (d *physicsDebugDrawer) toScreen(v cp.Vector) (float64, float64) {
	return d.cam.worldToScreen(v.X, v.Y, d.halfW, d.halfH)
}

// WorldToScreen maps a world point onto a screen of the given size.
func (c Camera) WorldToScreen(x, y float64, width, height int) (float64, float64) {
	if c.Zoom <= 0 {
		c.Zoom = 1
	}
	return c.worldToScreen(x, y, float64(width)/2, float64(height)/2)
}

func (c Camera) worldToScreen(x, y, halfW, halfH float64) (float64, float64) {
	sx := (x-c.X)*c.Zoom + halfW
	sy := (y - c.Y) * c.Zoom
	if c.FlipY {
		return sx, halfH - sy
	}
	return sx, halfH + sy
}

func toNRGBA(c cp.FColor) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
