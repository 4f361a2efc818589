package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

func (s *Space) CreateCollider(body BodyHandle, cfg ColliderConfig) (ColliderHandle, error) {
	entry, ok := s.bodies[body]
	if !ok {
		return 0, fmt.Errorf("%w: body %d", ErrUnknownHandle, body)
	}
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if s.cfg.MaxColliders > 0 && len(s.colliders) >= s.cfg.MaxColliders {
		return 0, fmt.Errorf("%w: %d colliders", ErrCapacity, len(s.colliders))
	}

	shape, area, unitMoment, err := newShape(entry.body, cfg)
	if err != nil {
		return 0, err
	}
	shape.SetFriction(cfg.Friction)
	shape.SetElasticity(cfg.Restitution)
	shape.SetSensor(cfg.Sensor)
	shape.SetCollisionType(collisionTypeCollider)
	shape.SetFilter(shapeFilter(cfg))

	s.nextCollider++
	h := s.nextCollider
	s.space.AddShape(shape)
	s.colliders[h] = &colliderEntry{
		shape:      shape,
		body:       body,
		sensor:     cfg.Sensor,
		area:       area,
		density:    cfg.Density,
		unitMoment: unitMoment,
	}
	s.shapes[shape] = h
	entry.colliders[h] = struct{}{}
	s.updateMass(entry)
	return h, nil
}

func (s *Space) RemoveCollider(h ColliderHandle) error {
	c, ok := s.colliders[h]
	if !ok {
		return fmt.Errorf("%w: collider %d", ErrUnknownHandle, h)
	}
	s.removing = true
	s.space.RemoveShape(c.shape)
	s.removing = false
	s.forgetPairs(h)

	delete(s.shapes, c.shape)
	delete(s.colliders, h)
	if entry, ok := s.bodies[c.body]; ok {
		delete(entry.colliders, h)
		s.updateMass(entry)
	}
	return nil
}

// newShape builds the Chipmunk shape for cfg together with its area and
// its moment of inertia per unit mass around the body origin.
func newShape(body *cp.Body, cfg ColliderConfig) (*cp.Shape, float64, float64, error) {
	off := toVector(cfg.Offset)
	switch cfg.Shape {
	case ShapeBox:
		hx, hy := cfg.HalfExtents.X(), cfg.HalfExtents.Y()
		var shape *cp.Shape
		if cfg.Offset == (mgl64.Vec2{}) {
			shape = cp.NewBox(body, 2*hx, 2*hy, 0)
		} else {
			shape = cp.NewBox2(body, cp.BB{L: off.X - hx, B: off.Y - hy, R: off.X + hx, T: off.Y + hy}, 0)
		}
		k := cp.MomentForBox(1, 2*hx, 2*hy) + off.LengthSq()
		return shape, 4 * hx * hy, k, nil
	case ShapeCircle:
		r := cfg.Radius
		k := cp.MomentForCircle(1, 0, r, off)
		return cp.NewCircle(body, r, off), math.Pi * r * r, k, nil
	case ShapeSegment:
		a, b := toVector(cfg.A.Add(cfg.Offset)), toVector(cfg.B.Add(cfg.Offset))
		length := a.Distance(b)
		area := length * 2 * cfg.Radius
		if area == 0 {
			area = length * 1e-3
		}
		mid := a.Lerp(b, 0.5)
		k := length*length/12 + mid.LengthSq()
		return cp.NewSegment(body, a, b, cfg.Radius), area, k, nil
	case ShapePolygon:
		verts, area, err := convexHull(cfg.Vertices, cfg.Offset)
		if err != nil {
			return nil, 0, 0, err
		}
		bb := boundsOf(verts)
		center := cp.Vector{X: (bb.L + bb.R) / 2, Y: (bb.B + bb.T) / 2}
		k := cp.MomentForBox(1, bb.R-bb.L, bb.T-bb.B) + center.LengthSq()
		return cp.NewPolyShapeRaw(body, len(verts), verts, 0), area, k, nil
	}
	return nil, 0, 0, fmt.Errorf("%w: %v", ErrInvalidConfig, cfg.Shape)
}

// convexHull offsets vertices into counter-clockwise order and rejects
// concave or degenerate outlines.
func convexHull(vertices []mgl64.Vec2, offset mgl64.Vec2) ([]cp.Vector, float64, error) {
	verts := make([]cp.Vector, len(vertices))
	for i, v := range vertices {
		verts[i] = toVector(v.Add(offset))
	}
	area := 0.0
	for i := range verts {
		area += verts[i].Cross(verts[(i+1)%len(verts)])
	}
	area /= 2
	if area < 0 {
		for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
		area = -area
	}
	if area == 0 {
		return nil, 0, fmt.Errorf("%w: degenerate polygon", ErrInvalidConfig)
	}
	n := len(verts)
	for i := range verts {
		a, b, c := verts[i], verts[(i+1)%n], verts[(i+2)%n]
		if b.Sub(a).Cross(c.Sub(b)) < 0 {
			return nil, 0, fmt.Errorf("%w: concave polygon", ErrInvalidConfig)
		}
	}
	return verts, area, nil
}

func boundsOf(verts []cp.Vector) cp.BB {
	bb := cp.BB{L: verts[0].X, B: verts[0].Y, R: verts[0].X, T: verts[0].Y}
	for _, v := range verts[1:] {
		bb.L = math.Min(bb.L, v.X)
		bb.B = math.Min(bb.B, v.Y)
		bb.R = math.Max(bb.R, v.X)
		bb.T = math.Max(bb.T, v.Y)
	}
	return bb
}

func shapeFilter(cfg ColliderConfig) cp.ShapeFilter {
	categories, mask := cfg.Categories, cfg.Mask
	if categories == 0 {
		categories = ^uint(0)
	}
	if mask == 0 {
		mask = ^uint(0)
	}
	return cp.ShapeFilter{Group: cfg.Group, Categories: categories, Mask: mask}
}
