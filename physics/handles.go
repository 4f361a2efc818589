package physics

import (
	"fmt"
	"strings"
)

// Handles are issued by a Space when an object is created. They are never
// reused by the Space that issued them and zero is never issued.
type (
	BodyHandle     uint32
	ColliderHandle uint32
	JointHandle    uint32
)

func (h BodyHandle) Valid() bool     { return h != 0 }
func (h ColliderHandle) Valid() bool { return h != 0 }
func (h JointHandle) Valid() bool    { return h != 0 }

type BodyKind uint8

const (
	BodyDynamic BodyKind = iota
	BodyStatic
	BodyKinematic
)

var bodyKindNames = map[BodyKind]string{
	BodyDynamic:   "dynamic",
	BodyStatic:    "static",
	BodyKinematic: "kinematic",
}

func (k BodyKind) String() string {
	if s, ok := bodyKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("BodyKind(%d)", uint8(k))
}

func ParseBodyKind(s string) (BodyKind, error) {
	return parseKind(s, bodyKindNames, BodyDynamic, "body kind")
}

type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeCircle
	ShapeSegment
	ShapePolygon
)

var shapeKindNames = map[ShapeKind]string{
	ShapeBox:     "box",
	ShapeCircle:  "circle",
	ShapeSegment: "segment",
	ShapePolygon: "polygon",
}

func (k ShapeKind) String() string {
	if s, ok := shapeKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ShapeKind(%d)", uint8(k))
}

func ParseShapeKind(s string) (ShapeKind, error) {
	return parseKind(s, shapeKindNames, ShapeBox, "shape")
}

type JointKind uint8

const (
	// JointPivot lets the bodies rotate freely around a shared point.
	JointPivot JointKind = iota
	// JointPin keeps the anchors at their initial distance.
	JointPin
	// JointSlide keeps the anchor distance within [Min, Max].
	JointSlide
	// JointGroove keeps AnchorB on the GrooveA-GrooveB segment of body A.
	JointGroove
	// JointSpring is a damped spring between the anchors.
	JointSpring
	// JointWeld pins the anchors together and locks relative rotation.
	JointWeld
)

var jointKindNames = map[JointKind]string{
	JointPivot:  "pivot",
	JointPin:    "pin",
	JointSlide:  "slide",
	JointGroove: "groove",
	JointSpring: "spring",
	JointWeld:   "weld",
}

func (k JointKind) String() string {
	if s, ok := jointKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("JointKind(%d)", uint8(k))
}

func ParseJointKind(s string) (JointKind, error) {
	return parseKind(s, jointKindNames, JointPivot, "joint kind")
}

func parseKind[K comparable](s string, names map[K]string, def K, what string) (K, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	for k, name := range names {
		if name == s {
			return k, nil
		}
	}
	return def, fmt.Errorf("%w: unknown %s %q", ErrInvalidConfig, what, s)
}
