package physics

import "github.com/jakecoffman/cp"

type colliderPair struct{ a, b ColliderHandle }

func pairOf(a, b ColliderHandle) colliderPair {
	if b < a {
		a, b = b, a
	}
	return colliderPair{a, b}
}

func (s *Space) setupHandlers() {
	handler := s.space.NewCollisionHandler(collisionTypeCollider, collisionTypeCollider)
	handler.UserData = s
	handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		sp, ok := userData.(*Space)
		if !ok || sp == nil {
			return true
		}
		return sp.begin(arb)
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
		sp, ok := userData.(*Space)
		if !ok || sp == nil {
			return
		}
		sp.separate(arb)
	}
}

func (s *Space) begin(arb *cp.Arbiter) bool {
	shapeA, shapeB := arb.Shapes()
	a, okA := s.shapes[shapeA]
	b, okB := s.shapes[shapeB]
	if !okA || !okB {
		return true
	}
	if s.filter != nil && !s.filter(a, b) {
		s.rejected[pairOf(a, b)] = struct{}{}
		return false
	}
	s.record(ContactEvent{Started: true, A: a, B: b, Sensor: s.colliders[a].sensor || s.colliders[b].sensor})
	return true
}

func (s *Space) separate(arb *cp.Arbiter) {
	if s.removing {
		return
	}
	shapeA, shapeB := arb.Shapes()
	a, okA := s.shapes[shapeA]
	b, okB := s.shapes[shapeB]
	if !okA || !okB {
		return
	}
	if _, vetoed := s.rejected[pairOf(a, b)]; vetoed {
		delete(s.rejected, pairOf(a, b))
		return
	}
	s.record(ContactEvent{Started: false, A: a, B: b, Sensor: s.colliders[a].sensor || s.colliders[b].sensor})
}

func (s *Space) record(ev ContactEvent) {
	if !s.recording {
		return
	}
	s.contacts = append(s.contacts, ev)
}

// forgetPairs drops vetoed pairs involving a removed collider.
func (s *Space) forgetPairs(h ColliderHandle) {
	for p := range s.rejected {
		if p.a == h || p.b == h {
			delete(s.rejected, p)
		}
	}
}

func (s *Space) RecordContacts(on bool) {
	s.recording = on
	if !on {
		s.contacts = nil
	}
}

func (s *Space) DrainContacts() []ContactEvent {
	out := s.contacts
	s.contacts = nil
	return out
}

// SetPairFilter installs fn for contacts that begin from now on. Pairs
// already touching are not re-evaluated.
func (s *Space) SetPairFilter(fn PairFilter) {
	s.filter = fn
}
