package sim

import (
	"math"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

// Step advances impulsed bodies in a straight line by dt seconds and reports
// each new sphere/box overlap as a collision. There is no gravity, friction
// or response: it exists so scripted sessions can produce contacts.
func (e *Engine) Step(dt float64) int {
	type contact struct{ a, b models.EntityID }
	var began []contact

	e.mu.Lock()
	var movers, targets []*Entity
	for _, ent := range e.entities {
		if ent.Velocity != (physics.Vec3{}) {
			ent.World[3][0] += ent.Velocity.X * dt
			ent.World[3][1] += ent.Velocity.Y * dt
			ent.World[3][2] += ent.Velocity.Z * dt
			movers = append(movers, ent)
		}
		if ent.Spec.Body != nil && ent.Spec.Geometry.Kind != engine.GeometrySphere {
			targets = append(targets, ent)
		}
	}
	for _, m := range movers {
		if m.Spec.Geometry.Kind != engine.GeometrySphere {
			continue
		}
		for _, t := range targets {
			if t.ID == m.ID || !sphereHitsBox(m, t) {
				continue
			}
			key := [2]models.EntityID{m.ID, t.ID}
			if _, seen := e.contacts[key]; seen {
				continue
			}
			e.contacts[key] = struct{}{}
			began = append(began, contact{m.ID, t.ID})
		}
	}
	e.mu.Unlock()

	for _, c := range began {
		e.Collide(c.a, c.b)
	}
	return len(began)
}

func sphereHitsBox(sphere, box *Entity) bool {
	center := box.World.InverseRigid().TransformPoint(sphere.World.Translation())
	half := box.Spec.Geometry.Size.Scale(0.5)
	closest := physics.V3(
		clamp(center.X, -half.X, half.X),
		clamp(center.Y, -half.Y, half.Y),
		clamp(center.Z, -half.Z, half.Z),
	)
	return physics.Distance3(center, closest) <= sphere.Spec.Geometry.Radius
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
