package sim

import (
	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

// Scripted tracking, gesture and contact events. Each is delivered on the
// engine goroutine.

func (e *Engine) DetectPlane(id models.AnchorID, plane engine.PlaneInfo) {
	a := engine.Anchor{ID: id, Transform: physics.Translation(plane.Center), Plane: &plane}
	e.mu.Lock()
	e.anchors[id] = a
	e.mu.Unlock()
	e.emit(func(l engine.Listener) { l.AnchorAdded(a) })
}

func (e *Engine) RefinePlane(id models.AnchorID, plane engine.PlaneInfo) {
	a := engine.Anchor{ID: id, Transform: physics.Translation(plane.Center), Plane: &plane}
	e.mu.Lock()
	e.anchors[id] = a
	e.mu.Unlock()
	e.emit(func(l engine.Listener) { l.AnchorUpdated(a) })
}

func (e *Engine) LosePlane(id models.AnchorID) {
	e.mu.Lock()
	a, ok := e.anchors[id]
	delete(e.anchors, id)
	e.mu.Unlock()
	if !ok {
		a = engine.Anchor{ID: id}
	}
	e.emit(func(l engine.Listener) { l.AnchorRemoved(a) })
}

func (e *Engine) Fail(err error) {
	e.emit(func(l engine.Listener) { l.SessionFailed(err) })
}

func (e *Engine) Interrupt() {
	e.emit(func(l engine.Listener) { l.SessionInterrupted() })
}

func (e *Engine) EndInterruption() {
	e.emit(func(l engine.Listener) { l.SessionInterruptionEnded() })
}

func (e *Engine) Tap(point engine.ScreenPoint) {
	e.emit(func(l engine.Listener) { l.Tapped(point) })
}

func (e *Engine) Collide(a, b models.EntityID) {
	e.emit(func(l engine.Listener) { l.CollisionBegan(a, b) })
}
