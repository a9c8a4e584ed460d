// Package sim is an in-memory stand-in for the host AR engine. It keeps a flat
// scene, answers hit-tests from scripted results and delivers callbacks on its
// own goroutine, the way a real tracking engine does.
package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

var _ engine.Engine = (*Engine)(nil)

const callbackBuffer = 1024

// Entity is the sim's record of a spawned entity.
type Entity struct {
	ID       models.EntityID
	Spec     engine.SpawnSpec
	World    physics.Mat4
	Material engine.Material
	Velocity physics.Vec3
	Impulses []physics.Vec3
}

type Engine struct {
	mu       sync.Mutex
	logger   log.Log
	listener engine.Listener

	running   bool
	config    engine.SessionConfig
	nextID    uint64
	anchorSeq uint64
	entities  map[models.EntityID]*Entity
	anchors   map[models.AnchorID]engine.Anchor
	camera    engine.Camera
	hasCamera bool
	hits      map[engine.HitTestMode][]engine.HitResult
	contacts  map[[2]models.EntityID]struct{}
	removed   []models.EntityID

	callbacks chan func()
	idleMu    sync.Mutex
	idle      *sync.Cond
	pending   int
	closeOnce sync.Once
	done      chan struct{}
}

type Option func(*Engine)

func WithLogger(l log.Log) Option { return func(e *Engine) { e.logger = l } }

func WithCamera(c engine.Camera) Option {
	return func(e *Engine) {
		e.camera = c
		e.hasCamera = true
	}
}

// New creates an engine and starts its callback goroutine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:    log.NewNop(),
		entities:  make(map[models.EntityID]*Entity),
		anchors:   make(map[models.AnchorID]engine.Anchor),
		hits:      make(map[engine.HitTestMode][]engine.HitResult),
		contacts:  make(map[[2]models.EntityID]struct{}),
		camera:    engine.Camera{Transform: physics.Identity()},
		hasCamera: true,
		callbacks: make(chan func(), callbackBuffer),
		done:      make(chan struct{}),
	}
	e.idle = sync.NewCond(&e.idleMu)
	for _, opt := range opts {
		opt(e)
	}
	go e.deliverLoop()
	return e
}

// Attach sets the listener that receives every callback.
func (e *Engine) Attach(l engine.Listener) {
	e.mu.Lock()
	e.listener = l
	e.mu.Unlock()
}

// Close stops callback delivery. Pending callbacks are dropped.
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

// WaitIdle blocks until every queued callback has been handed to the listener.
func (e *Engine) WaitIdle() {
	e.idleMu.Lock()
	for e.pending > 0 {
		e.idle.Wait()
	}
	e.idleMu.Unlock()
}

func (e *Engine) track(delta int) {
	e.idleMu.Lock()
	e.pending += delta
	if e.pending == 0 {
		e.idle.Broadcast()
	}
	e.idleMu.Unlock()
}

func (e *Engine) deliverLoop() {
	for {
		select {
		case <-e.done:
			for {
				select {
				case <-e.callbacks:
					e.track(-1)
				default:
					return
				}
			}
		case fn := <-e.callbacks:
			fn()
			e.track(-1)
		}
	}
}

// emit queues a listener callback for the engine goroutine.
func (e *Engine) emit(fn func(engine.Listener)) {
	e.mu.Lock()
	l := e.listener
	e.mu.Unlock()
	if l == nil {
		return
	}
	select {
	case <-e.done:
		return
	default:
	}
	e.track(1)
	select {
	case e.callbacks <- func() { fn(l) }:
	case <-e.done:
		e.track(-1)
	}
}

func (e *Engine) StartSession(_ context.Context, cfg engine.SessionConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
	e.config = cfg
	e.logger.Debug("sim session started", log.Bool("plane_detection", cfg.PlaneDetection))
	return nil
}

func (e *Engine) PauseSession() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	return nil
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) Config() engine.SessionConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

func (e *Engine) AddAnchor(transform physics.Mat4) (models.AnchorID, error) {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return "", engine.ErrSessionNotRunning
	}
	e.anchorSeq++
	a := engine.Anchor{ID: models.AnchorID(fmt.Sprintf("anchor-%d", e.anchorSeq)), Transform: transform}
	e.anchors[a.ID] = a
	e.mu.Unlock()

	e.emit(func(l engine.Listener) { l.AnchorAdded(a) })
	return a.ID, nil
}

func (e *Engine) RemoveAnchor(id models.AnchorID) error {
	e.mu.Lock()
	a, ok := e.anchors[id]
	if !ok {
		e.mu.Unlock()
		return engine.ErrUnknownAnchor
	}
	delete(e.anchors, id)
	e.mu.Unlock()

	e.emit(func(l engine.Listener) { l.AnchorRemoved(a) })
	return nil
}

func (e *Engine) HitTest(_ engine.ScreenPoint, mode engine.HitTestMode) []engine.HitResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.HitResult, 0, len(e.hits[mode]))
	for _, h := range e.hits[mode] {
		// precise hits on removed geometry no longer land
		if h.Entity != models.NoEntity {
			if _, ok := e.entities[h.Entity]; !ok {
				continue
			}
		}
		out = append(out, h)
	}
	return out
}

// SetHitResults scripts what HitTest returns for mode until changed.
func (e *Engine) SetHitResults(mode engine.HitTestMode, results ...engine.HitResult) {
	e.mu.Lock()
	e.hits[mode] = results
	e.mu.Unlock()
}

func (e *Engine) Camera() (engine.Camera, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasCamera {
		return engine.Camera{}, engine.ErrNoCameraFrame
	}
	return e.camera, nil
}

// SetCamera moves the device. Yaw and pitch are applied about the position.
func (e *Engine) SetCamera(position physics.Vec3, yaw, pitch float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera = engine.Camera{
		Transform: physics.Translation(position).Mul(physics.RotationY(yaw)).Mul(physics.RotationX(pitch)),
		Euler:     physics.V3(pitch, yaw, 0),
	}
	e.hasCamera = true
}

// LoseCamera makes Camera fail until SetCamera is called again.
func (e *Engine) LoseCamera() {
	e.mu.Lock()
	e.hasCamera = false
	e.mu.Unlock()
}

func (e *Engine) Spawn(spec engine.SpawnSpec) (models.EntityID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	world, err := e.resolveLocked(spec)
	if err != nil {
		return models.NoEntity, err
	}
	e.nextID++
	id := models.EntityID(e.nextID)
	e.entities[id] = &Entity{ID: id, Spec: spec, World: world, Material: spec.Material}
	return id, nil
}

func (e *Engine) resolveLocked(spec engine.SpawnSpec) (physics.Mat4, error) {
	switch spec.Parent {
	case engine.ParentAnchor:
		a, ok := e.anchors[spec.Anchor]
		if !ok {
			return physics.Mat4{}, fmt.Errorf("spawn %q: %w", spec.Name, engine.ErrUnknownAnchor)
		}
		return a.Transform.Mul(spec.Transform), nil
	case engine.ParentCamera:
		return e.camera.Transform.Mul(spec.Transform), nil
	default:
		return spec.Transform, nil
	}
}

func (e *Engine) Reshape(id models.EntityID, geometry engine.Geometry, transform physics.Mat4) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.entities[id]
	if !ok {
		return engine.ErrUnknownEntity
	}
	ent.Spec.Geometry = geometry
	ent.Spec.Transform = transform
	world, err := e.resolveLocked(ent.Spec)
	if err != nil {
		return err
	}
	ent.World = world
	return nil
}

func (e *Engine) SetMaterial(id models.EntityID, material engine.Material) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.entities[id]
	if !ok {
		return engine.ErrUnknownEntity
	}
	ent.Material = material
	return nil
}

func (e *Engine) ApplyImpulse(id models.EntityID, impulse physics.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.entities[id]
	if !ok {
		return engine.ErrUnknownEntity
	}
	if ent.Spec.Body == nil || ent.Spec.Body.Kind != physics.BodyDynamic {
		return fmt.Errorf("impulse on %q: body is not dynamic", ent.Spec.Name)
	}
	mass := ent.Spec.Body.Mass
	if mass <= 0 {
		mass = 1
	}
	ent.Impulses = append(ent.Impulses, impulse)
	ent.Velocity = ent.Velocity.Add(impulse.Scale(1 / mass))
	return nil
}

func (e *Engine) Remove(id models.EntityID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.entities[id]; !ok {
		return engine.ErrUnknownEntity
	}
	delete(e.entities, id)
	for pair := range e.contacts {
		if pair[0] == id || pair[1] == id {
			delete(e.contacts, pair)
		}
	}
	e.removed = append(e.removed, id)
	return nil
}

// Entity returns a copy of the entity record.
func (e *Engine) Entity(id models.EntityID) (Entity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *ent, true
}

// Entities lists live entities of kind, ordered by id. KindUnknown lists all.
func (e *Engine) Entities(kind models.Kind) []Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entity, 0, len(e.entities))
	for _, ent := range e.entities {
		if kind == models.KindUnknown || ent.Spec.Kind == kind {
			out = append(out, *ent)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (e *Engine) Count(kind models.Kind) int {
	return len(e.Entities(kind))
}

// Removed lists entity ids in removal order.
func (e *Engine) Removed() []models.EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.EntityID(nil), e.removed...)
}

func (e *Engine) Anchors() []engine.Anchor {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]engine.Anchor, 0, len(e.anchors))
	for _, a := range e.anchors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
