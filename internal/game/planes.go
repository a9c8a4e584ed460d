package game

import (
	"fmt"
	"sort"

	"github.com/zeusync/bricksmash/internal/core/models"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"github.com/zeusync/bricksmash/internal/engine"
)

// Surface is the registry's record of a detected plane. Its placeholder entity
// is a projection of this record and is resynchronised on every update.
type Surface struct {
	ID        models.AnchorID
	Center    physics.Vec3
	Extent    physics.Vec2
	Alignment engine.PlaneAlignment
	Entity    models.EntityID
}

// PlaneRegistry mirrors the tracking engine's detected planes as static
// placeholders that projectiles can collide with.
type PlaneRegistry struct {
	eng      engine.Engine
	cfg      PlaneConfig
	logger   log.Log
	pub      publisher
	surfaces map[models.AnchorID]*Surface
	byEntity map[models.EntityID]models.AnchorID
}

func NewPlaneRegistry(eng engine.Engine, cfg PlaneConfig, logger log.Log, pub publisher) *PlaneRegistry {
	return &PlaneRegistry{
		eng:      eng,
		cfg:      cfg,
		logger:   logger.With(log.String("component", "planes")),
		pub:      pub,
		surfaces: make(map[models.AnchorID]*Surface),
		byEntity: make(map[models.EntityID]models.AnchorID),
	}
}

// OnSurfaceDetected registers a plane and spawns its placeholder. A repeated
// id is treated as an update.
func (r *PlaneRegistry) OnSurfaceDetected(id models.AnchorID, plane engine.PlaneInfo) error {
	if plane.Alignment == engine.AlignVertical && !r.cfg.IncludeVertical {
		return nil
	}
	if _, ok := r.surfaces[id]; ok {
		return r.OnSurfaceUpdated(id, plane)
	}

	s := &Surface{ID: id, Center: plane.Center, Extent: plane.Extent, Alignment: plane.Alignment}
	entity, err := r.eng.Spawn(engine.SpawnSpec{
		Name:      "surface:" + string(id),
		Kind:      models.KindSurface,
		Geometry:  r.geometry(s),
		Material:  engine.Material{Color: r.cfg.Color, Opacity: r.cfg.Opacity},
		Body:      physics.Static(physics.ShapePlane),
		Parent:    engine.ParentWorld,
		Transform: r.placement(s),
	})
	if err != nil {
		return fmt.Errorf("spawn placeholder for surface %s: %w", id, err)
	}
	s.Entity = entity
	r.surfaces[id] = s
	r.byEntity[entity] = id

	r.logger.Debug("surface detected",
		log.String("surface", string(id)),
		log.Float64("width", plane.Extent.X),
		log.Float64("depth", plane.Extent.Y))
	_ = r.pub.publish(EventSurfaceDetected, SurfaceEvent{Surface: id, Center: s.Center, Extent: s.Extent})
	return nil
}

// OnSurfaceUpdated resizes and moves an existing placeholder. Unknown ids are ignored.
func (r *PlaneRegistry) OnSurfaceUpdated(id models.AnchorID, plane engine.PlaneInfo) error {
	s, ok := r.surfaces[id]
	if !ok {
		return nil
	}
	next := *s
	next.Center = plane.Center
	next.Extent = plane.Extent
	if err := r.eng.Reshape(s.Entity, r.geometry(&next), r.placement(&next)); err != nil {
		return fmt.Errorf("reshape surface %s: %w", id, err)
	}
	*s = next
	_ = r.pub.publish(EventSurfaceUpdated, SurfaceEvent{Surface: id, Center: s.Center, Extent: s.Extent})
	return nil
}

// OnSurfaceRemoved drops the record and its placeholder. Unknown ids are ignored.
func (r *PlaneRegistry) OnSurfaceRemoved(id models.AnchorID) error {
	s, ok := r.surfaces[id]
	if !ok {
		return nil
	}
	delete(r.surfaces, id)
	delete(r.byEntity, s.Entity)
	_ = r.pub.publish(EventSurfaceRemoved, SurfaceEvent{Surface: id, Center: s.Center, Extent: s.Extent})
	if err := r.eng.Remove(s.Entity); err != nil {
		return fmt.Errorf("remove surface %s: %w", id, err)
	}
	return nil
}

// Clear removes every placeholder.
func (r *PlaneRegistry) Clear() {
	for id := range r.surfaces {
		if err := r.OnSurfaceRemoved(id); err != nil {
			r.logger.Warn("clear surface", log.String("surface", string(id)), log.Error(err))
		}
	}
}

func (r *PlaneRegistry) Get(id models.AnchorID) (Surface, bool) {
	s, ok := r.surfaces[id]
	if !ok {
		return Surface{}, false
	}
	return *s, true
}

// IsSurface reports whether entity is one of the registry's placeholders.
func (r *PlaneRegistry) IsSurface(entity models.EntityID) bool {
	_, ok := r.byEntity[entity]
	return ok
}

func (r *PlaneRegistry) Len() int { return len(r.surfaces) }

// Surfaces lists records ordered by id.
func (r *PlaneRegistry) Surfaces() []Surface {
	out := make([]Surface, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *PlaneRegistry) geometry(s *Surface) engine.Geometry {
	return engine.Plane(s.Extent, r.cfg.Thickness)
}

func (r *PlaneRegistry) placement(s *Surface) physics.Mat4 {
	return physics.Translation(s.Center.Sub(physics.V3(0, r.cfg.SinkDepth, 0)))
}
