package models

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/firecat2d/firecat/collision"
	"github.com/firecat2d/firecat/featureflag"
	"github.com/firecat2d/firecat/shape"
	"github.com/firecat2d/firecat/spatial"
	"github.com/firecat2d/firecat/vector"
	"github.com/google/uuid"
)

const (
	ErrTypeUnknownEntity = "unknown_entity"
)

type WorldConfig struct {
	// The width and height of the indexed area. Bodies outside of it are
	// indexed in the border cells.
	WorldSize uint32

	// The width and height of a grid cell. WorldSize must be a multiple of it.
	CellSize uint32

	// The biggest body id. It bounds the number of bodies in the world.
	MaxEntityID uint32

	FeatureFlags featureflag.FeatureFlag
}

// World represents a set of bodies indexed in a uniform grid. It runs the
// broad phase on the grid and the narrow phase on the candidates it returns.
//
// Shapes are owned by the caller. A shape must not be modified while a world
// method runs, and Update must be called after a shape moved outside of Move.
type World struct {
	ID string

	mutex    sync.Mutex
	grid     spatial.Partition[uint32]
	ids      *IDPool[uint32]
	bodies   map[uint32]*Body
	response collision.Response
	region   shape.Rect

	broadPhase      bool
	exactQueries    bool
	contactResponse bool

	frameHandlerIDs *IDPool[uint32]
	frameHandlers   map[uint32]func()
	frameMutex      sync.RWMutex
}

func NewWorld(conf WorldConfig) (*World, error) {
	grid, err := spatial.NewGrid(conf.WorldSize, conf.CellSize, conf.MaxEntityID)
	if err != nil {
		return nil, errors.New("creating world grid failed").Wrap(err)
	}

	id := uuid.NewString()

	w := &World{
		ID:              id,
		grid:            spatial.PartitionWithMetrics[uint32](grid, id),
		ids:             NewIDPool(conf.MaxEntityID),
		bodies:          make(map[uint32]*Body),
		broadPhase:      true,
		exactQueries:    true,
		contactResponse: true,
		frameHandlerIDs: NewIDPool[uint32](math.MaxUint32),
		frameHandlers:   make(map[uint32]func()),
	}

	conf.FeatureFlags.IfSet(featureflag.FlagDisableBroadPhase, func() {
		w.broadPhase = false
	})
	conf.FeatureFlags.IfSet(featureflag.FlagDisableExactQueryFilter, func() {
		w.exactQueries = false
	})
	conf.FeatureFlags.IfSet(featureflag.FlagDisableContactResponse, func() {
		w.contactResponse = false
	})

	return w, nil
}

// Add registers a body with the given shape and returns its id.
func (w *World) Add(s shape.Shape) (uint32, error) {
	if s == nil {
		return 0, errors.New("body shape is nil").
			WithType(shape.ErrTypeInvalidShape).
			WithTag("world_id", w.ID)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	id, err := w.ids.New()
	if err != nil {
		return 0, errors.New("adding body failed").
			WithTag("world_id", w.ID).
			Wrap(err)
	}

	w.bodies[id] = &Body{ID: id, Shape: s}
	w.index(id, s)

	instrumentIncreaseBodyGauge(s.Type().String())
	logs.WithTag("world_id", w.ID).
		WithTag("entity_id", id).
		WithTag("shape", s.String()).
		Debug("body added")
	return id, nil
}

// Update re-indexes a body after its shape changed.
func (w *World) Update(id uint32) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	body, err := w.body(id)
	if err != nil {
		return err
	}

	w.index(id, body.Shape)
	return nil
}

// Move translates a body shape and re-indexes it.
func (w *World) Move(id uint32, delta vector.Vec2) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	body, err := w.body(id)
	if err != nil {
		return err
	}

	body.Shape.Translate(delta)
	w.index(id, body.Shape)
	return nil
}

// Remove removes a body and frees its id. Removing an unknown body does
// nothing.
func (w *World) Remove(id uint32) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	body, ok := w.bodies[id]
	if !ok {
		return
	}

	w.grid.Remove(id)
	delete(w.bodies, id)

	if err := w.ids.Reuse(id); err != nil {
		logs.Warn(errors.New("reusing body id failed").
			WithTag("world_id", w.ID).
			Wrap(err))
	}

	instrumentDecreaseBodyGauge(body.Shape.Type().String())
	logs.WithTag("world_id", w.ID).
		WithTag("entity_id", id).
		Debug("body removed")
}

func (w *World) Body(id uint32) (*Body, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	b, ok := w.bodies[id]
	return b, ok
}

// Bodies appends the bodies of the world to dst.
func (w *World) Bodies(dst []*Body) []*Body {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	for _, b := range w.bodies {
		dst = append(dst, b)
	}
	return dst
}

func (w *World) BodyCount() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return len(w.bodies)
}

// Contacts appends every pair of colliding bodies to dst. Each pair is reported
// once.
func (w *World) Contacts(dst []Contact) []Contact {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	var tests, contacts int

	for id, body := range w.bodies {
		w.forEachCandidate(func() []uint32 { return w.grid.QueryEntity(id) }, func(other *Body) {
			if other.ID <= id {
				return
			}

			tests++
			if contact, ok := w.collide(body, other); ok {
				contacts++
				dst = append(dst, contact)
			}
		})
	}

	instrumentNarrowPhase(tests, contacts)
	return dst
}

// QueryPoint appends the ids of the bodies containing p to dst.
func (w *World) QueryPoint(p vector.Vec2, dst []uint32) []uint32 {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.forEachCandidate(func() []uint32 { return w.grid.QueryPosition(p) }, func(b *Body) {
		if !w.exactQueries || b.Shape.Contains(p) {
			dst = append(dst, b.ID)
		}
	})
	return dst
}

// QueryRegion appends the ids of the bodies overlapping the given region to
// dst.
func (w *World) QueryRegion(min, max vector.Vec2, dst []uint32) ([]uint32, error) {
	if !(min.X < max.X) || !(min.Y < max.Y) {
		return dst, errors.New("query region min is not lower than max").
			WithType(shape.ErrTypeInvalidShape).
			WithTag("world_id", w.ID).
			WithTag("min", min.String()).
			WithTag("max", max.String())
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.region.Min = min
	w.region.Max = max

	w.forEachCandidate(func() []uint32 { return w.grid.QueryAABB(min, max) }, func(b *Body) {
		if !w.exactQueries || shape.Check(&w.region, b.Shape, nil) {
			dst = append(dst, b.ID)
		}
	})
	return dst, nil
}

// QueryRay appends the ids of the bodies indexed in the cells crossed by the
// segment from start to end to dst. Results are not filtered by shape.
func (w *World) QueryRay(start, end vector.Vec2, dst []uint32) []uint32 {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.forEachCandidate(func() []uint32 { return w.grid.QueryLine(start, end) }, func(b *Body) {
		dst = append(dst, b.ID)
	})
	return dst
}

// Neighbors appends the ids of the bodies sharing a grid cell with the given
// body to dst, the body itself excluded.
func (w *World) Neighbors(id uint32, dst []uint32) []uint32 {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if _, ok := w.bodies[id]; !ok {
		return dst
	}

	w.forEachCandidate(func() []uint32 { return w.grid.QueryEntity(id) }, func(b *Body) {
		if b.ID != id {
			dst = append(dst, b.ID)
		}
	})
	return dst
}

func (w *World) DebugInfo() spatial.DebugInfo {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.grid.DebugInfo()
}

// HandleFrame registers a function called on each frame dispatched by
// DispatchFrames.
func (w *World) HandleFrame(h func()) (cancel func()) {
	w.frameMutex.Lock()
	defer w.frameMutex.Unlock()

	id, err := w.frameHandlerIDs.New()
	if err != nil {
		logs.Warn(errors.New("registering frame handler failed").
			WithTag("world_id", w.ID).
			Wrap(err))
		return func() {}
	}
	w.frameHandlers[id] = h

	return func() {
		w.frameMutex.Lock()
		defer w.frameMutex.Unlock()

		if _, ok := w.frameHandlers[id]; !ok {
			return
		}
		delete(w.frameHandlers, id)

		if err := w.frameHandlerIDs.Reuse(id); err != nil {
			logs.Warn(errors.New("reusing frame handler id failed").
				WithTag("world_id", w.ID).
				Wrap(err))
		}
	}
}

// DispatchFrames calls the frame handlers every frameDuration until ctx is
// done.
func (w *World) DispatchFrames(ctx context.Context, frameDuration time.Duration) {
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.frameMutex.RLock()
			for _, h := range w.frameHandlers {
				h()
			}
			w.frameMutex.RUnlock()
		}
	}
}

func (w *World) body(id uint32) (*Body, error) {
	body, ok := w.bodies[id]
	if !ok {
		return nil, errors.New("unknown body").
			WithType(ErrTypeUnknownEntity).
			WithTag("world_id", w.ID).
			WithTag("entity_id", id)
	}
	return body, nil
}

func (w *World) index(id uint32, s shape.Shape) {
	min, max := s.AABB()
	w.grid.Insert(id, min, max)
}

// forEachCandidate calls do with the bodies returned by the broad phase, or
// with every body when the broad phase is disabled.
func (w *World) forEachCandidate(broadPhase func() []uint32, do func(b *Body)) {
	if !w.broadPhase {
		for _, b := range w.bodies {
			do(b)
		}
		return
	}

	for _, id := range broadPhase() {
		do(w.bodies[id])
	}
}

func (w *World) collide(a, b *Body) (Contact, bool) {
	var res *collision.Response
	if w.contactResponse {
		res = &w.response
	}

	if !shape.Check(a.Shape, b.Shape, res) {
		return Contact{}, false
	}

	contact := Contact{A: a.ID, B: b.ID}
	if res != nil {
		contact.Response = *res
	}
	return contact, true
}
