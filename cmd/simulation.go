package main

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/firecat2d/firecat/models"
	"github.com/firecat2d/firecat/shape"
	"github.com/firecat2d/firecat/vector"
)

type simulationConfig struct {
	WorldSize float32
	BodyCount int

	// The maximum radius of a body.
	BodySize float32

	// The speed of a body, in world units per second.
	BodySpeed float32

	Seed int64
}

type movingBody struct {
	id       uint32
	velocity vector.Vec2
}

// simulation moves random bodies inside a world, bounces them on the world
// bounds and pushes colliding bodies apart.
type simulation struct {
	world     *models.World
	worldSize float32
	rand      *rand.Rand
	bodies    []movingBody
	contacts  []models.Contact
	results   []uint32

	statsMutex   sync.Mutex
	frames       int
	contactCount int
	rayHits      int
	regionHits   int
	maxFrameTime time.Duration
}

func newSimulation(world *models.World, conf simulationConfig) (*simulation, error) {
	s := &simulation{
		world:     world,
		worldSize: conf.WorldSize,
		rand:      rand.New(rand.NewSource(conf.Seed)),
		bodies:    make([]movingBody, 0, conf.BodyCount),
	}

	for i := 0; i < conf.BodyCount; i++ {
		body, err := s.spawn(conf.BodySize)
		if err != nil {
			return nil, errors.New("spawning body failed").
				WithTag("world_id", world.ID).
				WithTag("body_index", i).
				Wrap(err)
		}

		angle := s.rand.Float32() * 2 * math.Pi
		body.velocity = vector.New(conf.BodySpeed, 0).Rotate(angle)
		s.bodies = append(s.bodies, body)
	}

	return s, nil
}

func (s *simulation) spawn(size float32) (movingBody, error) {
	radius := size/2 + s.rand.Float32()*size/2
	center := vector.New(
		size+s.rand.Float32()*(s.worldSize-2*size),
		size+s.rand.Float32()*(s.worldSize-2*size),
	)

	var sh shape.Shape
	var err error

	switch shape.Type(s.rand.Intn(3)) {
	case shape.TypeCircle:
		sh, err = shape.NewCircle(center, radius)

	case shape.TypeRect:
		sh, err = shape.RectFromDims(2*radius, radius+s.rand.Float32()*radius, center)

	default:
		sh, err = shape.PolygonFromSides(3+s.rand.Intn(6), center, radius)
	}
	if err != nil {
		return movingBody{}, err
	}

	id, err := s.world.Add(sh)
	if err != nil {
		return movingBody{}, err
	}
	return movingBody{id: id}, nil
}

// step advances the simulation by dt seconds.
func (s *simulation) step(dt float32) {
	start := time.Now()

	for i := range s.bodies {
		s.move(&s.bodies[i], dt)
	}

	s.contacts = s.world.Contacts(s.contacts[:0])
	for _, c := range s.contacts {
		if c.Response.Depth <= 0 {
			continue
		}

		half := c.Response.Normal.Mul(c.Response.Depth / 2)
		s.push(c.A, half.Invert())
		s.push(c.B, half)
	}

	s.results = s.world.QueryRay(s.randomPoint(), s.randomPoint(), s.results[:0])
	rayHits := len(s.results)

	center := s.randomPoint()
	extent := vector.Splat(s.worldSize / 8)
	results, err := s.world.QueryRegion(center.Sub(extent), center.Add(extent), s.results[:0])
	if err != nil {
		logs.Warn(errors.New("region query failed").Wrap(err))
	}
	s.results = results

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.frames++
	s.contactCount += len(s.contacts)
	s.rayHits += rayHits
	s.regionHits += len(s.results)
	if frameTime := time.Since(start); frameTime > s.maxFrameTime {
		s.maxFrameTime = frameTime
	}
}

func (s *simulation) move(b *movingBody, dt float32) {
	body, ok := s.world.Body(b.id)
	if !ok {
		return
	}

	min, max := body.Shape.AABB()
	if (min.X < 0 && b.velocity.X < 0) || (max.X > s.worldSize && b.velocity.X > 0) {
		b.velocity.X = -b.velocity.X
	}
	if (min.Y < 0 && b.velocity.Y < 0) || (max.Y > s.worldSize && b.velocity.Y > 0) {
		b.velocity.Y = -b.velocity.Y
	}

	s.push(b.id, b.velocity.Mul(dt))
}

func (s *simulation) push(id uint32, delta vector.Vec2) {
	if err := s.world.Move(id, delta); err != nil {
		logs.Warn(errors.New("moving body failed").Wrap(err))
	}
}

func (s *simulation) randomPoint() vector.Vec2 {
	return vector.New(
		s.rand.Float32()*s.worldSize,
		s.rand.Float32()*s.worldSize,
	)
}

func (s *simulation) startSummaryWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logSummary(interval)
			return

		case <-ticker.C:
			s.logSummary(interval)
		}
	}
}

func (s *simulation) logSummary(interval time.Duration) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	if s.frames == 0 {
		return
	}

	logs.WithTag("world_id", s.world.ID).
		WithTag("time_interval", interval).
		WithTag("bodies", s.world.BodyCount()).
		WithTag("frames", s.frames).
		WithTag("contacts", s.contactCount).
		WithTag("ray_hits", s.rayHits).
		WithTag("region_hits", s.regionHits).
		WithTag("max_frame_time", s.maxFrameTime).
		Info("simulation summary")

	s.frames = 0
	s.contactCount = 0
	s.rayHits = 0
	s.regionHits = 0
	s.maxFrameTime = 0
}
