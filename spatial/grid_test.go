package spatial

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/firecat2d/firecat/vector"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

const (
	entityA uint32 = 9594
	entityB uint32 = 5823
	entityC uint32 = 4082
)

func newTestGrid(t *testing.T) *Grid[uint32, uint32] {
	grid, err := NewGrid[uint32, uint32](1024, 16, (1<<16)-1)
	require.NoError(t, err)
	return grid
}

// insertABC inserts entities covering cells (0,0)-(1,1), (1,1)-(2,2) and
// (0,2)-(1,3).
func insertABC(grid *Grid[uint32, uint32]) {
	grid.Insert(entityA, vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 20, Y: 20})
	grid.Insert(entityB, vector.Vec2{X: 20, Y: 20}, vector.Vec2{X: 35, Y: 35})
	grid.Insert(entityC, vector.Vec2{X: 0, Y: 35}, vector.Vec2{X: 30, Y: 50})
}

func TestGridCreation(t *testing.T) {
	t.Run("sizes", func(t *testing.T) {
		grid := newTestGrid(t)

		require.Equal(t, uint32(1024), grid.WorldSize())
		require.Equal(t, uint32(16), grid.CellSize())
		require.Equal(t, uint32(64), grid.GridSize())
		require.Equal(t, uint32(65535), grid.MaxEntityID())
		require.Len(t, grid.cells, 64*64)
		require.Len(t, grid.entities, 65536)
		require.Zero(t, grid.Len())

		for _, entity := range grid.entities {
			require.Equal(t, entityRecord[uint32]{}, entity)
		}
		for _, cell := range grid.cells {
			require.Empty(t, cell)
		}
	})

	t.Run("world size not divisible by cell size", func(t *testing.T) {
		grid, err := NewGrid[uint32, uint32](1000, 16, 10)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeInvalidGrid))
		require.Nil(t, grid)
	})

	t.Run("zero sizes", func(t *testing.T) {
		_, err := NewGrid[int32, uint16](0, 16, 10)
		require.True(t, errors.IsType(err, ErrTypeInvalidGrid))

		_, err = NewGrid[int32, uint16](64, -16, 10)
		require.True(t, errors.IsType(err, ErrTypeInvalidGrid))

		require.Panics(t, func() { MustNewGrid[uint32, uint32](64, 0, 10) })
	})

	t.Run("small types", func(t *testing.T) {
		grid := MustNewGrid[uint8, uint8](128, 8, 255)
		grid.Insert(255, vector.Vec2{X: 120, Y: 120}, vector.Vec2{X: 500, Y: 500})

		require.Equal(t, []uint8{255}, grid.QueryPosition(vector.Vec2{X: 127, Y: 127}))
		require.Len(t, grid.entities, 256)
	})
}

func TestGridInsert(t *testing.T) {
	t.Run("inserts entities", func(t *testing.T) {
		grid := newTestGrid(t)

		grid.Insert(entityA, vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 20, Y: 20})
		require.Equal(t, []uint32{entityA}, grid.QueryEntity(entityA))

		grid.Insert(entityB, vector.Vec2{X: -10, Y: -10}, vector.Vec2{X: 10, Y: 10})
		require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryPosition(vector.Vec2{}))
		require.Equal(t, 2, grid.Len())
		require.True(t, grid.Contains(entityA))
		require.False(t, grid.Contains(entityC))
	})

	t.Run("updates entities", func(t *testing.T) {
		grid := newTestGrid(t)

		a := vector.Vec2{X: 0, Y: 0}
		b := vector.Vec2{X: 20, Y: 20}
		grid.Insert(entityA, a, b)
		grid.Insert(entityB, vector.Vec2{X: -10, Y: -10}, vector.Vec2{X: 10, Y: 10})

		delta := vector.Vec2{X: -10, Y: -20}
		a, b = a.Add(delta), b.Add(delta)

		// Not reinserted yet, the index still holds the old bounds.
		require.Equal(t, []uint32{entityA}, grid.QueryPosition(vector.Vec2{X: 20, Y: 20}))

		grid.Insert(entityA, a, b)
		require.Empty(t, grid.QueryPosition(vector.Vec2{X: 20, Y: 20}))
		require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryPosition(vector.Vec2{X: -5, Y: -5}))
		require.Equal(t, 2, grid.Len())
	})

	t.Run("inserting the same bounds twice is idempotent", func(t *testing.T) {
		grid := newTestGrid(t)
		insertABC(grid)

		before := append([]uint32(nil), grid.QueryAABB(vector.Vec2{}, vector.Vec2{X: 1024, Y: 1024})...)
		occupancy := grid.DebugInfo().Occupancy

		grid.Insert(entityB, vector.Vec2{X: 20, Y: 20}, vector.Vec2{X: 35, Y: 35})
		grid.Insert(entityB, vector.Vec2{X: 17, Y: 17}, vector.Vec2{X: 47, Y: 47})

		require.ElementsMatch(t, before, grid.QueryAABB(vector.Vec2{}, vector.Vec2{X: 1024, Y: 1024}))
		require.Equal(t, occupancy, grid.DebugInfo().Occupancy)
	})

	t.Run("record bounds match cell occupancy", func(t *testing.T) {
		grid := newTestGrid(t)
		insertABC(grid)

		grid.Insert(entityC, vector.Vec2{X: 500, Y: 600}, vector.Vec2{X: 540, Y: 610})
		grid.Remove(entityB)

		for idx, cell := range grid.cells {
			x, y := uint32(idx)%grid.gridSize, uint32(idx)/grid.gridSize

			for _, id := range []uint32{entityA, entityB, entityC} {
				entity := grid.entities[id]
				inBounds := entity.valid &&
					entity.bounds.min.x <= x && x <= entity.bounds.max.x &&
					entity.bounds.min.y <= y && y <= entity.bounds.max.y

				require.Equal(t, inBounds, contains(cell, id), "cell (%d, %d) entity %d", x, y, id)
			}
		}
	})

	t.Run("out of world bounds are clamped", func(t *testing.T) {
		grid := newTestGrid(t)

		grid.Insert(entityA, vector.Vec2{X: 2000, Y: -50}, vector.Vec2{X: 3000, Y: -10})
		require.Equal(t, []uint32{entityA}, grid.QueryPosition(vector.Vec2{X: 1023, Y: 0}))

		grid.Insert(entityB, vector.Vec2{X: float32(math.NaN()), Y: 0}, vector.Vec2{X: 1, Y: 1})
		require.Equal(t, []uint32{entityB}, grid.QueryPosition(vector.Vec2{X: 0, Y: 0}))
	})

	t.Run("id out of range panics", func(t *testing.T) {
		grid := MustNewGrid[uint32, uint16](64, 16, 10)

		require.NotPanics(t, func() { grid.Insert(10, vector.Vec2{}, vector.Vec2{}) })
		require.Panics(t, func() { grid.Insert(11, vector.Vec2{}, vector.Vec2{}) })
		require.Panics(t, func() { grid.Remove(11) })
		require.Panics(t, func() { grid.QueryEntity(11) })
	})
}

func TestGridRemove(t *testing.T) {
	grid := newTestGrid(t)

	a := [2]vector.Vec2{{X: 0, Y: 0}, {X: 20, Y: 20}}
	grid.Insert(entityA, a[0], a[1])
	grid.Insert(entityB, vector.Vec2{X: -10, Y: -10}, vector.Vec2{X: 10, Y: 10})
	require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryPosition(vector.Vec2{}))

	grid.Remove(entityB)
	require.Equal(t, []uint32{entityA}, grid.QueryAABB(a[0], a[1]))
	require.Equal(t, entityRecord[uint32]{}, grid.entities[entityB])
	require.Equal(t, 1, grid.Len())

	require.NotPanics(t, func() { grid.Remove(0) })
	require.NotPanics(t, func() { grid.Remove(entityB) })
	require.Equal(t, 1, grid.Len())
	require.Empty(t, grid.QueryEntity(entityB))
}

func TestGridQueryAABB(t *testing.T) {
	grid := newTestGrid(t)
	insertABC(grid)

	require.Equal(t, []uint32{entityA}, grid.QueryAABB(vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 0, Y: 0}))
	require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryAABB(vector.Vec2{X: 25, Y: 25}, vector.Vec2{X: 30, Y: 30}))
	require.Equal(t, []uint32{entityC}, grid.QueryAABB(vector.Vec2{X: 0, Y: 50}, vector.Vec2{X: 30, Y: 51}))
	require.Empty(t, grid.QueryAABB(vector.Vec2{X: 50, Y: 50}, vector.Vec2{X: 60, Y: 60}))

	// Negative positions are clamped.
	require.ElementsMatch(t,
		[]uint32{entityA, entityB, entityC},
		grid.QueryAABB(vector.Vec2{X: -90, Y: -90}, vector.Vec2{X: 100, Y: 100}),
	)
}

func TestGridQueryPosition(t *testing.T) {
	grid := newTestGrid(t)
	insertABC(grid)

	require.Equal(t, []uint32{entityA}, grid.QueryPosition(vector.Vec2{X: 5, Y: 5}))
	require.Equal(t, []uint32{entityB}, grid.QueryPosition(vector.Vec2{X: 35, Y: 20}))
	require.Empty(t, grid.QueryPosition(vector.Vec2{X: 40, Y: 0}))
}

func TestGridQueryEntity(t *testing.T) {
	grid := newTestGrid(t)
	insertABC(grid)

	require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryEntity(entityA))
	require.ElementsMatch(t, []uint32{entityA, entityB, entityC}, grid.QueryEntity(entityB))
	require.ElementsMatch(t, []uint32{entityB, entityC}, grid.QueryEntity(entityC))
}

func TestGridQueryLine(t *testing.T) {
	t.Run("crossing entities", func(t *testing.T) {
		grid := newTestGrid(t)
		insertABC(grid)

		require.Equal(t, []uint32{entityA}, grid.QueryLine(vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 30, Y: 10}))
		require.ElementsMatch(t,
			[]uint32{entityA, entityB, entityC},
			grid.QueryLine(vector.Vec2{X: 0, Y: 40}, vector.Vec2{X: 30, Y: 0}),
		)
		require.Empty(t, grid.QueryLine(vector.Vec2{X: 50, Y: 40}, vector.Vec2{X: 60, Y: 0}))
	})

	t.Run("diagonals", func(t *testing.T) {
		grid := newTestGrid(t)

		// Cell (32, 32).
		grid.Insert(entityA, vector.Vec2{X: 514, Y: 514}, vector.Vec2{X: 526, Y: 526})
		require.Equal(t, []uint32{entityA}, grid.QueryLine(vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 1024, Y: 1024}))
		require.Empty(t, grid.QueryLine(vector.Vec2{X: 0, Y: 100}, vector.Vec2{X: 1024, Y: 100}))
		require.Empty(t, grid.QueryLine(vector.Vec2{X: 100, Y: 0}, vector.Vec2{X: 100, Y: 1024}))

		grid.Insert(entityB, vector.Vec2{X: 509.5, Y: 509.5}, vector.Vec2{X: 514.5, Y: 514.5})
		grid.Remove(entityA)
		grid.Insert(entityC, vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 20, Y: 20})
		require.Equal(t, []uint32{entityB}, grid.QueryLine(vector.Vec2{X: 1024, Y: 0}, vector.Vec2{X: 0, Y: 1024}))
	})

	t.Run("axis aligned and degenerate lines", func(t *testing.T) {
		grid := newTestGrid(t)
		insertABC(grid)

		require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryLine(vector.Vec2{X: 24, Y: 0}, vector.Vec2{X: 24, Y: 24}))
		require.ElementsMatch(t, []uint32{entityB, entityC}, grid.QueryLine(vector.Vec2{X: 40, Y: 40}, vector.Vec2{X: 0, Y: 40}))
		require.Equal(t, []uint32{entityA}, grid.QueryLine(vector.Vec2{X: 5, Y: 5}, vector.Vec2{X: 5, Y: 5}))
	})

	t.Run("very short line crossing a cell boundary", func(t *testing.T) {
		grid := newTestGrid(t)
		grid.Insert(1, vector.Vec2{X: 17, Y: 1}, vector.Vec2{X: 20, Y: 4})
		grid.Insert(2, vector.Vec2{X: 1, Y: 497}, vector.Vec2{X: 4, Y: 500})

		require.Equal(t, []uint32{1}, grid.QueryLine(vector.Vec2{X: 15.999999, Y: 5}, vector.Vec2{X: 16.000002, Y: 5}))
		require.Equal(t, []uint32{1}, grid.QueryLine(vector.Vec2{X: 16.000002, Y: 15.999999}, vector.Vec2{X: 16.000002, Y: 16.000002}))
		require.Empty(t, grid.QueryLine(vector.Vec2{X: 15.999999, Y: 15.999999}, vector.Vec2{X: 16.000002, Y: 16.000002}))
	})

	t.Run("line leaving the grid stops", func(t *testing.T) {
		grid := newTestGrid(t)
		insertABC(grid)

		require.Equal(t, []uint32{entityA}, grid.QueryLine(vector.Vec2{X: 5, Y: 5}, vector.Vec2{X: -100, Y: 5}))
	})
}

func TestGridQueryStamps(t *testing.T) {
	grid := newTestGrid(t)
	insertABC(grid)

	t.Run("results are deduplicated across cells", func(t *testing.T) {
		res := grid.QueryAABB(vector.Vec2{}, vector.Vec2{X: 1024, Y: 1024})
		require.Len(t, res, 3)
	})

	t.Run("stamps wrap around", func(t *testing.T) {
		grid.nextQueryID = math.MaxUint32
		require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryEntity(entityA))
		require.Equal(t, uint32(0), grid.nextQueryID)

		require.ElementsMatch(t, []uint32{entityA, entityB}, grid.QueryEntity(entityA))
		require.Equal(t, uint32(2), grid.nextQueryID)
	})
}

func TestGridDebugInfo(t *testing.T) {
	grid := MustNewGrid[uint32, uint32](64, 16, 10)
	grid.Insert(1, vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 20, Y: 5})
	grid.Insert(2, vector.Vec2{X: 60, Y: 60}, vector.Vec2{X: 60, Y: 60})

	info := grid.DebugInfo()
	require.Equal(t, DebugInfo{
		WorldSize:   64,
		CellSize:    16,
		GridSize:    4,
		MaxEntityID: 10,
		EntityCount: 2,
		Occupancy: []uint32{
			1, 1, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 0,
			0, 0, 0, 1,
		},
	}, info)
}

func TestPartitionWithMetrics(t *testing.T) {
	grid := MustNewGrid[uint32, uint32](64, 16, 10)
	p := PartitionWithMetrics[uint32](grid, "test_partition")

	p.Insert(1, vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 20, Y: 5})
	p.Insert(2, vector.Vec2{X: 10, Y: 0}, vector.Vec2{X: 10, Y: 0})
	require.ElementsMatch(t, []uint32{1, 2}, p.QueryPosition(vector.Vec2{X: 1, Y: 1}))
	require.ElementsMatch(t, []uint32{1, 2}, p.QueryEntity(2))
	require.Empty(t, p.QueryAABB(vector.Vec2{X: 40, Y: 40}, vector.Vec2{X: 50, Y: 50}))
	require.ElementsMatch(t, []uint32{1, 2}, p.QueryLine(vector.Vec2{X: 0, Y: 0}, vector.Vec2{X: 30, Y: 0}))
	p.Remove(2)

	require.Equal(t, float64(2), counterValue(t, spatialUpdates.WithLabelValues("test_partition", opInsert)))
	require.Equal(t, float64(1), counterValue(t, spatialUpdates.WithLabelValues("test_partition", opRemove)))
	require.Equal(t, float64(1), counterValue(t, spatialQueries.WithLabelValues("test_partition", queryPosition)))
	require.Equal(t, float64(1), counterValue(t, spatialQueries.WithLabelValues("test_partition", queryLine)))
	require.Equal(t, uint32(1), p.DebugInfo().EntityCount)
}

func contains(ids []uint32, id uint32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
