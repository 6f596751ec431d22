package spatial

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/firecat2d/firecat/vector"
	"golang.org/x/exp/constraints"
)

// Regular Grid Spatial Partition
//
// A square world uniformly sub-divided in gridSize x gridSize cells. Each cell
// lists the ids of the entities whose bounding box overlaps it, an entity
// spanning several cells being listed once per cell.
//
// Positions outside of the world are clamped to the border cells, so off-world
// entities are still indexed.
//
// A Grid is not safe for concurrent use.

const (
	ErrTypeInvalidGrid      = "invalid_grid"
	ErrTypeEntityOutOfRange = "entity_out_of_range"

	defaultResultCapacity = 256
)

type cellPos[S constraints.Integer] struct {
	x S
	y S
}

type cellBounds[S constraints.Integer] struct {
	min cellPos[S]
	max cellPos[S]
}

type entityRecord[S constraints.Integer] struct {
	valid   bool
	queryID uint32
	bounds  cellBounds[S]
}

type Grid[S constraints.Integer, ID constraints.Unsigned] struct {
	worldSize   S
	cellSize    S
	gridSize    S
	maxEntityID ID

	cells       [][]ID
	entities    []entityRecord[S]
	entityCount uint32

	results     []ID
	nextQueryID uint32
}

// NewGrid creates a grid covering [0, worldSize) on both axes. worldSize must be
// a multiple of cellSize. Entity ids range from 0 to maxEntityID included.
func NewGrid[S constraints.Integer, ID constraints.Unsigned](worldSize S, cellSize S, maxEntityID ID) (*Grid[S, ID], error) {
	if worldSize <= 0 || cellSize <= 0 {
		return nil, errors.New("grid sizes must be positive").
			WithType(ErrTypeInvalidGrid).
			WithTag("world_size", worldSize).
			WithTag("cell_size", cellSize)
	}

	if worldSize%cellSize != 0 {
		return nil, errors.New("world size is not a multiple of cell size").
			WithType(ErrTypeInvalidGrid).
			WithTag("world_size", worldSize).
			WithTag("cell_size", cellSize)
	}

	gridSize := worldSize / cellSize

	return &Grid[S, ID]{
		worldSize:   worldSize,
		cellSize:    cellSize,
		gridSize:    gridSize,
		maxEntityID: maxEntityID,
		cells:       make([][]ID, int(gridSize)*int(gridSize)),
		entities:    make([]entityRecord[S], uint64(maxEntityID)+1),
		results:     make([]ID, 0, defaultResultCapacity),
		nextQueryID: 1,
	}, nil
}

// MustNewGrid is like NewGrid but panics on invalid sizes.
func MustNewGrid[S constraints.Integer, ID constraints.Unsigned](worldSize S, cellSize S, maxEntityID ID) *Grid[S, ID] {
	g, err := NewGrid(worldSize, cellSize, maxEntityID)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grid[S, ID]) WorldSize() S {
	return g.worldSize
}

func (g *Grid[S, ID]) CellSize() S {
	return g.cellSize
}

// GridSize returns the number of cells on each axis.
func (g *Grid[S, ID]) GridSize() S {
	return g.gridSize
}

func (g *Grid[S, ID]) MaxEntityID() ID {
	return g.maxEntityID
}

// Len returns the number of indexed entities.
func (g *Grid[S, ID]) Len() int {
	return int(g.entityCount)
}

// Contains reports whether the entity is indexed.
func (g *Grid[S, ID]) Contains(id ID) bool {
	return g.entity(id).valid
}

// Insert indexes the entity with the given world bounds, replacing its previous
// bounds. It does nothing when the covered cells did not change.
func (g *Grid[S, ID]) Insert(id ID, min, max vector.Vec2) {
	entity := g.entity(id)

	bounds := cellBounds[S]{
		min: g.cellAt(min),
		max: g.cellAt(max),
	}

	if entity.valid {
		if entity.bounds == bounds {
			return
		}
		g.removeFromCells(id, entity.bounds)
	} else {
		g.entityCount++
	}

	entity.valid = true
	entity.bounds = bounds

	for y := bounds.min.y; y <= bounds.max.y; y++ {
		for x := bounds.min.x; x <= bounds.max.x; x++ {
			idx := g.cellIndex(x, y)
			g.cells[idx] = append(g.cells[idx], id)
		}
	}
}

// Remove removes the entity from the grid. Removing an entity that is not
// indexed does nothing.
func (g *Grid[S, ID]) Remove(id ID) {
	entity := g.entity(id)
	if !entity.valid {
		return
	}

	g.removeFromCells(id, entity.bounds)
	*entity = entityRecord[S]{}
	g.entityCount--
}

// QueryAABB returns the entities in the cells overlapped by the given world
// bounds.
func (g *Grid[S, ID]) QueryAABB(min, max vector.Vec2) []ID {
	return g.queryCells(cellBounds[S]{
		min: g.cellAt(min),
		max: g.cellAt(max),
	})
}

// QueryPosition returns the entities in the cell containing pos.
func (g *Grid[S, ID]) QueryPosition(pos vector.Vec2) []ID {
	cell := g.cellAt(pos)
	return g.queryCells(cellBounds[S]{min: cell, max: cell})
}

// QueryEntity returns the entities sharing at least one cell with the given
// entity, the entity itself included. It returns an empty result when the
// entity is not indexed.
func (g *Grid[S, ID]) QueryEntity(id ID) []ID {
	entity := g.entity(id)
	if !entity.valid {
		g.results = g.results[:0]
		return g.results
	}
	return g.queryCells(entity.bounds)
}

// QueryLine returns the entities in the cells crossed by the segment from start
// to end. The walk starts in the cell containing start, clamped to the grid,
// and stops on the cell containing end or when it leaves the grid.
func (g *Grid[S, ID]) QueryLine(start, end vector.Vec2) []ID {
	query := g.newQuery()

	startCell := g.cellAt(start)
	endCell := g.cellAt(end)

	cellSize := float64(g.cellSize)
	gridSize := int64(g.gridSize)

	cellX := int64(startCell.x)
	cellY := int64(startCell.y)
	endX := int64(endCell.x)
	endY := int64(endCell.y)

	stepX, tDeltaX, tMaxX := lineAxis(float64(start.X), float64(end.X), cellX, endX, cellSize)
	stepY, tDeltaY, tMaxY := lineAxis(float64(start.Y), float64(end.Y), cellY, endY, cellSize)

	for {
		g.collectCell(g.cellIndex(S(cellX), S(cellY)), query)

		if cellX == endX && cellY == endY {
			break
		}

		if tMaxX < tMaxY {
			tMaxX += tDeltaX
			cellX += stepX
			if cellX < 0 || cellX >= gridSize {
				break
			}
			if cellX == endX {
				tMaxX = math.Inf(1)
			}
		} else {
			tMaxY += tDeltaY
			cellY += stepY
			if cellY < 0 || cellY >= gridSize {
				break
			}
			if cellY == endY {
				tMaxY = math.Inf(1)
			}
		}
	}

	return g.results
}

func (g *Grid[S, ID]) DebugInfo() DebugInfo {
	occupancy := make([]uint32, len(g.cells))
	for i, cell := range g.cells {
		occupancy[i] = uint32(len(cell))
	}

	return DebugInfo{
		WorldSize:   uint32(g.worldSize),
		CellSize:    uint32(g.cellSize),
		GridSize:    uint32(g.gridSize),
		MaxEntityID: uint64(g.maxEntityID),
		EntityCount: g.entityCount,
		Occupancy:   occupancy,
	}
}

// lineAxis returns the cell step direction, the line parameter needed to cross
// one cell and the line parameter of the first cell boundary crossing along
// one axis. An axis where the segment starts and ends in the same cell never
// reaches a boundary.
func lineAxis(from, to float64, cell, endCell int64, cellSize float64) (int64, float64, float64) {
	diff := to - from

	step := int64(1)
	if diff < 0 {
		step = -1
	}

	if cell == endCell || diff == 0 {
		return step, math.Inf(1), math.Inf(1)
	}

	boundary := float64(cell) * cellSize
	if step > 0 {
		boundary += cellSize
	}

	return step, cellSize / math.Abs(diff), (boundary - from) / diff
}

func (g *Grid[S, ID]) entity(id ID) *entityRecord[S] {
	if id > g.maxEntityID {
		panic(errors.New("entity id out of range").
			WithType(ErrTypeEntityOutOfRange).
			WithTag("entity_id", id).
			WithTag("max_entity_id", g.maxEntityID))
	}
	return &g.entities[id]
}

func (g *Grid[S, ID]) cellAt(pos vector.Vec2) cellPos[S] {
	return cellPos[S]{
		x: g.toCell(pos.X),
		y: g.toCell(pos.Y),
	}
}

func (g *Grid[S, ID]) toCell(v float32) S {
	cell := math.Floor(float64(v) / float64(g.cellSize))
	if math.IsNaN(cell) || cell < 0 {
		return 0
	}
	if last := float64(g.gridSize - 1); cell > last {
		return g.gridSize - 1
	}
	return S(cell)
}

func (g *Grid[S, ID]) cellIndex(x, y S) int {
	return int(y)*int(g.gridSize) + int(x)
}

func (g *Grid[S, ID]) removeFromCells(id ID, bounds cellBounds[S]) {
	for y := bounds.min.y; y <= bounds.max.y; y++ {
		for x := bounds.min.x; x <= bounds.max.x; x++ {
			idx := g.cellIndex(x, y)
			cell := g.cells[idx]

			for i, cellID := range cell {
				if cellID == id {
					last := len(cell) - 1
					cell[i] = cell[last]
					g.cells[idx] = cell[:last]
					break
				}
			}
		}
	}
}

func (g *Grid[S, ID]) queryCells(bounds cellBounds[S]) []ID {
	query := g.newQuery()

	for y := bounds.min.y; y <= bounds.max.y; y++ {
		for x := bounds.min.x; x <= bounds.max.x; x++ {
			g.collectCell(g.cellIndex(x, y), query)
		}
	}
	return g.results
}

func (g *Grid[S, ID]) collectCell(idx int, query uint32) {
	for _, id := range g.cells[idx] {
		entity := &g.entities[id]
		if entity.queryID != query {
			entity.queryID = query
			g.results = append(g.results, id)
		}
	}
}

// newQuery resets the result buffer and returns a fresh query stamp.
func (g *Grid[S, ID]) newQuery() uint32 {
	g.results = g.results[:0]

	if g.nextQueryID == 0 {
		// Stamps wrapped around, old stamps could match new queries.
		for i := range g.entities {
			g.entities[i].queryID = 0
		}
		g.nextQueryID = 1
	}

	query := g.nextQueryID
	g.nextQueryID++
	return query
}
