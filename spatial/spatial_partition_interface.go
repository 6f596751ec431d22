package spatial

import (
	"github.com/firecat2d/firecat/vector"
	"golang.org/x/exp/constraints"
)

// DebugInfo is a snapshot of a partition occupancy.
type DebugInfo struct {
	WorldSize   uint32 `json:"world_size"`
	CellSize    uint32 `json:"cell_size"`
	GridSize    uint32 `json:"grid_size"`
	MaxEntityID uint64 `json:"max_entity_id"`
	EntityCount uint32 `json:"entity_count"`

	// Occupancy holds the number of entities in each cell, row by row.
	Occupancy []uint32 `json:"occupancy"`
}

// Partition is a broad phase index of entity bounding boxes.
//
// The slices returned by queries are owned by the partition and stay valid
// until the next query.
type Partition[ID constraints.Unsigned] interface {
	Insert(id ID, min, max vector.Vec2)
	Remove(id ID)

	QueryAABB(min, max vector.Vec2) []ID
	QueryPosition(pos vector.Vec2) []ID
	QueryEntity(id ID) []ID
	QueryLine(start, end vector.Vec2) []ID

	// debug stuff:
	DebugInfo() DebugInfo
}
