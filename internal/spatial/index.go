package spatial

import (
	"fmt"
	"math"
)

// Offset shifts world coordinates before division so cells near the origin
// do not straddle zero (floor of small negatives).
const Offset = 65536.0

// Cell is the integer address of one grid cell.
// It is an explicit pair instead of a packed integer, so there is no bound
// on the cell range beyond int64.
type Cell struct {
	X, Y int64
}

// Index is a sparse 2D grid mapping world coordinates to buckets of values.
// Not safe for concurrent mutation.
type Index[T comparable] struct {
	cellSize float64
	buckets  map[Cell][]T
	count    int
}

// New creates an empty index with the given cell size (world units).
func New[T comparable](cellSize float64) *Index[T] {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		panic(fmt.Sprintf("spatial: invalid cell size %v", cellSize))
	}
	return &Index[T]{
		cellSize: cellSize,
		buckets:  make(map[Cell][]T),
	}
}

// CellSize returns the edge length of a cell.
func (ix *Index[T]) CellSize() float64 {
	return ix.cellSize
}

// CellOf maps a world point to its cell: floor((coord + Offset) / cellSize).
func (ix *Index[T]) CellOf(x, y float64) Cell {
	return Cell{
		X: int64(math.Floor((x + Offset) / ix.cellSize)),
		Y: int64(math.Floor((y + Offset) / ix.cellSize)),
	}
}

// CellOrigin maps a cell back to the world coordinate of its minimum corner.
func (ix *Index[T]) CellOrigin(c Cell) (x, y float64) {
	return float64(c.X)*ix.cellSize - Offset, float64(c.Y)*ix.cellSize - Offset
}

// Add appends v to the bucket of the cell containing (x, y).
func (ix *Index[T]) Add(x, y float64, v T) {
	ix.AddToCell(ix.CellOf(x, y), v)
}

// AddToCell appends v to the bucket of cell c.
func (ix *Index[T]) AddToCell(c Cell, v T) {
	ix.buckets[c] = append(ix.buckets[c], v)
	ix.count++
}

// Remove deletes the first occurrence of v from the bucket of (x, y).
// Empty buckets are dropped. Returns false if v was not there.
func (ix *Index[T]) Remove(x, y float64, v T) bool {
	c := ix.CellOf(x, y)
	bucket := ix.buckets[c]
	for i := range bucket {
		if bucket[i] != v {
			continue
		}
		// keep insertion order within the bucket
		copy(bucket[i:], bucket[i+1:])
		var zero T
		bucket[len(bucket)-1] = zero
		bucket = bucket[:len(bucket)-1]
		if len(bucket) == 0 {
			delete(ix.buckets, c)
		} else {
			ix.buckets[c] = bucket
		}
		ix.count--
		return true
	}
	return false
}

// TryGet returns the bucket for the cell containing (x, y).
// The returned slice must not be modified.
func (ix *Index[T]) TryGet(x, y float64) ([]T, bool) {
	bucket, ok := ix.buckets[ix.CellOf(x, y)]
	return bucket, ok
}

// Region returns the concatenated contents of every bucket whose cell lies in
// the inclusive cell range covering [minX,maxX]×[minY,maxY], plus the item count.
// Cells are visited X-major so the order is deterministic.
func (ix *Index[T]) Region(minX, minY, maxX, maxY float64) ([]T, int) {
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	lo := ix.CellOf(minX, minY)
	hi := ix.CellOf(maxX, maxY)

	var items []T
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			if bucket, ok := ix.buckets[Cell{X: cx, Y: cy}]; ok {
				items = append(items, bucket...)
			}
		}
	}
	return items, len(items)
}

// ForEachInRegion calls fn for every item in the region until fn returns false.
// Same visiting order as Region, without allocating.
func (ix *Index[T]) ForEachInRegion(minX, minY, maxX, maxY float64, fn func(T) bool) {
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	lo := ix.CellOf(minX, minY)
	hi := ix.CellOf(maxX, maxY)
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			for _, v := range ix.buckets[Cell{X: cx, Y: cy}] {
				if !fn(v) {
					return
				}
			}
		}
	}
}

// Len returns the total number of stored values.
func (ix *Index[T]) Len() int {
	return ix.count
}

// Cells returns the number of non-empty cells.
func (ix *Index[T]) Cells() int {
	return len(ix.buckets)
}
