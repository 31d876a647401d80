package pathgraph

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/udisondev/ppather/internal/geo"
)

// Query describes one route search.
type Query struct {
	From, To geo.Location
	Strategy Strategy
	// CloseEnough is the distance from To at which a spot is accepted.
	CloseEnough float64
	// MaxExpansions caps expanded spots; 0 means unlimited.
	MaxExpansions int
}

// Outcome is the result of FindPath. Path is empty when no spot within
// CloseEnough of the goal was reached.
type Outcome struct {
	Path Path
	// Goal is To with its height resolved when a surface was found.
	Goal geo.Location
	// Closest is the expanded spot nearest to Goal.
	Closest *Spot
	// Expanded counts spots taken off the frontier.
	Expanded int
	// Exhausted is set when the frontier ran out, as opposed to hitting MaxExpansions.
	Exhausted bool
}

// Found reports whether a path was produced.
func (o Outcome) Found() bool { return !o.Path.Empty() }

// FindPath runs a best-first search from q.From towards q.To, growing the graph
// around every expanded spot. Equal scores are expanded in insertion order.
//
// The returned error is a geometry I/O failure, an unresolvable start
// (ErrUnresolved) or ctx's error; the partial Outcome is returned with it.
func (g *Graph) FindPath(ctx context.Context, q Query) (Outcome, error) {
	out := Outcome{Goal: q.To}

	if goal, _, err := g.standable(q.To.X, q.To.Y, q.To.Z); err == nil {
		out.Goal = goal
	}

	start, err := g.Seed(q.From)
	if err != nil {
		return out, fmt.Errorf("seeding start: %w", err)
	}

	cost := map[*Spot]float64{start: 0}
	parent := make(map[*Spot]*Spot, 256)
	closed := make(map[*Spot]struct{}, 256)

	open := &frontier{}
	var seq uint64
	push := func(s *Spot, c float64) {
		heap.Push(open, &frontierItem{spot: s, score: q.Strategy.score(c, s.loc.Distance(out.Goal)), seq: seq})
		seq++
	}
	push(start, 0)

	closestDist := math.Inf(1)
	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		cur := heap.Pop(open).(*frontierItem).spot
		if _, done := closed[cur]; done {
			continue
		}
		closed[cur] = struct{}{}
		out.Expanded++

		d := cur.loc.Distance(out.Goal)
		if d < closestDist {
			out.Closest, closestDist = cur, d
		}
		if d <= q.CloseEnough {
			out.Path = tracePath(cur, parent)
			return out, nil
		}
		if q.MaxExpansions > 0 && out.Expanded >= q.MaxExpansions {
			return out, nil
		}

		if _, err := g.GrowAroundSpot(cur); err != nil {
			return out, fmt.Errorf("growing around %s: %w", cur, err)
		}

		for _, nb := range cur.neighbors {
			if _, done := closed[nb]; done {
				continue
			}
			c := cost[cur] + q.Strategy.stepCost(cur, nb)
			if old, seen := cost[nb]; seen && c >= old {
				continue
			}
			cost[nb] = c
			parent[nb] = cur
			push(nb, c)
		}
	}

	out.Exhausted = true
	return out, nil
}

// tracePath walks the parent chain from end back to the start and reverses it.
func tracePath(end *Spot, parent map[*Spot]*Spot) Path {
	points := make([]geo.Location, 0, 32)
	for s := end; s != nil; s = parent[s] {
		points = append(points, s.loc)
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return Path{points: points}
}

type frontierItem struct {
	spot  *Spot
	score float64
	seq   uint64
}

// frontier implements container/heap as a min-heap by score, then insertion order.
type frontier []*frontierItem

func (h frontier) Len() int { return len(h) }
func (h frontier) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].seq < h[j].seq
}
func (h frontier) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *frontier) Push(x any)   { *h = append(*h, x.(*frontierItem)) }
func (h *frontier) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // GC
	*h = old[:n-1]
	return it
}
