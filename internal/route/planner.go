package route

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/cory-johannsen/starmap/internal/universe"
)

// ErrNoRoute is returned when no chain of jumps connects two stars.
var ErrNoRoute = errors.New("no jump route")

// Neighbourhood finds the stars within a radius of a point.
// *universe.SpatialGrid satisfies it.
type Neighbourhood interface {
	Within(origin universe.SpatialPoint, radius float64) []*universe.Star
}

// Planner finds the fastest chain of jumps between two stars, weighting each
// jump by the departure jump point's recharge time plus the jump itself.
type Planner struct {
	stars Neighbourhood
	// MaxJumps bounds the number of jumps in a route. Zero means unbounded.
	MaxJumps int
}

// NewPlanner creates a Planner over the given neighbourhood index.
//
// Precondition: stars must be non-nil.
func NewPlanner(stars Neighbourhood) *Planner {
	return &Planner{stars: stars}
}

// searchKey identifies a search state. Hops is only tracked when MaxJumps is
// set; otherwise it stays 0 and each star is settled once.
type searchKey struct {
	id   string
	hops int
}

// Plan returns a path of jump points from the nadir jump point of from to a
// jump point of to, alternating sides so that every hop is a valid jump.
// Planning a star to itself yields a single-location path.
//
// Postcondition: Returns the path, or an error wrapping ErrNoRoute.
func (pl *Planner) Plan(from, to *universe.Star) (*JumpPath, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("%w: missing endpoint", ErrNoRoute)
	}
	if from == to {
		return New(from.JumpPoint(true)), nil
	}

	start := searchKey{id: from.ID()}
	dist := map[searchKey]float64{start: 0}
	prev := make(map[searchKey]searchKey)
	byID := map[string]*universe.Star{from.ID(): from}

	pq := &starQueue{{key: start, cost: 0}}
	heap.Init(pq)
	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		if d, ok := dist[item.key]; ok && item.cost > d {
			continue
		}
		if item.key.id == to.ID() {
			return pl.build(item.key, prev, byID), nil
		}
		if pl.MaxJumps > 0 && item.key.hops >= pl.MaxJumps {
			continue
		}
		cur := byID[item.key.id]
		cost := item.cost + cur.JumpPoint(true).RechargeTime() + universe.JumpDuration
		for _, next := range pl.stars.Within(cur.Position(), universe.JumpRange) {
			if next == cur {
				continue
			}
			key := searchKey{id: next.ID()}
			if pl.MaxJumps > 0 {
				key.hops = item.key.hops + 1
			}
			if d, ok := dist[key]; ok && d <= cost {
				continue
			}
			dist[key] = cost
			prev[key] = item.key
			byID[next.ID()] = next
			heap.Push(pq, queueItem{key: key, cost: cost})
		}
	}
	return nil, fmt.Errorf("%w: %s to %s", ErrNoRoute, from.ID(), to.ID())
}

// build walks prev back from end and lays out alternating jump points.
func (pl *Planner) build(end searchKey, prev map[searchKey]searchKey, byID map[string]*universe.Star) *JumpPath {
	var chain []*universe.Star
	for key := end; ; {
		chain = append(chain, byID[key.id])
		p, ok := prev[key]
		if !ok {
			break
		}
		key = p
	}
	path := &JumpPath{locs: make([]universe.Location, 0, len(chain))}
	nadir := true
	for i := len(chain) - 1; i >= 0; i-- {
		path.Add(chain[i].JumpPoint(nadir))
		nadir = !nadir
	}
	return path
}

type queueItem struct {
	key  searchKey
	cost float64
}

type starQueue []queueItem

func (q starQueue) Len() int { return len(q) }
func (q starQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].key.id < q[j].key.id
}
func (q starQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *starQueue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *starQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
