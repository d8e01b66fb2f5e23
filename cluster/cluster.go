// Package cluster groups units into spatial clusters for formation and focus
// fire heuristics. Two units share a cluster when a chain of pairwise hex
// distances no greater than Service.Distance connects them. Unit counts are
// small, so the pairwise pass is quadratic.
package cluster

import (
	"math"
	"slices"

	"hexbot/game"
	"hexbot/world"
)

type ID int

type Cluster struct {
	ID       ID
	Members  []game.UnitID
	Centroid game.Coords
}

func (c Cluster) Size() int {
	return len(c.Members)
}

// Assignment maps every clustered unit to its cluster.
type Assignment struct {
	ByUnit   map[game.UnitID]ID
	Clusters []Cluster
}

// Of returns the cluster a unit belongs to.
func (a Assignment) Of(id game.UnitID) (Cluster, bool) {
	cid, ok := a.ByUnit[id]
	if !ok {
		return Cluster{}, false
	}
	return a.Clusters[cid], true
}

// Isolated reports whether the unit is alone in its cluster.
func (a Assignment) Isolated(id game.UnitID) bool {
	c, ok := a.Of(id)
	return !ok || c.Size() == 1
}

// Largest returns the cluster with the most members, lowest id on ties.
func (a Assignment) Largest() (Cluster, bool) {
	if len(a.Clusters) == 0 {
		return Cluster{}, false
	}
	best := a.Clusters[0]
	for _, c := range a.Clusters[1:] {
		if c.Size() > best.Size() {
			best = c
		}
	}
	return best, true
}

// Sides holds the per-cycle clustering of both sides. Friendly and enemy
// units never share a cluster.
type Sides struct {
	Friendly Assignment
	Enemy    Assignment
}

type Service struct {
	Distance int // neighbor distance threshold
	MinSize  int // components smaller than this are split into singletons
}

func NewService(distance, minSize int) Service {
	return Service{Distance: distance, MinSize: max(minSize, 1)}
}

// Partition clusters the world's friendly and enemy units separately.
func (s Service) Partition(w *world.World) Sides {
	return Sides{
		Friendly: s.Assign(w.FriendlyUnits()),
		Enemy:    s.Assign(w.EnemyUnits()),
	}
}

// Assign clusters units. The result depends only on the input order and values.
func (s Service) Assign(units []game.Unit) Assignment {
	a := Assignment{ByUnit: make(map[game.UnitID]ID, len(units))}
	if len(units) == 0 {
		return a
	}

	parent := make([]int, len(units))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri == rj {
			return
		}
		// Keep the earliest index as root so numbering follows input order.
		if rj < ri {
			ri, rj = rj, ri
		}
		parent[rj] = ri
	}

	for i := range units {
		for j := i + 1; j < len(units); j++ {
			if game.Distance(units[i].Position, units[j].Position) <= s.Distance {
				union(i, j)
			}
		}
	}

	components := make(map[int][]int)
	var roots []int
	for i := range units {
		r := find(i)
		if _, ok := components[r]; !ok {
			roots = append(roots, r)
		}
		components[r] = append(components[r], i)
	}
	slices.Sort(roots)

	minSize := max(s.MinSize, 1)
	add := func(members []int) {
		c := Cluster{ID: ID(len(a.Clusters))}
		for _, m := range members {
			c.Members = append(c.Members, units[m].ID)
			a.ByUnit[units[m].ID] = c.ID
		}
		c.Centroid = centroid(units, members)
		a.Clusters = append(a.Clusters, c)
	}
	for _, r := range roots {
		members := components[r]
		if len(members) < minSize {
			for _, m := range members {
				add([]int{m})
			}
			continue
		}
		add(members)
	}
	return a
}

// centroid rounds the mean cube coordinate back onto the grid.
func centroid(units []game.Unit, members []int) game.Coords {
	var q, r float64
	for _, m := range members {
		q += float64(units[m].Position.Q)
		r += float64(units[m].Position.R)
	}
	n := float64(len(members))
	return roundCube(q/n, r/n, -(q+r)/n)
}

func roundCube(q, r, s float64) game.Coords {
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	}
	return game.Coords{Q: int(rq), R: int(rr)}
}
