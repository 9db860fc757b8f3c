package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Order is the dependency order of the declared packages.
type Order struct {
	// Packages lists every package after the packages it depends on.
	Packages []PackageID
	// Layers counts the rounds of packages whose dependencies were all
	// placed by earlier rounds.
	Layers int
	// Cycles are packages on a dependency cycle.
	Cycles []PackageID
	// Blocked are packages that only depend on a cycle.
	Blocked []PackageID
}

// Cyclic reports whether some package could not be placed.
func (o *Order) Cyclic() bool {
	return len(o.Cycles) > 0
}

// Len is the number of declared packages.
func (o *Order) Len() int {
	return len(o.Packages) + len(o.Cycles) + len(o.Blocked)
}

// SortDependencies places packages layer by layer, dependencies first.
// Packages left over are split into cycle members and packages that sit
// above a cycle without being part of it.
func SortDependencies(g Graph) *Order {
	n := len(g.Edges)
	pending := make([]int, n)
	dependents := make([][]PackageID, n)
	var ready []PackageID
	for from, deps := range g.Edges {
		if !g.Present[from] {
			continue
		}
		pending[from] = len(deps)
		for _, to := range deps {
			dependents[to] = append(dependents[to], packageID(from))
		}
		if len(deps) == 0 {
			ready = append(ready, packageID(from))
		}
	}

	o := &Order{Packages: make([]PackageID, 0, n)}
	for len(ready) > 0 {
		o.Layers++
		slices.Sort(ready)
		var next []PackageID
		for _, id := range ready {
			o.Packages = append(o.Packages, id)
			for _, d := range dependents[id] {
				pending[d]--
				if pending[d] == 0 {
					next = append(next, d)
				}
			}
		}
		ready = next
	}

	stuck := make([]bool, n)
	for id := 0; id < n; id++ {
		stuck[id] = g.Present[id] && pending[id] > 0
	}
	o.Blocked = peelBlocked(g, stuck)
	for id := 0; id < n; id++ {
		if stuck[id] {
			o.Cycles = append(o.Cycles, packageID(id))
		}
	}
	return o
}

// peelBlocked removes from stuck every package no other stuck package
// depends on, repeatedly, and returns the removed ones sorted.
func peelBlocked(g Graph, stuck []bool) []PackageID {
	users := make([]int, len(stuck))
	for from, deps := range g.Edges {
		if !stuck[from] {
			continue
		}
		for _, to := range deps {
			if stuck[to] {
				users[to]++
			}
		}
	}
	var queue, blocked []PackageID
	for id, s := range stuck {
		if s && users[id] == 0 {
			queue = append(queue, packageID(id))
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		stuck[id] = false
		blocked = append(blocked, id)
		for _, to := range g.Edges[id] {
			if !stuck[to] {
				continue
			}
			users[to]--
			if users[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	slices.Sort(blocked)
	return blocked
}

func packageID(i int) PackageID {
	id, err := safecast.Conv[PackageID](i)
	if err != nil {
		panic(fmt.Errorf("package id overflow: %w", err))
	}
	return id
}
