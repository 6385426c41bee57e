// Package graph builds the in-memory node index and answers traversal,
// drift and planning queries over it. The index is rebuilt from storage
// on every invocation; nothing here persists state.
package graph

import (
	"sort"

	"github.com/forkzero/lattice/internal/node"
)

// Loader supplies nodes of a given kind. *store.Store satisfies it.
type Loader interface {
	LoadByKind(kind node.Kind) ([]*node.Node, error)
}

// Index maps node id to node for the whole graph.
type Index map[string]*node.Node

// BuildIndex loads every kind and aggregates the nodes into one index.
// Duplicate ids resolve last-write-wins in kind load order; lint flags
// duplicates, the index does not.
func BuildIndex(l Loader) (Index, error) {
	idx := make(Index)
	for _, kind := range node.Kinds {
		nodes, err := l.LoadByKind(kind)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			idx[n.ID] = n
		}
	}
	return idx, nil
}

// NewIndex builds an index directly from a node slice, last-write-wins.
func NewIndex(nodes []*node.Node) Index {
	idx := make(Index, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n
	}
	return idx
}

// SortedIDs returns the index keys in lexicographic order.
func (idx Index) SortedIDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Direction selects which way a traversal walks the graph.
type Direction int

const (
	DirectionDownstream Direction = iota
	DirectionUpstream
	DirectionBoth
)

func (d Direction) String() string {
	switch d {
	case DirectionUpstream:
		return "up"
	case DirectionBoth:
		return "both"
	}
	return "down"
}

// VisitEdge is one edge incident to a visited node. Incoming edges were
// found by scanning other nodes' references back to the visited node;
// From names the referencing node in that case.
type VisitEdge struct {
	Relation string
	Ref      node.EdgeRef
	Incoming bool
	From     string
}

// Visit is one node reached by a traversal, with its distance from the
// start and the edges the traversal crossed at it.
type Visit struct {
	Node  *node.Node
	Depth int
	Edges []VisitEdge
}

// Traverse walks the graph from startID, visiting each node at most
// once, out to maxDepth hops (0 visits only the start node). Downstream
// follows the node's own references; upstream scans the index for nodes
// that reference the current one. An unknown start id yields an empty
// result. Output order is breadth-first and deterministic: outbound
// edges in bucket order, inbound referrers in sorted id order.
func Traverse(idx Index, startID string, dir Direction, maxDepth int) []Visit {
	start, ok := idx[startID]
	if !ok {
		return nil
	}

	visited := map[string]bool{startID: true}
	visits := []Visit{{Node: start, Depth: 0}}
	queue := []int{0}

	sortedIDs := idx.SortedIDs()

	for len(queue) > 0 {
		vi := queue[0]
		queue = queue[1:]
		cur := visits[vi]
		if cur.Depth >= maxDepth {
			continue
		}

		enqueue := func(id string) {
			if visited[id] {
				return
			}
			visited[id] = true
			visits = append(visits, Visit{Node: idx[id], Depth: cur.Depth + 1})
			queue = append(queue, len(visits)-1)
		}

		if dir == DirectionDownstream || dir == DirectionBoth {
			for _, fe := range cur.Node.AllEdges() {
				if _, ok := idx[fe.Ref.Target]; !ok {
					continue
				}
				visits[vi].Edges = append(visits[vi].Edges, VisitEdge{
					Relation: fe.Relation,
					Ref:      fe.Ref,
				})
				enqueue(fe.Ref.Target)
			}
		}
		if dir == DirectionUpstream || dir == DirectionBoth {
			for _, id := range sortedIDs {
				if id == cur.Node.ID {
					continue
				}
				for _, fe := range idx[id].AllEdges() {
					if fe.Ref.Target != cur.Node.ID {
						continue
					}
					visits[vi].Edges = append(visits[vi].Edges, VisitEdge{
						Relation: fe.Relation,
						Ref:      fe.Ref,
						Incoming: true,
						From:     id,
					})
					enqueue(id)
				}
			}
		}
	}

	return visits
}

// Referrers returns the ids of nodes holding at least one edge to
// target, in sorted order.
func (idx Index) Referrers(target string) []string {
	var out []string
	for _, id := range idx.SortedIDs() {
		if id == target {
			continue
		}
		for _, fe := range idx[id].AllEdges() {
			if fe.Ref.Target == target {
				out = append(out, id)
				break
			}
		}
	}
	return out
}
