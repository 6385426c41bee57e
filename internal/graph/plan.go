package graph

import (
	"sort"

	"github.com/forkzero/lattice/internal/node"
)

// PlanEntry is one requirement in a work plan.
type PlanEntry struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Priority  node.Priority `json:"priority,omitempty"`
	BlockedBy []string      `json:"blocked_by,omitempty"`
}

// Plan buckets requirements by workability.
type Plan struct {
	Ready   []PlanEntry `json:"ready"`
	Blocked []PlanEntry `json:"blocked"`
	Done    []PlanEntry `json:"done"`
}

// GeneratePlan orders the index's requirements by what can be worked
// now. A requirement is done once resolved, blocked while any of its
// depends_on targets is an unresolved requirement, and ready otherwise.
// Dependencies on ids outside the index do not block. Buckets are
// sorted by priority (P0 first, unset last) then id.
func GeneratePlan(idx Index) *Plan {
	plan := &Plan{}
	for _, id := range idx.SortedIDs() {
		n := idx[id]
		if n.Type != node.KindRequirement {
			continue
		}
		entry := PlanEntry{ID: n.ID, Title: n.Title, Priority: n.Priority}

		if n.IsResolved() {
			plan.Done = append(plan.Done, entry)
			continue
		}

		if n.Edges != nil {
			for _, ref := range n.Edges.DependsOn {
				dep, ok := idx[ref.Target]
				if !ok || dep.Type != node.KindRequirement {
					continue
				}
				if !dep.IsResolved() {
					entry.BlockedBy = append(entry.BlockedBy, dep.ID)
				}
			}
		}

		if len(entry.BlockedBy) > 0 {
			plan.Blocked = append(plan.Blocked, entry)
		} else {
			plan.Ready = append(plan.Ready, entry)
		}
	}

	sortEntries(plan.Ready)
	sortEntries(plan.Blocked)
	sortEntries(plan.Done)
	return plan
}

func sortEntries(entries []PlanEntry) {
	rank := func(p node.Priority) int {
		switch p {
		case node.PriorityP0:
			return 0
		case node.PriorityP1:
			return 1
		case node.PriorityP2:
			return 2
		}
		return 3
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := rank(entries[i].Priority), rank(entries[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return entries[i].ID < entries[j].ID
	})
}
