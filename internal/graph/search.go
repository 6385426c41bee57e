package graph

import (
	"strings"

	"github.com/forkzero/lattice/internal/node"
)

// SearchFilter narrows the index to matching nodes. Zero-value fields
// do not filter. All set fields must match (AND semantics).
type SearchFilter struct {
	Query      string
	Kind       node.Kind
	Priority   node.Priority
	Resolution string // resolution state, or "unresolved"
	Tag        string
	Tags       []string // all must be present
	Category   string
	IDPrefix   string
	RelatedTo  string // graph proximity to this id
}

// Search applies the filter and returns matches in sorted id order.
func Search(idx Index, f SearchFilter) []*node.Node {
	var related map[string]bool
	if f.RelatedTo != "" {
		related = relatedSet(idx, f.RelatedTo)
	}

	var out []*node.Node
	for _, id := range idx.SortedIDs() {
		n := idx[id]
		if f.Kind != "" && n.Type != f.Kind {
			continue
		}
		if f.Priority != "" && n.Priority != f.Priority {
			continue
		}
		if !matchResolution(n, f.Resolution) {
			continue
		}
		if f.Tag != "" && !hasTag(n, f.Tag) {
			continue
		}
		if !hasAllTags(n, f.Tags) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(n.Category, f.Category) {
			continue
		}
		if f.IDPrefix != "" && !strings.HasPrefix(n.ID, f.IDPrefix) {
			continue
		}
		if f.Query != "" && !matchQuery(n, f.Query) {
			continue
		}
		if related != nil && !related[n.ID] {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matchQuery(n *node.Node, q string) bool {
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Body), q) ||
		strings.Contains(strings.ToLower(n.ID), q)
}

func matchResolution(n *node.Node, want string) bool {
	switch want {
	case "":
		return true
	case "unresolved":
		return !n.IsResolved()
	default:
		return n.Resolution != nil && string(n.Resolution.State) == want
	}
}

func hasTag(n *node.Node, tag string) bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func hasAllTags(n *node.Node, tags []string) bool {
	for _, t := range tags {
		if !hasTag(n, t) {
			return false
		}
	}
	return true
}

// relatedSet collects the ids reachable from anchor in one hop in
// either direction, plus nodes sharing an edge target with it. The
// anchor itself is excluded.
func relatedSet(idx Index, anchor string) map[string]bool {
	out := make(map[string]bool)
	a, ok := idx[anchor]
	if !ok {
		return out
	}

	anchorTargets := make(map[string]bool)
	for _, fe := range a.AllEdges() {
		anchorTargets[fe.Ref.Target] = true
		out[fe.Ref.Target] = true
	}

	for id, n := range idx {
		if id == anchor {
			continue
		}
		for _, fe := range n.AllEdges() {
			if fe.Ref.Target == anchor || anchorTargets[fe.Ref.Target] {
				out[id] = true
				break
			}
		}
	}

	delete(out, anchor)
	return out
}
