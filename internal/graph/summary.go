package graph

import "github.com/forkzero/lattice/internal/node"

// Summary aggregates graph-wide counts for the status overview.
type Summary struct {
	Total          int                     `json:"total"`
	ByKind         map[node.Kind]int       `json:"by_kind"`
	ByPriority     map[node.Priority]int   `json:"by_priority"`
	ByResolution   map[node.Resolution]int `json:"by_resolution"`
	Unresolved     int                     `json:"unresolved"`
	OrphanedReqs   []string                `json:"orphaned_requirements,omitempty"`
	OrphanedTheses []string                `json:"orphaned_theses,omitempty"`
	DriftCount     int                     `json:"drift_count"`
}

// Summarize computes the overview counts. An orphaned requirement
// derives from no thesis; an orphaned thesis is referenced by no
// requirement and supported by no source link of its own.
func Summarize(idx Index) *Summary {
	s := &Summary{
		ByKind:       make(map[node.Kind]int),
		ByPriority:   make(map[node.Priority]int),
		ByResolution: make(map[node.Resolution]int),
	}

	referenced := make(map[string]bool)
	for _, n := range idx {
		for _, fe := range n.AllEdges() {
			referenced[fe.Ref.Target] = true
		}
	}

	for _, id := range idx.SortedIDs() {
		n := idx[id]
		s.Total++
		s.ByKind[n.Type]++
		if n.Priority != "" {
			s.ByPriority[n.Priority]++
		}
		switch n.Type {
		case node.KindRequirement:
			if n.IsResolved() {
				s.ByResolution[n.Resolution.State]++
			} else {
				s.Unresolved++
			}
			if n.Edges == nil || len(n.Edges.DerivesFrom) == 0 {
				s.OrphanedReqs = append(s.OrphanedReqs, n.ID)
			}
		case node.KindThesis:
			supported := n.Edges != nil && len(n.Edges.SupportedBy) > 0
			if !referenced[n.ID] && !supported {
				s.OrphanedTheses = append(s.OrphanedTheses, n.ID)
			}
		}
	}

	s.DriftCount = len(DetectDrift(idx))
	return s
}
