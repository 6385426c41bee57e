package graph

import "github.com/forkzero/lattice/internal/node"

// DriftItem is one stale edge binding: the target moved past the
// version the edge was bound to.
type DriftItem struct {
	Relation       string   `json:"relation"`
	TargetID       string   `json:"target_id"`
	BoundVersion   string   `json:"bound_version"`
	CurrentVersion string   `json:"current_version"`
	Severity       Severity `json:"-"`
	SeverityLabel  string   `json:"severity"`
}

// DriftReport groups a node's stale bindings.
type DriftReport struct {
	NodeID  string      `json:"node_id"`
	Kind    node.Kind   `json:"kind"`
	Title   string      `json:"title"`
	Version string      `json:"version"`
	Items   []DriftItem `json:"items"`
}

// DetectDrift examines every edge of every node and reports the nodes
// holding at least one stale binding. Edges to ids absent from the
// index are skipped; lint reports those separately. Reports come back
// in sorted node-id order so repeated runs print identically.
func DetectDrift(idx Index) []DriftReport {
	var reports []DriftReport
	for _, id := range idx.SortedIDs() {
		n := idx[id]
		var items []DriftItem
		for _, fe := range n.AllEdges() {
			target, ok := idx[fe.Ref.Target]
			if !ok {
				continue
			}
			sev := CompareVersions(fe.Ref.BoundVersion(), target.Version)
			if sev == SeverityNone {
				continue
			}
			items = append(items, DriftItem{
				Relation:       fe.Relation,
				TargetID:       target.ID,
				BoundVersion:   fe.Ref.BoundVersion(),
				CurrentVersion: target.Version,
				Severity:       sev,
				SeverityLabel:  sev.String(),
			})
		}
		if len(items) == 0 {
			continue
		}
		reports = append(reports, DriftReport{
			NodeID:  n.ID,
			Kind:    n.Type,
			Title:   n.Title,
			Version: n.Version,
			Items:   items,
		})
	}
	return reports
}

// MaxSeverity returns the highest severity across all reports.
func MaxSeverity(reports []DriftReport) Severity {
	max := SeverityNone
	for _, r := range reports {
		for _, it := range r.Items {
			if it.Severity > max {
				max = it.Severity
			}
		}
	}
	return max
}
