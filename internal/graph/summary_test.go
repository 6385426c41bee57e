package graph

import (
	"testing"

	"github.com/forkzero/lattice/internal/node"
)

func TestSummarize(t *testing.T) {
	src := mkNode("src-001", node.KindSource, "1.0.0")

	supported := mkNode("thx-001", node.KindThesis, "1.0.0")
	link(supported, "supported_by", "src-001", "1.0.0")

	orphanThesis := mkNode("thx-002", node.KindThesis, "1.0.0")

	derived := mkNode("req-001", node.KindRequirement, "1.0.0")
	derived.Priority = node.PriorityP0
	link(derived, "derives_from", "thx-001", "1.0.0")

	orphanReq := mkNode("req-002", node.KindRequirement, "1.0.0")
	orphanReq.Resolution = &node.ResolutionInfo{State: node.ResolutionBlocked}

	idx := NewIndex([]*node.Node{src, supported, orphanThesis, derived, orphanReq})
	sum := Summarize(idx)

	if sum.Total != 5 {
		t.Errorf("total = %d, want 5", sum.Total)
	}
	if sum.ByKind[node.KindThesis] != 2 || sum.ByKind[node.KindRequirement] != 2 {
		t.Errorf("by-kind counts = %v", sum.ByKind)
	}
	if sum.Unresolved != 1 {
		t.Errorf("unresolved = %d, want 1", sum.Unresolved)
	}
	if sum.ByResolution[node.ResolutionBlocked] != 1 {
		t.Errorf("by-resolution = %v", sum.ByResolution)
	}
	if !equalStrings(sum.OrphanedReqs, []string{"req-002"}) {
		t.Errorf("orphaned requirements = %v", sum.OrphanedReqs)
	}
	if !equalStrings(sum.OrphanedTheses, []string{"thx-002"}) {
		t.Errorf("orphaned theses = %v", sum.OrphanedTheses)
	}
	if sum.DriftCount != 0 {
		t.Errorf("drift count = %d, want 0", sum.DriftCount)
	}
}
