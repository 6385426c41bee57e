package node

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestAllEdgesOrder(t *testing.T) {
	n := &Node{
		ID: "req-001",
		Edges: &Edges{
			Supersedes:  []EdgeRef{{Target: "req-000"}},
			DerivesFrom: []EdgeRef{{Target: "thx-001"}, {Target: "thx-002"}},
			SupportedBy: []EdgeRef{{Target: "src-001"}},
		},
	}

	var got []string
	for _, fe := range n.AllEdges() {
		got = append(got, fe.Relation+":"+fe.Ref.Target)
	}
	want := []string{
		"supported_by:src-001",
		"derives_from:thx-001",
		"derives_from:thx-002",
		"supersedes:req-000",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllEdges order = %v, want %v", got, want)
	}
}

func TestAllEdgesEmpty(t *testing.T) {
	n := &Node{ID: "req-001"}
	if edges := n.AllEdges(); len(edges) != 0 {
		t.Errorf("expected no edges, got %v", edges)
	}
	n.Edges = &Edges{}
	if edges := n.AllEdges(); len(edges) != 0 {
		t.Errorf("expected no edges from empty set, got %v", edges)
	}
}

func TestBoundVersionDefault(t *testing.T) {
	if v := (EdgeRef{Target: "req-001"}).BoundVersion(); v != "1.0.0" {
		t.Errorf("unbound edge version = %q, want 1.0.0", v)
	}
	if v := (EdgeRef{Target: "req-001", Version: "2.1.0"}).BoundVersion(); v != "2.1.0" {
		t.Errorf("bound edge version = %q, want 2.1.0", v)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"source", "thesis", "requirement", "implementation"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseKind("widget"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestKindDir(t *testing.T) {
	cases := map[Kind]string{
		KindSource:         "sources",
		KindThesis:         "theses",
		KindRequirement:    "requirements",
		KindImplementation: "implementations",
	}
	for kind, want := range cases {
		if got := kind.Dir(); got != want {
			t.Errorf("%s.Dir() = %q, want %q", kind, got, want)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	n := &Node{
		ID:      "thx-001",
		Type:    KindThesis,
		Title:   "Local-first tooling wins",
		Status:  StatusActive,
		Version: "1.2.0",
		Meta:    &Meta{Thesis: &ThesisMeta{Category: "market", Confidence: 0.8}},
		Edges: &Edges{
			SupportedBy: []EdgeRef{{Target: "src-001", Version: "1.0.0", Rationale: "survey data"}},
		},
	}

	data, err := yaml.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Node
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != n.ID || back.Type != n.Type || back.Version != n.Version {
		t.Errorf("round trip lost fields: %+v", back)
	}
	if back.Meta == nil || back.Meta.Thesis == nil || back.Meta.Thesis.Confidence != 0.8 {
		t.Errorf("round trip lost thesis meta: %+v", back.Meta)
	}
	if len(back.Edges.SupportedBy) != 1 || back.Edges.SupportedBy[0].Rationale != "survey data" {
		t.Errorf("round trip lost edges: %+v", back.Edges)
	}
}

func TestResolutionHelpers(t *testing.T) {
	n := &Node{ID: "req-001", Type: KindRequirement}
	if n.IsResolved() {
		t.Error("fresh node should not be resolved")
	}
	n.Resolution = &ResolutionInfo{State: ResolutionVerified}
	if !n.IsResolved() {
		t.Error("node with resolution should be resolved")
	}
	if _, err := ParseResolution("maybe"); err == nil {
		t.Error("expected error for invalid resolution")
	}
}
