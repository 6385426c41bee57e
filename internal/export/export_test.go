package export

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/forkzero/lattice/internal/graph"
	"github.com/forkzero/lattice/internal/node"
)

func fixtureIndex() graph.Index {
	thx := &node.Node{
		ID: "thx-001", Type: node.KindThesis, Title: "Developers want local-first tools",
		Version: "1.0.0", Status: node.StatusActive,
		Meta: &node.Meta{Thesis: &node.ThesisMeta{Confidence: 0.8}},
	}
	reqPublic := &node.Node{
		ID: "req-001", Type: node.KindRequirement, Title: "Work offline",
		Version: "1.0.0", Priority: node.PriorityP0,
		Acceptance: []string{"sync resumes after reconnect"},
	}
	reqInternal := &node.Node{
		ID: "req-002", Type: node.KindRequirement, Title: "Secret pricing experiment",
		Version: "1.0.0", Visibility: "internal",
	}
	imp := &node.Node{
		ID: "imp-001", Type: node.KindImplementation, Title: "Sync engine",
		Version: "1.0.0",
		Edges:   &node.Edges{Satisfies: []node.EdgeRef{{Target: "req-001", Version: "1.0.0"}}},
	}
	return graph.NewIndex([]*node.Node{thx, reqPublic, reqInternal, imp})
}

func TestNarrativeHidesInternal(t *testing.T) {
	out := Narrative(fixtureIndex(), Options{Audience: AudienceOverview})
	if strings.Contains(out, "Secret pricing experiment") {
		t.Error("internal node leaked into export")
	}
	if !strings.Contains(out, "Work offline") {
		t.Error("public requirement missing from export")
	}

	withInternal := Narrative(fixtureIndex(), Options{Audience: AudienceOverview, IncludeInternal: true})
	if !strings.Contains(withInternal, "Secret pricing experiment") {
		t.Error("include-internal should expose internal nodes")
	}
}

func TestNarrativeInvestor(t *testing.T) {
	out := Narrative(fixtureIndex(), Options{Title: "Lattice", Audience: AudienceInvestor})
	if !strings.HasPrefix(out, "# Lattice\n") {
		t.Errorf("title missing: %q", out[:40])
	}
	if !strings.Contains(out, "Developers want local-first tools") {
		t.Error("thesis missing from investor narrative")
	}
	if !strings.Contains(out, "Confidence: 80%") {
		t.Error("confidence missing")
	}
	if !strings.Contains(out, "1 of 1 requirements carry a verified implementation.") {
		t.Errorf("execution summary wrong:\n%s", out)
	}
}

func TestNarrativeContributor(t *testing.T) {
	out := Narrative(fixtureIndex(), Options{Audience: AudienceContributor})
	if !strings.Contains(out, "### P0") {
		t.Error("priority grouping missing")
	}
	if !strings.Contains(out, "- [ ] sync resumes after reconnect") {
		t.Error("acceptance criteria missing")
	}
	if !strings.Contains(out, "Sync engine") {
		t.Error("implementation listing missing")
	}
}

func TestJSONExport(t *testing.T) {
	data, err := JSON(fixtureIndex(), Options{})
	if err != nil {
		t.Fatalf("json export: %v", err)
	}
	var nodes []node.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(nodes) != 3 {
		t.Errorf("expected 3 visible nodes, got %d", len(nodes))
	}
}

func TestParseAudience(t *testing.T) {
	if _, err := ParseAudience("investor"); err != nil {
		t.Errorf("investor should parse: %v", err)
	}
	if _, err := ParseAudience("board"); err == nil {
		t.Error("unknown audience should fail")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "requirements"), 0755); err != nil {
		t.Fatal(err)
	}
	content := []byte("id: req-001\ntitle: archived\n")
	if err := os.WriteFile(filepath.Join(root, "requirements", "001.yaml"), content, 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Archive(root, &buf); err != nil {
		t.Fatalf("archive: %v", err)
	}

	dec, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("opening decoder: %v", err)
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	found := false
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading archive: %v", err)
		}
		if hdr.Name == ".lattice/requirements/001.yaml" {
			found = true
			data, err := io.ReadAll(tr)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(data, content) {
				t.Error("archived content differs")
			}
		}
	}
	if !found {
		t.Error("node file missing from archive")
	}
}
