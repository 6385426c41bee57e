// Package export renders the graph for consumption outside the
// workspace: narrative markdown for a chosen audience, a raw JSON
// dump, or a compressed archive of the node files.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/forkzero/lattice/internal/graph"
	"github.com/forkzero/lattice/internal/node"
)

// Audience selects the narrative framing.
type Audience string

const (
	AudienceInvestor    Audience = "investor"
	AudienceContributor Audience = "contributor"
	AudienceOverview    Audience = "overview"
)

// ParseAudience converts a user-supplied string into an Audience.
func ParseAudience(s string) (Audience, error) {
	switch s {
	case "investor", "contributor", "overview":
		return Audience(s), nil
	}
	return "", fmt.Errorf("unknown audience %q (want investor, contributor or overview)", s)
}

// Options controls an export.
type Options struct {
	Title           string
	Audience        Audience
	IncludeInternal bool
}

// visible filters out internal nodes unless the export includes them.
func visible(idx graph.Index, includeInternal bool) []*node.Node {
	var out []*node.Node
	for _, id := range idx.SortedIDs() {
		n := idx[id]
		if n.IsInternal() && !includeInternal {
			continue
		}
		out = append(out, n)
	}
	return out
}

// JSON renders every visible node as an indented JSON array.
func JSON(idx graph.Index, opts Options) ([]byte, error) {
	nodes := visible(idx, opts.IncludeInternal)
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding nodes: %w", err)
	}
	return data, nil
}

// Narrative renders a markdown document for the audience.
func Narrative(idx graph.Index, opts Options) string {
	nodes := visible(idx, opts.IncludeInternal)
	byKind := make(map[node.Kind][]*node.Node)
	for _, n := range nodes {
		byKind[n.Type] = append(byKind[n.Type], n)
	}

	title := opts.Title
	if title == "" {
		title = "Project Narrative"
	}

	var lines []string
	lines = append(lines, "# "+title, "")

	switch opts.Audience {
	case AudienceInvestor:
		lines = append(lines, investorBody(idx, byKind)...)
	case AudienceContributor:
		lines = append(lines, contributorBody(idx, byKind)...)
	default:
		lines = append(lines, overviewBody(byKind)...)
	}

	return strings.Join(lines, "\n") + "\n"
}

func investorBody(idx graph.Index, byKind map[node.Kind][]*node.Node) []string {
	var lines []string
	lines = append(lines, "## Strategic Theses", "")
	for _, t := range byKind[node.KindThesis] {
		lines = append(lines, fmt.Sprintf("### %s", t.Title), "")
		if t.Body != "" {
			lines = append(lines, t.Body, "")
		}
		if t.Meta != nil && t.Meta.Thesis != nil && t.Meta.Thesis.Confidence > 0 {
			lines = append(lines, fmt.Sprintf("*Confidence: %.0f%%*", t.Meta.Thesis.Confidence*100), "")
		}
	}

	total := len(byKind[node.KindRequirement])
	implemented := countImplemented(idx, byKind[node.KindRequirement])
	lines = append(lines, "## Execution", "")
	lines = append(lines, fmt.Sprintf("%d of %d requirements carry a verified implementation.", implemented, total), "")
	return lines
}

func contributorBody(idx graph.Index, byKind map[node.Kind][]*node.Node) []string {
	var lines []string
	lines = append(lines, "## Requirements by Priority", "")
	groups := groupByPriority(byKind[node.KindRequirement])
	for _, p := range []node.Priority{node.PriorityP0, node.PriorityP1, node.PriorityP2, ""} {
		reqs := groups[p]
		if len(reqs) == 0 {
			continue
		}
		label := string(p)
		if label == "" {
			label = "Unprioritized"
		}
		lines = append(lines, "### "+label, "")
		for _, r := range reqs {
			state := "open"
			if r.Resolution != nil {
				state = string(r.Resolution.State)
			}
			lines = append(lines, fmt.Sprintf("- **%s** (%s, %s)", r.Title, r.ID, state))
			for _, a := range r.Acceptance {
				lines = append(lines, "  - [ ] "+a)
			}
		}
		lines = append(lines, "")
	}

	if impls := byKind[node.KindImplementation]; len(impls) > 0 {
		lines = append(lines, "## Implementations", "")
		for _, im := range impls {
			lines = append(lines, fmt.Sprintf("- %s (%s)", im.Title, im.ID))
		}
		lines = append(lines, "")
	}
	return lines
}

func overviewBody(byKind map[node.Kind][]*node.Node) []string {
	var lines []string
	for _, kind := range node.Kinds {
		nodes := byKind[kind]
		if len(nodes) == 0 {
			continue
		}
		dir := kind.Dir()
		lines = append(lines, "## "+strings.ToUpper(dir[:1])+dir[1:], "")
		for _, n := range nodes {
			lines = append(lines, fmt.Sprintf("- **%s** (%s, v%s)", n.Title, n.ID, n.Version))
		}
		lines = append(lines, "")
	}
	return lines
}

// countImplemented counts requirements targeted by at least one
// satisfies edge.
func countImplemented(idx graph.Index, reqs []*node.Node) int {
	satisfied := make(map[string]bool)
	for _, id := range idx.SortedIDs() {
		n := idx[id]
		if n.Edges == nil {
			continue
		}
		for _, ref := range n.Edges.Satisfies {
			satisfied[ref.Target] = true
		}
	}
	count := 0
	for _, r := range reqs {
		if satisfied[r.ID] {
			count++
		}
	}
	return count
}

func groupByPriority(reqs []*node.Node) map[node.Priority][]*node.Node {
	out := make(map[node.Priority][]*node.Node)
	for _, r := range reqs {
		out[r.Priority] = append(out[r.Priority], r)
	}
	for _, group := range out {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}
	return out
}
