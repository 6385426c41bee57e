// Package lint checks a workspace for structural problems: malformed
// files, missing version bindings, dangling references, duplicate ids.
// Some issues carry enough context to be fixed mechanically.
package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/mod/semver"

	"github.com/forkzero/lattice/internal/graph"
	"github.com/forkzero/lattice/internal/node"
	"github.com/forkzero/lattice/internal/store"
)

// Severity of a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Fix identifies a mechanical repair for a fixable issue.
type Fix string

const (
	FixNone          Fix = ""
	FixCreateConfig  Fix = "create-config"
	FixSetVersion    Fix = "set-version"
	FixBindEdges     Fix = "bind-edges"
	FixRefreshDigest Fix = "refresh-digest"
)

// Issue is one lint finding.
type Issue struct {
	File     string   `json:"file,omitempty"`
	NodeID   string   `json:"node_id,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fix      Fix      `json:"-"`
	Fixable  bool     `json:"fixable"`
}

// Report collects all findings for a workspace.
type Report struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any finding is an error.
func (r *Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Counts returns (errors, warnings, fixable).
func (r *Report) Counts() (errors, warnings, fixable int) {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
		if i.Fixable {
			fixable++
		}
	}
	return
}

func (r *Report) add(i Issue) {
	i.Fixable = i.Fix != FixNone
	r.Issues = append(r.Issues, i)
}

type loadedNode struct {
	path string
	kind node.Kind // kind implied by the directory
	node *node.Node
}

// Run lints the workspace rooted at s.
func Run(s *store.Store) (*Report, error) {
	report := &Report{}

	if _, err := os.Stat(s.Root); os.IsNotExist(err) {
		report.add(Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("workspace directory %s does not exist", s.Root),
		})
		return report, nil
	}

	if _, err := os.Stat(filepath.Join(s.Root, store.ConfigFile)); os.IsNotExist(err) {
		report.add(Issue{
			File:     filepath.Join(s.Root, store.ConfigFile),
			Severity: SeverityWarning,
			Message:  "missing workspace config",
			Fix:      FixCreateConfig,
		})
	}

	loaded, err := loadRaw(s, report)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string) // id -> first file
	ids := make(map[string]bool)
	for _, ln := range loaded {
		ids[ln.node.ID] = true
	}

	for _, ln := range loaded {
		n := ln.node
		if n.ID == "" {
			report.add(Issue{File: ln.path, Severity: SeverityError, Message: "node has no id"})
		}
		if n.Title == "" {
			report.add(Issue{File: ln.path, NodeID: n.ID, Severity: SeverityError, Message: "node has no title"})
		}
		if n.Version == "" {
			report.add(Issue{
				File: ln.path, NodeID: n.ID,
				Severity: SeverityWarning,
				Message:  "node has no version",
				Fix:      FixSetVersion,
			})
		} else if !semver.IsValid("v" + n.Version) {
			report.add(Issue{
				File: ln.path, NodeID: n.ID,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("version %q is not valid semver", n.Version),
			})
		}
		if n.Type != ln.kind {
			report.add(Issue{
				File: ln.path, NodeID: n.ID,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("node type %s does not match directory %s", n.Type, ln.kind.Dir()),
			})
		}
		if n.Type == node.KindRequirement && n.Priority == "" {
			report.add(Issue{
				File: ln.path, NodeID: n.ID,
				Severity: SeverityWarning,
				Message:  "requirement has no priority",
			})
		}
		if n.Digest != "" && n.Digest != store.Digest(n) {
			report.add(Issue{
				File: ln.path, NodeID: n.ID,
				Severity: SeverityWarning,
				Message:  "content changed without a version bump (stale digest)",
				Fix:      FixRefreshDigest,
			})
		}

		unbound := 0
		for _, fe := range n.AllEdges() {
			if fe.Ref.Target == "" {
				report.add(Issue{
					File: ln.path, NodeID: n.ID,
					Severity: SeverityError,
					Message:  fmt.Sprintf("%s edge has an empty target", fe.Relation),
				})
				continue
			}
			if fe.Ref.Version == "" {
				unbound++
			}
			if !ids[fe.Ref.Target] {
				report.add(Issue{
					File: ln.path, NodeID: n.ID,
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("%s edge targets unknown node %s", fe.Relation, fe.Ref.Target),
				})
			}
		}
		if unbound > 0 {
			report.add(Issue{
				File: ln.path, NodeID: n.ID,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("%d edge(s) missing a version binding", unbound),
				Fix:      FixBindEdges,
			})
		}

		if n.ID != "" {
			if first, dup := seen[n.ID]; dup {
				report.add(Issue{
					File: ln.path, NodeID: n.ID,
					Severity: SeverityError,
					Message:  fmt.Sprintf("duplicate id (also in %s)", first),
				})
			} else {
				seen[n.ID] = ln.path
			}
		}
	}

	return report, nil
}

// loadRaw loads every node file without skip-on-error so parse
// failures become findings.
func loadRaw(s *store.Store, report *Report) ([]loadedNode, error) {
	var out []loadedNode
	for _, kind := range node.Kinds {
		dir := filepath.Join(s.Root, kind.Dir())
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{yaml,yml}")
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
		sort.Strings(matches)
		for _, rel := range matches {
			path := filepath.Join(dir, rel)
			n, err := store.LoadNode(path)
			if err != nil {
				report.add(Issue{File: path, Severity: SeverityError, Message: err.Error()})
				continue
			}
			out = append(out, loadedNode{path: path, kind: kind, node: n})
		}
	}
	return out, nil
}

// Apply repairs every fixable issue in the report and returns how many
// were fixed.
func Apply(s *store.Store, report *Report) (int, error) {
	fixed := 0
	for _, issue := range report.Issues {
		switch issue.Fix {
		case FixCreateConfig:
			if err := os.WriteFile(issue.File, []byte("# lattice workspace configuration\nversion: 1\n"), 0644); err != nil {
				return fixed, fmt.Errorf("creating config: %w", err)
			}
			fixed++
		case FixSetVersion, FixBindEdges, FixRefreshDigest:
			n, err := store.LoadNode(issue.File)
			if err != nil {
				return fixed, err
			}
			switch issue.Fix {
			case FixSetVersion:
				n.Version = "1.0.0"
			case FixBindEdges:
				bindEdges(n)
			case FixRefreshDigest:
				n.Version = graph.BumpPatch(n.Version)
			}
			if err := store.SaveNode(issue.File, n); err != nil {
				return fixed, err
			}
			fixed++
		}
	}
	return fixed, nil
}

func bindEdges(n *node.Node) {
	if n.Edges == nil {
		return
	}
	for _, refs := range [][]node.EdgeRef{
		n.Edges.SupportedBy, n.Edges.DerivesFrom, n.Edges.DependsOn,
		n.Edges.Satisfies, n.Edges.Extends, n.Edges.RevealsGapIn,
		n.Edges.Challenges, n.Edges.Validates, n.Edges.ConflictsWith,
		n.Edges.Supersedes,
	} {
		for i := range refs {
			if refs[i].Version == "" {
				refs[i].Version = "1.0.0"
			}
		}
	}
}
