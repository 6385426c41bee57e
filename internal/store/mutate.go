package store

import (
	"fmt"
	"time"

	"github.com/forkzero/lattice/internal/graph"
	"github.com/forkzero/lattice/internal/node"
)

// Resolve closes out a requirement with the given state and note.
func (s *Store) Resolve(id string, state node.Resolution, note, author string) (*node.Node, error) {
	return s.Update(id, func(n *node.Node) error {
		if n.Type != node.KindRequirement {
			return fmt.Errorf("node %s is a %s, only requirements can be resolved", id, n.Type)
		}
		n.Resolution = &node.ResolutionInfo{
			State:      state,
			ResolvedAt: time.Now().UTC().Format(time.RFC3339),
			ResolvedBy: Author(author),
			Note:       note,
		}
		n.UpdatedAt = n.Resolution.ResolvedAt
		return nil
	})
}

// Verify records that an implementation satisfies a requirement at the
// requirement's current version. An existing satisfies edge to the
// requirement is rebound; otherwise a new one is appended. The
// implementation's patch version is bumped to mark the re-check.
func (s *Store) Verify(implID, reqID, rationale string) (*node.Node, error) {
	req, err := s.Get(reqID)
	if err != nil {
		return nil, err
	}
	if req.Type != node.KindRequirement {
		return nil, fmt.Errorf("node %s is a %s, not a requirement", reqID, req.Type)
	}

	return s.Update(implID, func(n *node.Node) error {
		if n.Type != node.KindImplementation {
			return fmt.Errorf("node %s is a %s, only implementations verify requirements", implID, n.Type)
		}
		edges := n.EnsureEdges()
		rebound := false
		for i := range edges.Satisfies {
			if edges.Satisfies[i].Target == reqID {
				edges.Satisfies[i].Version = req.Version
				if rationale != "" {
					edges.Satisfies[i].Rationale = rationale
				}
				rebound = true
				break
			}
		}
		if !rebound {
			edges.Satisfies = append(edges.Satisfies, node.EdgeRef{
				Target:    reqID,
				Version:   req.Version,
				Rationale: rationale,
			})
		}
		n.Version = graph.BumpPatch(n.Version)
		n.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		return nil
	})
}

// GapKinds are the accepted refine gap classifications.
var GapKinds = []string{"missing", "underspecified", "conflict", "scope"}

// Refine records a gap discovered during implementation: a new
// sub-requirement is created, the parent requirement gains a
// depends_on edge to it, and the discovering implementation (when
// given) gains a reveals_gap_in edge to the parent.
func (s *Store) Refine(parentID, implID, gapKind string, opts AddOptions) (*node.Node, error) {
	valid := false
	for _, k := range GapKinds {
		if k == gapKind {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid gap kind %q (want one of %v)", gapKind, GapKinds)
	}

	parent, err := s.Get(parentID)
	if err != nil {
		return nil, err
	}
	if parent.Type != node.KindRequirement {
		return nil, fmt.Errorf("node %s is a %s, gaps refine requirements", parentID, parent.Type)
	}

	sub, err := s.AddRequirement(opts, RequirementOptions{
		Priority:    parent.Priority,
		Category:    parent.Category,
		DerivesFrom: nil,
	})
	if err != nil {
		return nil, err
	}
	sub.Tags = append(sub.Tags, "gap:"+gapKind)
	sub.EnsureEdges().Extends = []node.EdgeRef{{Target: parentID, Version: parent.Version}}
	if err := SaveNode(s.NodePath(sub), sub); err != nil {
		return nil, err
	}

	if _, err := s.Update(parentID, func(n *node.Node) error {
		n.EnsureEdges().DependsOn = append(n.Edges.DependsOn, node.EdgeRef{
			Target:  sub.ID,
			Version: sub.Version,
		})
		n.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		return nil
	}); err != nil {
		return nil, err
	}

	if implID != "" {
		if _, err := s.Update(implID, func(n *node.Node) error {
			if n.Type != node.KindImplementation {
				return fmt.Errorf("node %s is a %s, not an implementation", implID, n.Type)
			}
			n.EnsureEdges().RevealsGapIn = append(n.Edges.RevealsGapIn, node.EdgeRef{
				Target:    parentID,
				Version:   parent.Version,
				Rationale: "gap: " + gapKind,
			})
			return nil
		}); err != nil {
			return nil, err
		}
	}

	return sub, nil
}
