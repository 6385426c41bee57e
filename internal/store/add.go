package store

import (
	"fmt"
	"time"

	gitconfig "github.com/go-git/go-git/v5/config"

	"github.com/forkzero/lattice/internal/node"
)

const initialVersion = "1.0.0"

// Author resolves the creating user for attribution: the override
// (typically the workspace config author) first, then git global
// config, then "unknown".
func Author(override string) string {
	if override != "" {
		return override
	}
	cfg, err := gitconfig.LoadConfig(gitconfig.GlobalScope)
	if err == nil && cfg.User.Name != "" {
		if cfg.User.Email != "" {
			return fmt.Sprintf("%s <%s>", cfg.User.Name, cfg.User.Email)
		}
		return cfg.User.Name
	}
	return "unknown"
}

// MakeEdgeRefs binds a list of target ids at version "1.0.0" each.
func MakeEdgeRefs(targets []string) []node.EdgeRef {
	var refs []node.EdgeRef
	for _, t := range targets {
		if t == "" {
			continue
		}
		refs = append(refs, node.EdgeRef{Target: t, Version: initialVersion})
	}
	return refs
}

// AddOptions carries the fields shared by all node kinds.
type AddOptions struct {
	Title      string
	Body       string
	Tags       []string
	Visibility string
	Author     string
}

func (s *Store) newNode(kind node.Kind, opts AddOptions) (*node.Node, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	id, err := s.NextID(kind)
	if err != nil {
		return nil, err
	}
	return &node.Node{
		ID:         id,
		Type:       kind,
		Title:      opts.Title,
		Body:       opts.Body,
		Status:     node.StatusActive,
		Version:    initialVersion,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		CreatedBy:  Author(opts.Author),
		Tags:       opts.Tags,
		Visibility: opts.Visibility,
	}, nil
}

// AddSource creates a research source node.
func (s *Store) AddSource(opts AddOptions, meta node.SourceMeta) (*node.Node, error) {
	n, err := s.newNode(node.KindSource, opts)
	if err != nil {
		return nil, err
	}
	if meta.URL != "" || meta.Reliability != "" || meta.RetrievedAt != "" || len(meta.Citations) > 0 {
		n.Meta = &node.Meta{Source: &meta}
	}
	return n, SaveNode(s.NodePath(n), n)
}

// AddThesis creates a thesis node supported by the given sources.
func (s *Store) AddThesis(opts AddOptions, meta node.ThesisMeta, supportedBy []string) (*node.Node, error) {
	n, err := s.newNode(node.KindThesis, opts)
	if err != nil {
		return nil, err
	}
	if meta.Category != "" || meta.Confidence != 0 {
		n.Meta = &node.Meta{Thesis: &meta}
	}
	if refs := MakeEdgeRefs(supportedBy); len(refs) > 0 {
		n.EnsureEdges().SupportedBy = refs
	}
	return n, SaveNode(s.NodePath(n), n)
}

// RequirementOptions carries the requirement-specific fields.
type RequirementOptions struct {
	Priority    node.Priority
	Category    string
	Acceptance  []string
	DerivesFrom []string
	DependsOn   []string
}

// AddRequirement creates a requirement node.
func (s *Store) AddRequirement(opts AddOptions, req RequirementOptions) (*node.Node, error) {
	n, err := s.newNode(node.KindRequirement, opts)
	if err != nil {
		return nil, err
	}
	n.Priority = req.Priority
	n.Category = req.Category
	n.Acceptance = req.Acceptance
	if refs := MakeEdgeRefs(req.DerivesFrom); len(refs) > 0 {
		n.EnsureEdges().DerivesFrom = refs
	}
	if refs := MakeEdgeRefs(req.DependsOn); len(refs) > 0 {
		n.EnsureEdges().DependsOn = refs
	}
	return n, SaveNode(s.NodePath(n), n)
}

// AddImplementation creates an implementation node satisfying the
// given requirements.
func (s *Store) AddImplementation(opts AddOptions, meta node.ImplementationMeta, satisfies []string) (*node.Node, error) {
	n, err := s.newNode(node.KindImplementation, opts)
	if err != nil {
		return nil, err
	}
	if meta.Language != "" || meta.TestCommand != "" || len(meta.Files) > 0 {
		n.Meta = &node.Meta{Implementation: &meta}
	}
	if refs := MakeEdgeRefs(satisfies); len(refs) > 0 {
		n.EnsureEdges().Satisfies = refs
	}
	return n, SaveNode(s.NodePath(n), n)
}
