package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forkzero/lattice/internal/graph"
	"github.com/forkzero/lattice/internal/node"
	"github.com/forkzero/lattice/internal/store"
)

// Service executes tool calls against one workspace.
type Service struct {
	store *store.Store
}

// NewService wraps a workspace store.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// ToolDefinitions lists the tools this server exposes.
func (s *Service) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "lattice_summary",
			Description: "Summarize the knowledge graph: node counts, resolution state, orphans and drift.",
			InputSchema: InputSchema{Type: "object"},
		},
		{
			Name:        "lattice_list",
			Description: "List nodes, optionally restricted to one kind.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"kind": {Type: "string", Description: "Node kind to list", Enum: []string{"source", "thesis", "requirement", "implementation"}},
				},
			},
		},
		{
			Name:        "lattice_get",
			Description: "Fetch a single node by id.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"id": {Type: "string", Description: "Node id, e.g. req-001"},
				},
				Required: []string{"id"},
			},
		},
		{
			Name:        "lattice_search",
			Description: "Search nodes by text, priority, tag or category.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"query":    {Type: "string", Description: "Substring matched against id, title and body"},
					"kind":     {Type: "string", Enum: []string{"source", "thesis", "requirement", "implementation"}},
					"priority": {Type: "string", Enum: []string{"P0", "P1", "P2"}},
					"tag":      {Type: "string"},
					"category": {Type: "string"},
				},
			},
		},
		{
			Name:        "lattice_drift",
			Description: "Report edges whose version binding fell behind the target node's current version.",
			InputSchema: InputSchema{Type: "object"},
		},
		{
			Name:        "lattice_trace",
			Description: "Walk the graph from a node, following edges up to a depth.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"id":        {Type: "string", Description: "Start node id"},
					"direction": {Type: "string", Enum: []string{"down", "up", "both"}},
					"depth":     {Type: "integer", Description: "Maximum hops from the start node"},
				},
				Required: []string{"id"},
			},
		},
		{
			Name:        "lattice_add_requirement",
			Description: "Create a requirement node.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"title":        {Type: "string"},
					"body":         {Type: "string"},
					"priority":     {Type: "string", Enum: []string{"P0", "P1", "P2"}},
					"category":     {Type: "string"},
					"derives_from": {Type: "string", Description: "Comma-separated thesis ids"},
				},
				Required: []string{"title"},
			},
		},
		{
			Name:        "lattice_resolve",
			Description: "Resolve a requirement.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"id":    {Type: "string"},
					"state": {Type: "string", Enum: []string{"verified", "blocked", "deferred", "wontfix"}},
					"note":  {Type: "string"},
				},
				Required: []string{"id", "state"},
			},
		},
	}
}

// ExecuteTool dispatches one tool call and returns its JSON payload.
func (s *Service) ExecuteTool(name string, args map[string]any) (string, error) {
	switch name {
	case "lattice_summary":
		return s.withIndex(func(idx graph.Index) (any, error) {
			return graph.Summarize(idx), nil
		})
	case "lattice_list":
		return s.toolList(args)
	case "lattice_get":
		id, err := stringArg(args, "id", true)
		if err != nil {
			return "", err
		}
		n, err := s.store.Get(id)
		if err != nil {
			return "", err
		}
		return encode(n)
	case "lattice_search":
		return s.toolSearch(args)
	case "lattice_drift":
		return s.withIndex(func(idx graph.Index) (any, error) {
			return graph.DetectDrift(idx), nil
		})
	case "lattice_trace":
		return s.toolTrace(args)
	case "lattice_add_requirement":
		return s.toolAddRequirement(args)
	case "lattice_resolve":
		return s.toolResolve(args)
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

func (s *Service) withIndex(fn func(graph.Index) (any, error)) (string, error) {
	idx, err := graph.BuildIndex(s.store)
	if err != nil {
		return "", err
	}
	out, err := fn(idx)
	if err != nil {
		return "", err
	}
	return encode(out)
}

func (s *Service) toolList(args map[string]any) (string, error) {
	kindStr, _ := stringArg(args, "kind", false)
	var filter graph.SearchFilter
	if kindStr != "" {
		kind, err := node.ParseKind(kindStr)
		if err != nil {
			return "", err
		}
		filter.Kind = kind
	}
	return s.withIndex(func(idx graph.Index) (any, error) {
		return listing(graph.Search(idx, filter)), nil
	})
}

func (s *Service) toolSearch(args map[string]any) (string, error) {
	filter := graph.SearchFilter{}
	filter.Query, _ = stringArg(args, "query", false)
	filter.Tag, _ = stringArg(args, "tag", false)
	filter.Category, _ = stringArg(args, "category", false)
	if kindStr, _ := stringArg(args, "kind", false); kindStr != "" {
		kind, err := node.ParseKind(kindStr)
		if err != nil {
			return "", err
		}
		filter.Kind = kind
	}
	if prioStr, _ := stringArg(args, "priority", false); prioStr != "" {
		prio, err := node.ParsePriority(prioStr)
		if err != nil {
			return "", err
		}
		filter.Priority = prio
	}
	return s.withIndex(func(idx graph.Index) (any, error) {
		return listing(graph.Search(idx, filter)), nil
	})
}

func (s *Service) toolTrace(args map[string]any) (string, error) {
	id, err := stringArg(args, "id", true)
	if err != nil {
		return "", err
	}
	dir := graph.DirectionDownstream
	switch v, _ := stringArg(args, "direction", false); v {
	case "up":
		dir = graph.DirectionUpstream
	case "both":
		dir = graph.DirectionBoth
	}
	depth := 3
	if v, ok := args["depth"].(float64); ok {
		if v < 0 {
			return "", fmt.Errorf("depth must be non-negative")
		}
		depth = int(v)
	}
	return s.withIndex(func(idx graph.Index) (any, error) {
		visits := graph.Traverse(idx, id, dir, depth)
		type traceEntry struct {
			ID    string    `json:"id"`
			Kind  node.Kind `json:"kind"`
			Title string    `json:"title"`
			Depth int       `json:"depth"`
		}
		out := make([]traceEntry, 0, len(visits))
		for _, v := range visits {
			out = append(out, traceEntry{ID: v.Node.ID, Kind: v.Node.Type, Title: v.Node.Title, Depth: v.Depth})
		}
		return out, nil
	})
}

func (s *Service) toolAddRequirement(args map[string]any) (string, error) {
	title, err := stringArg(args, "title", true)
	if err != nil {
		return "", err
	}
	opts := store.AddOptions{Title: title}
	opts.Body, _ = stringArg(args, "body", false)

	reqOpts := store.RequirementOptions{}
	reqOpts.Category, _ = stringArg(args, "category", false)
	if prioStr, _ := stringArg(args, "priority", false); prioStr != "" {
		prio, err := node.ParsePriority(prioStr)
		if err != nil {
			return "", err
		}
		reqOpts.Priority = prio
	}
	if derives, _ := stringArg(args, "derives_from", false); derives != "" {
		reqOpts.DerivesFrom = splitCommaList(derives)
	}

	n, err := s.store.AddRequirement(opts, reqOpts)
	if err != nil {
		return "", err
	}
	return encode(n)
}

func (s *Service) toolResolve(args map[string]any) (string, error) {
	id, err := stringArg(args, "id", true)
	if err != nil {
		return "", err
	}
	stateStr, err := stringArg(args, "state", true)
	if err != nil {
		return "", err
	}
	state, err := node.ParseResolution(stateStr)
	if err != nil {
		return "", err
	}
	note, _ := stringArg(args, "note", false)
	n, err := s.store.Resolve(id, state, note, "")
	if err != nil {
		return "", err
	}
	return encode(n)
}

type listEntry struct {
	ID       string        `json:"id"`
	Kind     node.Kind     `json:"kind"`
	Title    string        `json:"title"`
	Version  string        `json:"version"`
	Priority node.Priority `json:"priority,omitempty"`
	Resolved bool          `json:"resolved"`
}

func listing(nodes []*node.Node) []listEntry {
	out := make([]listEntry, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, listEntry{
			ID:       n.ID,
			Kind:     n.Type,
			Title:    n.Title,
			Version:  n.Version,
			Priority: n.Priority,
			Resolved: n.IsResolved(),
		})
	}
	return out
}

func stringArg(args map[string]any, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required argument %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	if required && s == "" {
		return "", fmt.Errorf("argument %q must not be empty", key)
	}
	return s, nil
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func encode(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}
