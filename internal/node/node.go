// Package node defines the typed knowledge-graph node model and its
// YAML serialization. Nodes are stored one per file under the .lattice
// directory and reference each other through version-bound edges.
package node

import "fmt"

// Kind identifies what a node represents.
type Kind string

const (
	KindSource         Kind = "source"
	KindThesis         Kind = "thesis"
	KindRequirement    Kind = "requirement"
	KindImplementation Kind = "implementation"
)

// Kinds lists all node kinds in storage-directory order.
var Kinds = []Kind{KindSource, KindThesis, KindRequirement, KindImplementation}

// Dir returns the storage directory name for the kind.
func (k Kind) Dir() string {
	switch k {
	case KindSource:
		return "sources"
	case KindThesis:
		return "theses"
	case KindRequirement:
		return "requirements"
	case KindImplementation:
		return "implementations"
	}
	return string(k)
}

// ParseKind converts a user-supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "source", "thesis", "requirement", "implementation":
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown node kind %q", s)
}

// Status is the lifecycle state of a node.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
	StatusSuperseded Status = "superseded"
)

// Priority ranks requirements.
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
)

// ParsePriority converts a user-supplied string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "P0", "P1", "P2":
		return Priority(s), nil
	}
	return "", fmt.Errorf("invalid priority %q (want P0, P1 or P2)", s)
}

// Resolution marks how a requirement was closed out.
type Resolution string

const (
	ResolutionVerified Resolution = "verified"
	ResolutionBlocked  Resolution = "blocked"
	ResolutionDeferred Resolution = "deferred"
	ResolutionWontfix  Resolution = "wontfix"
)

// ParseResolution converts a user-supplied string into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "verified", "blocked", "deferred", "wontfix":
		return Resolution(s), nil
	}
	return "", fmt.Errorf("invalid resolution %q (want verified, blocked, deferred or wontfix)", s)
}

// ResolutionInfo records a requirement's resolution.
type ResolutionInfo struct {
	State      Resolution `yaml:"state" json:"state"`
	ResolvedAt string     `yaml:"resolved_at" json:"resolved_at"`
	ResolvedBy string     `yaml:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	Note       string     `yaml:"note,omitempty" json:"note,omitempty"`
}

// EdgeRef is a reference from one node to another, bound to the target
// version the author relied on at the time. A missing version means the
// reference predates version bindings and is treated as "1.0.0".
type EdgeRef struct {
	Target    string `yaml:"target" json:"target"`
	Version   string `yaml:"version,omitempty" json:"version,omitempty"`
	Rationale string `yaml:"rationale,omitempty" json:"rationale,omitempty"`
	Strength  string `yaml:"strength,omitempty" json:"strength,omitempty"`
}

// BoundVersion returns the version this reference was made against.
func (r EdgeRef) BoundVersion() string {
	if r.Version == "" {
		return "1.0.0"
	}
	return r.Version
}

// Edges holds a node's outbound references, bucketed by relationship.
type Edges struct {
	SupportedBy   []EdgeRef `yaml:"supported_by,omitempty" json:"supported_by,omitempty"`
	DerivesFrom   []EdgeRef `yaml:"derives_from,omitempty" json:"derives_from,omitempty"`
	DependsOn     []EdgeRef `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Satisfies     []EdgeRef `yaml:"satisfies,omitempty" json:"satisfies,omitempty"`
	Extends       []EdgeRef `yaml:"extends,omitempty" json:"extends,omitempty"`
	RevealsGapIn  []EdgeRef `yaml:"reveals_gap_in,omitempty" json:"reveals_gap_in,omitempty"`
	Challenges    []EdgeRef `yaml:"challenges,omitempty" json:"challenges,omitempty"`
	Validates     []EdgeRef `yaml:"validates,omitempty" json:"validates,omitempty"`
	ConflictsWith []EdgeRef `yaml:"conflicts_with,omitempty" json:"conflicts_with,omitempty"`
	Supersedes    []EdgeRef `yaml:"supersedes,omitempty" json:"supersedes,omitempty"`
}

// FlatEdge is a single outbound reference with its bucket name attached.
type FlatEdge struct {
	Relation string
	Ref      EdgeRef
}

// buckets enumerates the edge buckets in their canonical order.
func (e *Edges) buckets() []struct {
	name string
	refs []EdgeRef
} {
	return []struct {
		name string
		refs []EdgeRef
	}{
		{"supported_by", e.SupportedBy},
		{"derives_from", e.DerivesFrom},
		{"depends_on", e.DependsOn},
		{"satisfies", e.Satisfies},
		{"extends", e.Extends},
		{"reveals_gap_in", e.RevealsGapIn},
		{"challenges", e.Challenges},
		{"validates", e.Validates},
		{"conflicts_with", e.ConflictsWith},
		{"supersedes", e.Supersedes},
	}
}

// Bucket returns the slice for a named relation, or nil if the name is
// not a known bucket.
func (e *Edges) Bucket(relation string) []EdgeRef {
	for _, b := range e.buckets() {
		if b.name == relation {
			return b.refs
		}
	}
	return nil
}

// SourceMeta holds source-specific fields.
type SourceMeta struct {
	URL         string   `yaml:"url,omitempty" json:"url,omitempty"`
	Citations   []string `yaml:"citations,omitempty" json:"citations,omitempty"`
	Reliability string   `yaml:"reliability,omitempty" json:"reliability,omitempty"`
	RetrievedAt string   `yaml:"retrieved_at,omitempty" json:"retrieved_at,omitempty"`
}

// ThesisMeta holds thesis-specific fields.
type ThesisMeta struct {
	Category   string  `yaml:"category,omitempty" json:"category,omitempty"`
	Confidence float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// ImplementationMeta holds implementation-specific fields.
type ImplementationMeta struct {
	Language    string   `yaml:"language,omitempty" json:"language,omitempty"`
	Files       []string `yaml:"files,omitempty" json:"files,omitempty"`
	TestCommand string   `yaml:"test_command,omitempty" json:"test_command,omitempty"`
}

// Meta carries the kind-specific portion of a node. At most one of the
// embedded structs is populated, matching the node's kind.
type Meta struct {
	Source         *SourceMeta         `yaml:"source,omitempty" json:"source,omitempty"`
	Thesis         *ThesisMeta         `yaml:"thesis,omitempty" json:"thesis,omitempty"`
	Implementation *ImplementationMeta `yaml:"implementation,omitempty" json:"implementation,omitempty"`
}

// Node is a single entry in the knowledge graph.
type Node struct {
	ID         string          `yaml:"id" json:"id"`
	Type       Kind            `yaml:"type" json:"type"`
	Title      string          `yaml:"title" json:"title"`
	Body       string          `yaml:"body,omitempty" json:"body,omitempty"`
	Status     Status          `yaml:"status" json:"status"`
	Version    string          `yaml:"version" json:"version"`
	CreatedAt  string          `yaml:"created_at" json:"created_at"`
	CreatedBy  string          `yaml:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedAt  string          `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
	Priority   Priority        `yaml:"priority,omitempty" json:"priority,omitempty"`
	Category   string          `yaml:"category,omitempty" json:"category,omitempty"`
	Tags       []string        `yaml:"tags,omitempty" json:"tags,omitempty"`
	Acceptance []string        `yaml:"acceptance,omitempty" json:"acceptance,omitempty"`
	Visibility string          `yaml:"visibility,omitempty" json:"visibility,omitempty"`
	Resolution *ResolutionInfo `yaml:"resolution,omitempty" json:"resolution,omitempty"`
	Meta       *Meta           `yaml:"meta,omitempty" json:"meta,omitempty"`
	Edges      *Edges          `yaml:"edges,omitempty" json:"edges,omitempty"`
	Digest     string          `yaml:"digest,omitempty" json:"digest,omitempty"`
}

// AllEdges flattens the node's edge buckets into a single sequence.
// Bucket order is fixed and within-bucket order is preserved, so two
// calls over the same node always yield the same sequence.
func (n *Node) AllEdges() []FlatEdge {
	if n.Edges == nil {
		return nil
	}
	var out []FlatEdge
	for _, b := range n.Edges.buckets() {
		for _, ref := range b.refs {
			out = append(out, FlatEdge{Relation: b.name, Ref: ref})
		}
	}
	return out
}

// EnsureEdges returns the node's edge set, allocating it if absent.
func (n *Node) EnsureEdges() *Edges {
	if n.Edges == nil {
		n.Edges = &Edges{}
	}
	return n.Edges
}

// IsResolved reports whether a requirement has been closed out.
func (n *Node) IsResolved() bool {
	return n.Resolution != nil
}

// IsInternal reports whether the node is hidden from external exports.
func (n *Node) IsInternal() bool {
	return n.Visibility == "internal"
}
