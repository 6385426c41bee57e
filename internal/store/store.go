// Package store reads and writes graph nodes as YAML files under the
// .lattice directory. Each node is one file; the directory a file
// lives in determines which kind loader picks it up.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
	"lukechampine.com/blake3"

	"github.com/forkzero/lattice/internal/node"
)

// LatticeDir is the workspace directory name.
const LatticeDir = ".lattice"

// ConfigFile is the workspace config file name inside LatticeDir.
const ConfigFile = "config.yaml"

// ErrNotFound is returned when a workspace or node cannot be located.
var ErrNotFound = fmt.Errorf("not found")

// Store is a handle on one .lattice workspace.
type Store struct {
	// Root is the absolute path of the .lattice directory itself.
	Root string

	// Warnf receives skip-and-continue diagnostics. Defaults to stderr.
	Warnf func(format string, args ...any)
}

// At opens a store rooted at an explicit .lattice path.
func At(root string) *Store {
	return &Store{
		Root: root,
		Warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
}

// Open walks upward from startDir looking for a .lattice directory.
func Open(startDir string) (*Store, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving start dir: %w", err)
	}
	for {
		candidate := filepath.Join(dir, LatticeDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return At(candidate), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("no %s directory found (run 'lattice init' first): %w", LatticeDir, ErrNotFound)
		}
		dir = parent
	}
}

// Init scaffolds a workspace under dir. With force set an existing
// workspace is left in place and only missing pieces are created.
func Init(dir string, force bool) (*Store, error) {
	root := filepath.Join(dir, LatticeDir)
	if _, err := os.Stat(root); err == nil && !force {
		return nil, fmt.Errorf("%s already exists (use --force to reinitialize)", root)
	}

	for _, kind := range node.Kinds {
		if err := os.MkdirAll(filepath.Join(root, kind.Dir()), 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", kind.Dir(), err)
		}
	}

	cfgPath := filepath.Join(root, ConfigFile)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := os.WriteFile(cfgPath, []byte(defaultConfig), 0644); err != nil {
			return nil, fmt.Errorf("writing config: %w", err)
		}
	}

	return At(root), nil
}

const defaultConfig = `# lattice workspace configuration
version: 1
`

// LoadNode reads and parses a single node file.
func LoadNode(path string) (*node.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var n node.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &n, nil
}

// SaveNode writes a node back to path, refreshing its content digest.
func SaveNode(path string, n *node.Node) error {
	n.Digest = Digest(n)
	data, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling node %s: %w", n.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating node dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Digest hashes the node content that a version bump should cover.
func Digest(n *node.Node) string {
	sum := blake3.Sum256([]byte(n.Title + "\x00" + n.Body))
	return fmt.Sprintf("%x", sum[:16])
}

// LoadByKind loads every parseable node file under the kind's
// directory, including category subdirectories. Files that fail to
// parse are warned about and skipped; a missing directory is empty,
// not an error.
func (s *Store) LoadByKind(kind node.Kind) ([]*node.Node, error) {
	dir := filepath.Join(s.Root, kind.Dir())
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(matches)

	var nodes []*node.Node
	for _, rel := range matches {
		path := filepath.Join(dir, rel)
		n, err := LoadNode(path)
		if err != nil {
			s.Warnf("skipping %s: %v", path, err)
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// LoadAll loads every node of every kind.
func (s *Store) LoadAll() ([]*node.Node, error) {
	var all []*node.Node
	for _, kind := range node.Kinds {
		nodes, err := s.LoadByKind(kind)
		if err != nil {
			return nil, err
		}
		all = append(all, nodes...)
	}
	return all, nil
}

// FindNodePath locates the file holding the node with the given id.
func (s *Store) FindNodePath(id string) (string, error) {
	for _, kind := range node.Kinds {
		dir := filepath.Join(s.Root, kind.Dir())
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{yaml,yml}")
		if err != nil {
			return "", fmt.Errorf("scanning %s: %w", dir, err)
		}
		sort.Strings(matches)
		for _, rel := range matches {
			path := filepath.Join(dir, rel)
			n, err := LoadNode(path)
			if err != nil {
				continue
			}
			if n.ID == id {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("node %s: %w", id, ErrNotFound)
}

// Get loads the node with the given id.
func (s *Store) Get(id string) (*node.Node, error) {
	path, err := s.FindNodePath(id)
	if err != nil {
		return nil, err
	}
	return LoadNode(path)
}

// Update loads a node, applies fn, and saves it in place.
func (s *Store) Update(id string, fn func(*node.Node) error) (*node.Node, error) {
	path, err := s.FindNodePath(id)
	if err != nil {
		return nil, err
	}
	n, err := LoadNode(path)
	if err != nil {
		return nil, err
	}
	if err := fn(n); err != nil {
		return nil, err
	}
	if err := SaveNode(path, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Slugify reduces a title to a file-name-safe slug of at most maxLen
// characters.
func Slugify(title string, maxLen int) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// NextID generates the next sequential id for a prefix, scanning the
// existing nodes of the kind. IDs look like req-001, thx-014.
func (s *Store) NextID(kind node.Kind) (string, error) {
	prefix := idPrefix(kind)
	nodes, err := s.LoadByKind(kind)
	if err != nil {
		return "", err
	}
	max := 0
	for _, n := range nodes {
		numPart, ok := strings.CutPrefix(n.ID, prefix+"-")
		if !ok {
			continue
		}
		num := 0
		if _, err := fmt.Sscanf(numPart, "%d", &num); err == nil && num > max {
			max = num
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, max+1), nil
}

func idPrefix(kind node.Kind) string {
	switch kind {
	case node.KindSource:
		return "src"
	case node.KindThesis:
		return "thx"
	case node.KindRequirement:
		return "req"
	case node.KindImplementation:
		return "imp"
	}
	return string(kind)
}

// NodePath computes the canonical file path for a node. Requirements
// nest under their category directory when one is set; other kinds sit
// directly in their kind directory, named by the id without its
// prefix.
func (s *Store) NodePath(n *node.Node) string {
	dir := filepath.Join(s.Root, n.Type.Dir())
	name := strings.TrimPrefix(n.ID, idPrefix(n.Type)+"-")
	if n.Type == node.KindRequirement {
		name = name + "-" + Slugify(n.Title, 40)
		if n.Category != "" {
			dir = filepath.Join(dir, Slugify(n.Category, 40))
		}
	}
	return filepath.Join(dir, name+".yaml")
}
