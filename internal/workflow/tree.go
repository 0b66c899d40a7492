// Package workflow models the hierarchical workflow tree shown by the monitor.
package workflow

import (
	"errors"
	"fmt"
	"sort"
)

// Kind is the level of a node in the tree.
type Kind string

const (
	KindWorkflow Kind = "workflow"
	KindCycle    Kind = "cycle"
	KindFamily   Kind = "family"
	KindTask     Kind = "task"
	KindJob      Kind = "job"
)

var ErrInvalidTree = errors.New("workflow: invalid tree")

// ValidKind reports whether k is one of the known node kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindWorkflow, KindCycle, KindFamily, KindTask, KindJob:
		return true
	}
	return false
}

// Ref identifies a node for display and telemetry.
type Ref struct {
	ID   string
	Name string
	Kind Kind
}

func (r Ref) String() string {
	if r.ID == "" {
		return "<none>"
	}
	return fmt.Sprintf("%s %s", r.Kind, r.ID)
}

// Node is one entry of the tree.
type Node struct {
	ID        string
	ParentID  string
	Name      string
	Kind      Kind
	State     string
	SortOrder int
	Children  []*Node
}

func (n *Node) Ref() Ref { return Ref{ID: n.ID, Name: n.Name, Kind: n.Kind} }

// Row is a node positioned for display.
type Row struct {
	Node  *Node
	Depth int
}

// Tree is an immutable forest of nodes indexed by ID.
type Tree struct {
	roots []*Node
	byID  map[string]*Node
}

// Build assembles a tree from flat nodes. Every ParentID must reference a
// node in the input; IDs must be unique.
func Build(nodes []Node) (*Tree, error) {
	t := &Tree{byID: make(map[string]*Node, len(nodes))}
	for i := range nodes {
		n := nodes[i]
		n.Children = nil
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node without id", ErrInvalidTree)
		}
		if !ValidKind(n.Kind) {
			return nil, fmt.Errorf("%w: node %q has kind %q", ErrInvalidTree, n.ID, n.Kind)
		}
		if _, dup := t.byID[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node %q", ErrInvalidTree, n.ID)
		}
		t.byID[n.ID] = &n
	}
	for _, n := range t.byID {
		if n.ParentID == "" {
			t.roots = append(t.roots, n)
			continue
		}
		parent, ok := t.byID[n.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: node %q references missing parent %q", ErrInvalidTree, n.ID, n.ParentID)
		}
		parent.Children = append(parent.Children, n)
	}
	sortNodes(t.roots)
	for _, n := range t.byID {
		sortNodes(n.Children)
	}
	if reached := len(t.Rows()); reached != len(t.byID) {
		return nil, fmt.Errorf("%w: %d nodes unreachable from a root (parent cycle)", ErrInvalidTree, len(t.byID)-reached)
	}
	return t, nil
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// Empty returns a tree with no nodes.
func Empty() *Tree { return &Tree{byID: map[string]*Node{}} }

func (t *Tree) Len() int { return len(t.byID) }

func (t *Tree) Roots() []*Node { return t.roots }

// Find returns the node with the given ID.
func (t *Tree) Find(id string) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Rows flattens the tree depth-first in display order.
func (t *Tree) Rows() []Row {
	out := make([]Row, 0, len(t.byID))
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			out = append(out, Row{Node: n, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(t.roots, 0)
	return out
}

// Flatten returns nodes without their child links, suitable for storage.
func (t *Tree) Flatten() []Node {
	rows := t.Rows()
	out := make([]Node, 0, len(rows))
	for _, r := range rows {
		n := *r.Node
		n.Children = nil
		out = append(out, n)
	}
	return out
}
