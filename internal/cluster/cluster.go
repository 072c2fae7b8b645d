// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster builds the topic forest for one query: a root topic,
// one node per branch, one per subcluster, and one leaf per paper. Nodes
// sharing a parent and a label are merged, and node ids are derived from
// the parent id and label so rebuilding from the same input reproduces
// the same ids.
package cluster

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pdiddy/research-intel/pkg/types"
)

const (
	defaultRootLabel = "Research"
	unclassified     = "Unclassified"
)

type builder struct {
	nodes []types.ClusterNode
	edges []types.ClusterEdge
	index map[string]int // node id to position in nodes
}

// Build assembles the tree for pairs under a root labelled rootLabel. An
// empty pair list yields an empty tree.
func Build(rootLabel string, pairs []types.ClassifiedRecord) types.ClusterTree {
	if len(pairs) == 0 {
		return types.ClusterTree{Nodes: []types.ClusterNode{}, Edges: []types.ClusterEdge{}}
	}
	b := &builder{index: make(map[string]int)}

	root := b.node("", types.LevelRoot, labelOr(rootLabel, defaultRootLabel))
	for _, p := range pairs {
		branch := b.node(root, types.LevelBranch, labelOr(p.Classification.Branch, unclassified))
		sub := b.node(branch, types.LevelSubcluster, labelOr(p.Classification.Subcluster, unclassified))
		leaf := b.node(sub, types.LevelLeaf, labelOr(p.Record.Title, p.Record.ID))
		b.attach(leaf, p.Record)
	}
	return types.ClusterTree{Nodes: b.nodes, Edges: b.edges}
}

// node returns the id of the child of parent with label, creating it on
// first sight. Later spellings of a merged label are dropped.
func (b *builder) node(parent string, level int, label string) string {
	id := NodeID(parent, label)
	if _, ok := b.index[id]; ok {
		return id
	}
	b.index[id] = len(b.nodes)
	b.nodes = append(b.nodes, types.ClusterNode{
		ID:       id,
		Label:    label,
		Level:    level,
		ParentID: parent,
		Papers:   []types.Record{},
	})
	if parent != "" {
		b.edges = append(b.edges, types.ClusterEdge{From: parent, To: id})
	}
	return id
}

// attach adds r to a node unless a paper with the same id is already there.
func (b *builder) attach(id string, r types.Record) {
	n := &b.nodes[b.index[id]]
	for _, existing := range n.Papers {
		if r.ID != "" && existing.ID == r.ID {
			return
		}
	}
	n.Papers = append(n.Papers, r)
	n.PaperCount = len(n.Papers)
}

// NodeID derives a node id from its parent id and normalized label.
func NodeID(parent, label string) string {
	h := sha256.Sum256([]byte(parent + "\x00" + MergeKey(label)))
	return "n" + hex.EncodeToString(h[:])[:12]
}

// MergeKey is the label form compared when merging siblings: lowercase
// with whitespace runs collapsed.
func MergeKey(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

func labelOr(label, fallback string) string {
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return fallback
	}
	return label
}

// RootsOf returns every level-0 node.
func RootsOf(t types.ClusterTree) []types.ClusterNode {
	var out []types.ClusterNode
	for _, n := range t.Nodes {
		if n.Level == types.LevelRoot && n.IsRoot() {
			out = append(out, n)
		}
	}
	return out
}

// ChildrenOf returns every node whose parent is id, in build order.
func ChildrenOf(t types.ClusterTree, id string) []types.ClusterNode {
	var out []types.ClusterNode
	if id == "" {
		return out
	}
	for _, n := range t.Nodes {
		if n.ParentID == id {
			out = append(out, n)
		}
	}
	return out
}

// FindByID returns the node with id.
func FindByID(t types.ClusterTree, id string) (types.ClusterNode, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return types.ClusterNode{}, false
}

// Leaves returns every node that carries papers.
func Leaves(t types.ClusterTree) []types.ClusterNode {
	var out []types.ClusterNode
	for _, n := range t.Nodes {
		if len(n.Papers) > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Ancestors returns the chain from id's parent up to its root.
func Ancestors(t types.ClusterTree, id string) []types.ClusterNode {
	var out []types.ClusterNode
	n, ok := FindByID(t, id)
	for ok && n.ParentID != "" && len(out) <= len(t.Nodes) {
		n, ok = FindByID(t, n.ParentID)
		if ok {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks the structural invariants: roots have no parent, every
// other node's parent exists one level up, ids are unique, edges mirror
// parent links, and paper counts match.
func Validate(t types.ClusterTree) error {
	byID := make(map[string]types.ClusterNode, len(t.Nodes))
	for _, n := range t.Nodes {
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("duplicate node id %s", n.ID)
		}
		byID[n.ID] = n
	}
	for _, n := range t.Nodes {
		if n.PaperCount != len(n.Papers) {
			return fmt.Errorf("node %s: paper count %d, papers %d", n.ID, n.PaperCount, len(n.Papers))
		}
		if n.Level == types.LevelRoot {
			if n.ParentID != "" {
				return fmt.Errorf("root %s has parent %s", n.ID, n.ParentID)
			}
			continue
		}
		p, ok := byID[n.ParentID]
		if !ok {
			return fmt.Errorf("node %s: parent %q not found", n.ID, n.ParentID)
		}
		if p.Level != n.Level-1 {
			return fmt.Errorf("node %s at level %d has parent at level %d", n.ID, n.Level, p.Level)
		}
	}
	edges := 0
	for _, e := range t.Edges {
		child, ok := byID[e.To]
		if !ok || child.ParentID != e.From {
			return fmt.Errorf("edge %s->%s does not match a parent link", e.From, e.To)
		}
		edges++
	}
	if want := len(t.Nodes) - len(RootsOf(t)); edges != want {
		return fmt.Errorf("%d edges for %d non-root nodes", edges, want)
	}
	return nil
}
