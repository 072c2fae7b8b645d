// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Tree levels.
const (
	LevelRoot       = 0
	LevelBranch     = 1
	LevelSubcluster = 2
	LevelLeaf       = 3
)

// ClusterNode is one node of the cluster forest. Roots have an empty
// ParentID; every other node's parent is a node at Level-1. PaperCount
// always equals len(Papers).
type ClusterNode struct {
	ID         string   `json:"id" yaml:"id"`
	Label      string   `json:"label" yaml:"label"`
	Level      int      `json:"level" yaml:"level"`
	ParentID   string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Papers     []Record `json:"papers" yaml:"papers"`
	PaperCount int      `json:"paper_count" yaml:"paper_count"`
}

// IsRoot reports whether the node has no parent.
func (n ClusterNode) IsRoot() bool { return n.ParentID == "" }

// ClusterEdge is a parent to child adjacency.
type ClusterEdge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ClusterTree is an immutable forest built once per query.
type ClusterTree struct {
	Nodes []ClusterNode `json:"nodes" yaml:"nodes"`
	Edges []ClusterEdge `json:"edges" yaml:"edges"`
}

// HeatLevel is a discrete relevance bucket used for coloring.
type HeatLevel string

const (
	HeatHot  HeatLevel = "hot"
	HeatWarm HeatLevel = "warm"
	HeatMild HeatLevel = "mild"
	HeatCool HeatLevel = "cool"
	HeatCold HeatLevel = "cold"
)

// PaperPosition places one paper on the exploration canvas. Derived and
// never persisted.
type PaperPosition struct {
	PaperID      string    `json:"paper_id" yaml:"paper_id"`
	X            float64   `json:"x" yaml:"x"`
	Y            float64   `json:"y" yaml:"y"`
	Relevance    float64   `json:"relevance" yaml:"relevance"`
	Heat         HeatLevel `json:"heat" yaml:"heat"`
	Size         float64   `json:"size" yaml:"size"`
	ClusterLabel string    `json:"cluster_label" yaml:"cluster_label"`
	Level        int       `json:"level" yaml:"level"`
}

// ExploreResult is the answer to a free-text exploration query.
type ExploreResult struct {
	Query     string             `json:"query" yaml:"query"`
	Papers    []ClassifiedRecord `json:"papers" yaml:"papers"`
	Tree      ClusterTree        `json:"tree" yaml:"tree"`
	Positions []PaperPosition    `json:"positions" yaml:"positions"`
	Warnings  []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
