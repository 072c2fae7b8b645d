// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Branch is one allowed top-level category. Keywords drive the
// deterministic fallback and Subclusters are sub-labels already known
// for the branch.
type Branch struct {
	Name        string   `json:"name" yaml:"name"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Subclusters []string `json:"subclusters,omitempty" yaml:"subclusters,omitempty"`
}

// BranchNames returns the names of branches in declaration order.
func BranchNames(branches []Branch) []string {
	names := make([]string, len(branches))
	for i, b := range branches {
		names[i] = b.Name
	}
	return names
}

// ClassificationResult assigns a record to exactly one allowed branch.
// Branch always carries the canonical spelling from the allowed set and
// Confidence is within [0,1].
type ClassificationResult struct {
	Branch     string  `json:"branch" yaml:"branch"`
	Subcluster string  `json:"subcluster" yaml:"subcluster"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Reasoning  string  `json:"reasoning" yaml:"reasoning"`

	// Fallback is true when the keyword fallback produced the result.
	Fallback bool `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// ClassifiedRecord pairs a record with its classification.
type ClassifiedRecord struct {
	Record         Record               `json:"record" yaml:"record"`
	Classification ClassificationResult `json:"classification" yaml:"classification"`
}
