// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-intel/pkg/types"
)

// builtinKeywords is the fallback keyword table for the engineering
// department taxonomy, keyed by upper-case branch name.
var builtinKeywords = map[string][]string{
	"CSE": {
		"algorithm", "software", "computer", "computing", "machine learning", "deep learning",
		"neural", "database", "security", "compiler", "programming", "artificial intelligence",
		"data mining", "cloud", "operating system", "natural language",
	},
	"ECE": {
		"signal", "communication", "wireless", "vlsi", "antenna", "circuit", "embedded",
		"semiconductor", "microwave", "transistor", "modulation", "5g",
	},
	"EEE": {
		"renewable", "energy", "grid", "battery", "power system", "electric", "solar",
		"wind turbine", "inverter", "transformer", "voltage", "smart grid",
	},
	"MECH": {
		"mechanical", "thermal", "fluid", "robot", "manufacturing", "combustion",
		"vibration", "heat transfer", "automotive", "turbine",
	},
	"CIVIL": {
		"structural", "concrete", "construction", "geotechnical", "transportation",
		"bridge", "seismic", "water resources", "urban",
	},
	"CHEM": {
		"chemical", "catalyst", "reaction", "polymer", "process engineering",
		"separation", "reactor", "corrosion",
	},
	"BIOTECH": {
		"gene", "protein", "cell", "biological", "enzyme", "dna", "genome",
		"bioprocess", "microbial", "clinical",
	},
}

// builtinSubclusters seeds the prompt with sub-labels already in use.
var builtinSubclusters = map[string][]string{
	"CSE":     {"Machine Learning", "Computer Vision", "Natural Language Processing", "Cybersecurity", "Distributed Systems"},
	"ECE":     {"Signal Processing", "Wireless Communication", "VLSI Design", "Embedded Systems"},
	"EEE":     {"Power Systems", "Renewable Energy", "Energy Storage", "Power Electronics"},
	"MECH":    {"Robotics", "Thermal Engineering", "Manufacturing", "Fluid Mechanics"},
	"CIVIL":   {"Structural Engineering", "Geotechnical Engineering", "Transportation Engineering"},
	"CHEM":    {"Catalysis", "Polymer Science", "Process Engineering"},
	"BIOTECH": {"Genomics", "Bioprocess Engineering", "Synthetic Biology"},
}

var builtinOrder = []string{"CSE", "ECE", "EEE", "MECH", "CIVIL", "CHEM", "BIOTECH"}

// DefaultBranches returns the built-in engineering taxonomy.
func DefaultBranches() []types.Branch {
	out := make([]types.Branch, len(builtinOrder))
	for i, name := range builtinOrder {
		out[i] = types.Branch{
			Name:        name,
			Keywords:    append([]string(nil), builtinKeywords[name]...),
			Subclusters: append([]string(nil), builtinSubclusters[name]...),
		}
	}
	return out
}

// BranchesFromNames builds name-only branches, skipping blank names.
// Keywords and sub-labels for known names are resolved from the built-in
// table at classification time.
func BranchesFromNames(names []string) []types.Branch {
	var out []types.Branch
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		out = append(out, types.Branch{Name: n})
	}
	return out
}

type taxonomyFile struct {
	Branches []types.Branch `yaml:"branches"`
}

// LoadBranches reads a YAML taxonomy of the form
//
//	branches:
//	  - name: CSE
//	    keywords: [algorithm, software]
//	    subclusters: [Machine Learning]
func LoadBranches(path string) ([]types.Branch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy %s: %w", path, err)
	}
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing taxonomy %s: %w", path, err)
	}
	if len(f.Branches) == 0 {
		return nil, fmt.Errorf("taxonomy %s: %w", path, types.ErrNoBranches)
	}
	return f.Branches, nil
}

// keywordsFor returns the fallback keywords for b: its own list, else the
// built-in list for its name, else the words of its name.
func keywordsFor(b types.Branch) []string {
	kws := b.Keywords
	if len(kws) == 0 {
		kws = builtinKeywords[strings.ToUpper(strings.TrimSpace(b.Name))]
	}
	if len(kws) == 0 {
		kws = strings.Fields(b.Name)
	}
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// subclustersFor returns the known sub-labels for b.
func subclustersFor(b types.Branch) []string {
	if len(b.Subclusters) > 0 {
		return b.Subclusters
	}
	return builtinSubclusters[strings.ToUpper(strings.TrimSpace(b.Name))]
}

// TaxonomyHash fingerprints a branch set for cache keys.
func TaxonomyHash(branches []types.Branch) string {
	h := sha256.New()
	for _, b := range branches {
		h.Write([]byte(strings.ToLower(b.Name)))
		h.Write([]byte{0})
		for _, s := range b.Subclusters {
			h.Write([]byte(s))
			h.Write([]byte{1})
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
