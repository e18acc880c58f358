package nace

import (
	"fmt"
	"sort"
)

// Level bounds for the classification hierarchy.
const (
	MinLevel = 1
	MaxLevel = 4
)

// prefixLengths maps a hierarchy level to the code prefix length at that
// level. Index 0 is unused so levels index directly.
var prefixLengths = [MaxLevel + 1]int{0, 1, 3, 4, 5}

// UnknownCodeError is returned when a code cannot be resolved against the
// hierarchy. Callers decide whether to drop the offending record or surface
// the error.
type UnknownCodeError struct {
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown activity code: %q", e.Code)
}

// Node is one entry in the owned classification tree. Children are owned by
// their parent; Parent is a non-owning back-reference. The tree is rooted at
// a synthetic root node with an empty code.
type Node struct {
	Code     string
	Level    int
	Parent   *Node
	Children []*Node
}

// Hierarchy is the read-only four-level classification tree with a
// precomputed code-to-ancestors index for constant-time rollup.
type Hierarchy struct {
	root  *Node
	nodes map[string]*Node
	// ancestors[code][level-1] is the level-L prefix of code, for every
	// section and division in the static table.
	ancestors map[string][MaxLevel]string
}

// NewHierarchy builds the hierarchy from the static section/division table.
func NewHierarchy() *Hierarchy {
	h := &Hierarchy{
		root:      &Node{Code: "", Level: 0},
		nodes:     make(map[string]*Node),
		ancestors: make(map[string][MaxLevel]string),
	}

	sections := make([]string, 0, len(sectionDivisions))
	for s := range sectionDivisions {
		sections = append(sections, s)
	}
	sort.Strings(sections)

	for _, section := range sections {
		sn := &Node{Code: section, Level: 1, Parent: h.root}
		h.root.Children = append(h.root.Children, sn)
		h.nodes[section] = sn
		h.ancestors[section] = [MaxLevel]string{section, section, section, section}

		for _, div := range sectionDivisions[section] {
			code := section + div
			dn := &Node{Code: code, Level: 2, Parent: sn}
			sn.Children = append(sn.Children, dn)
			h.nodes[code] = dn
			h.ancestors[code] = [MaxLevel]string{section, code, code, code}
		}
	}

	return h
}

// Lookup returns the tree node for a section or division code.
func (h *Hierarchy) Lookup(code string) (*Node, bool) {
	n, ok := h.nodes[code]
	return n, ok
}

// Valid reports whether code is a well-formed activity code at any level:
// a known section, a known division, or a group/class whose division prefix
// is in the table and whose remaining characters are digits.
func (h *Hierarchy) Valid(code string) bool {
	return h.levelOf(code) != 0
}

// LevelOf returns the hierarchy level of code, or an UnknownCodeError.
func (h *Hierarchy) LevelOf(code string) (int, error) {
	if lvl := h.levelOf(code); lvl != 0 {
		return lvl, nil
	}
	return 0, &UnknownCodeError{Code: code}
}

func (h *Hierarchy) levelOf(code string) int {
	switch len(code) {
	case prefixLengths[1]:
		if _, ok := h.nodes[code]; ok {
			return 1
		}
	case prefixLengths[2]:
		if _, ok := h.nodes[code]; ok {
			return 2
		}
	case prefixLengths[3], prefixLengths[4]:
		if _, ok := h.nodes[code[:prefixLengths[2]]]; !ok {
			return 0
		}
		for _, c := range code[prefixLengths[2]:] {
			if c < '0' || c > '9' {
				return 0
			}
		}
		if len(code) == prefixLengths[3] {
			return 3
		}
		return 4
	}
	return 0
}

// Rollup truncates code to its ancestor at the target level. Rolling up to a
// level finer than the code's own level returns the code unchanged, so
// Rollup(c, 4) == c for every valid code and the operation is idempotent at
// a fixed level.
func (h *Hierarchy) Rollup(code string, level int) (string, error) {
	if level < MinLevel || level > MaxLevel {
		return "", fmt.Errorf("rollup level %d out of range [%d,%d]", level, MinLevel, MaxLevel)
	}

	// Fast path: sections and divisions are fully indexed.
	if anc, ok := h.ancestors[code]; ok {
		return anc[level-1], nil
	}

	codeLevel := h.levelOf(code)
	if codeLevel == 0 {
		return "", &UnknownCodeError{Code: code}
	}
	if level >= codeLevel {
		return code, nil
	}
	return code[:prefixLengths[level]], nil
}
