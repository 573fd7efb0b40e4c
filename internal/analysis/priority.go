package analysis

import "strings"

// UnrankedPriority is the rank of a category missing from the table. It loses
// against every ranked category.
const UnrankedPriority = 1_000_000

// PriorityTable maps a category to its rank. Lower ranks win overlaps.
type PriorityTable map[string]int

// NewPriorityTable ranks categories in the given order starting at 1
func NewPriorityTable(ordered ...string) PriorityTable {
	table := make(PriorityTable, len(ordered))
	for i, category := range ordered {
		key := normalizeCategory(category)
		if _, dup := table[key]; !dup {
			table[key] = i + 1
		}
	}
	return table
}

// DefaultPriorityTable ranks productive categories above passive ones
func DefaultPriorityTable() PriorityTable {
	return NewPriorityTable("programming", "documents", "mail", "wasted time", "not categorized", "idle")
}

// Rank returns the rank of category, or UnrankedPriority
func (p PriorityTable) Rank(category string) int {
	if rank, ok := p[normalizeCategory(category)]; ok {
		return rank
	}
	return UnrankedPriority
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
