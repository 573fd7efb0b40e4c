// Package classify maps window titles to categories with an ordered rule table.
package classify

import (
	"fmt"
	"regexp"
	"strings"
)

// Uncategorized is returned when no rule matches
const Uncategorized = "not categorized"

// Rule maps a case-insensitive regular expression to a category
type Rule struct {
	Pattern  string `yaml:"pattern" json:"pattern"`
	Category string `yaml:"category" json:"category"`
}

type compiledRule struct {
	re       *regexp.Regexp
	category string
}

// Table evaluates rules in order; the first match wins
type Table struct {
	rules []compiledRule
}

// DefaultRules returns the rule set a fresh install starts with
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "spyder", Category: "programming"},
		{Pattern: "stackoverflow", Category: "programming"},
		{Pattern: "stackexchange", Category: "programming"},
		{Pattern: "github", Category: "programming"},
		{Pattern: "eingabeaufforderung", Category: "programming"},
		{Pattern: "texstudio", Category: "documents"},
		{Pattern: "word", Category: "documents"},
		{Pattern: "adobe acrobat reader", Category: "documents"},
		{Pattern: "thunderbird", Category: "mail"},
		{Pattern: "whatsapp", Category: "wasted time"},
		{Pattern: "mozilla", Category: "wasted time"},
		{Pattern: "chrome", Category: "wasted time"},
		{Pattern: "mingw64", Category: "programming"},
		{Pattern: "sperrbildschirm", Category: "idle"},
	}
}

// New compiles rules into a table
func New(rules []Rule) (*Table, error) {
	table := &Table{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if strings.TrimSpace(rule.Category) == "" {
			return nil, fmt.Errorf("rule %d (%q): empty category", i, rule.Pattern)
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i, rule.Pattern, err)
		}
		table.rules = append(table.rules, compiledRule{re: re, category: rule.Category})
	}
	return table, nil
}

// Default returns a table built from DefaultRules
func Default() *Table {
	table, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return table
}

// Categorize returns the category of the first rule matching title
func (t *Table) Categorize(title string) string {
	for _, rule := range t.rules {
		if rule.re.MatchString(title) {
			return rule.category
		}
	}
	return Uncategorized
}

// Categories lists the distinct categories in rule order, followed by Uncategorized
func (t *Table) Categories() []string {
	seen := make(map[string]bool, len(t.rules)+1)
	out := make([]string, 0, len(t.rules)+1)
	add := func(category string) {
		if !seen[category] {
			seen[category] = true
			out = append(out, category)
		}
	}
	for _, rule := range t.rules {
		add(rule.category)
	}
	add(Uncategorized)
	return out
}

// NormalizeTitle lower-cases a window title and strips commas so that stored
// titles stay CSV safe.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(title), ",", ""))
}
