package policy

import (
	"time"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

// Registry holds the scan rules for one volume.
// Rules keep their registration order so scans and listings are stable.
type Registry struct {
	rules map[string]ScanRule
	order []string
}

// NewRegistry creates a registry with all default rules.
func NewRegistry(paths domain.ResolvedPaths, guard domain.PathGuard) *Registry {
	return NewRegistryWithRules(DefaultRules(paths, guard, time.Now)...)
}

// NewRegistryWithRules creates a registry with custom rules (for testing).
func NewRegistryWithRules(rules ...ScanRule) *Registry {
	r := &Registry{
		rules: make(map[string]ScanRule),
	}
	for _, rule := range rules {
		r.Register(rule)
	}
	return r
}

// Register adds a rule. A rule with the same name replaces the earlier one.
func (r *Registry) Register(rule ScanRule) {
	if _, exists := r.rules[rule.Name()]; !exists {
		r.order = append(r.order, rule.Name())
	}
	r.rules[rule.Name()] = rule
}

// Get returns a rule by name.
func (r *Registry) Get(name string) (ScanRule, bool) {
	rule, ok := r.rules[name]
	return rule, ok
}

// GetAll returns all rules in registration order.
func (r *Registry) GetAll() []ScanRule {
	result := make([]ScanRule, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.rules[name])
	}
	return result
}

// List returns all rule names.
func (r *Registry) List() []string {
	return append([]string(nil), r.order...)
}

// ForCategories returns the rules reporting into any of the given categories.
// No categories means all rules.
func (r *Registry) ForCategories(categories ...domain.Category) []ScanRule {
	if len(categories) == 0 {
		return r.GetAll()
	}
	want := make(map[domain.Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	var out []ScanRule
	for _, rule := range r.GetAll() {
		if want[rule.Category()] {
			out = append(out, rule)
		}
	}
	return out
}

// Owners maps each category to the process names that may lock its files.
func (r *Registry) Owners() map[domain.Category][]string {
	owners := make(map[domain.Category][]string)
	for _, rule := range r.GetAll() {
		if len(rule.Owners()) > 0 {
			owners[rule.Category()] = append(owners[rule.Category()], rule.Owners()...)
		}
	}
	return owners
}
