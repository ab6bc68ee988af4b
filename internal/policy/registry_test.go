package policy

import (
	"testing"
	"time"

	"github.com/eliteGoblin/focusd/disk_clean/internal/domain"
)

func TestRegistry_DefaultRulesCoverEveryCategory(t *testing.T) {
	r := NewRegistry(testPaths(t.TempDir()), allowAll)

	covered := make(map[domain.Category]bool)
	for _, rule := range r.GetAll() {
		covered[rule.Category()] = true
	}
	for _, c := range domain.AllCategories() {
		if !covered[c] {
			t.Errorf("no rule reports into category %q", c)
		}
	}
}

func TestRegistry_NamesAreUnique(t *testing.T) {
	rules := DefaultRules(testPaths(t.TempDir()), allowAll, time.Now)
	r := NewRegistry(testPaths(t.TempDir()), allowAll)

	if got := len(r.List()); got != len(rules) {
		t.Errorf("expected %d distinct rule names, got %d", len(rules), got)
	}
}

func TestRegistry_RegisterReplaceKeepsPosition(t *testing.T) {
	a := &DirRule{Spec: Spec{Label: "a", Kind: domain.CategoryTemp}}
	b := &DirRule{Spec: Spec{Label: "b", Kind: domain.CategoryLogs}}
	r := NewRegistryWithRules(a, b)

	replacement := &DirRule{Spec: Spec{Label: "a", Kind: domain.CategoryCache}}
	r.Register(replacement)

	names := r.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected order %v", names)
	}
	got, ok := r.Get("a")
	if !ok {
		t.Fatal("expected rule a")
	}
	if got.Category() != domain.CategoryCache {
		t.Errorf("expected replaced rule, got category %q", got.Category())
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistryWithRules()
	if _, ok := r.Get("nope"); ok {
		t.Error("expected unknown rule to be absent")
	}
}

func TestRegistry_ForCategories(t *testing.T) {
	r := NewRegistry(testPaths(t.TempDir()), allowAll)

	if got, want := len(r.ForCategories()), len(r.GetAll()); got != want {
		t.Errorf("no filter: expected %d rules, got %d", want, got)
	}

	installer := r.ForCategories(domain.CategoryInstallerCache)
	if len(installer) != 2 {
		t.Fatalf("expected 2 installer rules, got %d", len(installer))
	}
	for _, rule := range installer {
		if rule.Category() != domain.CategoryInstallerCache {
			t.Errorf("unexpected category %q", rule.Category())
		}
	}

	both := r.ForCategories(domain.CategoryTemp, domain.CategoryRecycle)
	if len(both) != 2 {
		t.Errorf("expected temp and recycle rules, got %d", len(both))
	}
}

func TestRegistry_Owners(t *testing.T) {
	r := NewRegistry(testPaths(t.TempDir()), allowAll)
	owners := r.Owners()

	browsers := owners[domain.CategoryCache]
	found := false
	for _, name := range browsers {
		if name == "chrome" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected chrome among browser cache owners, got %v", browsers)
	}
	if _, ok := owners[domain.CategoryTemp]; ok {
		t.Error("temp files have no owner processes")
	}
}
