package idgen

import (
	"strings"
	"testing"
)

func TestNew_Format(t *testing.T) {
	id := New()
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("Expected 5 dash-separated groups, got %d in %q", len(parts), id)
	}
	for i, want := range []int{8, 4, 4, 4, 12} {
		if len(parts[i]) != want {
			t.Errorf("Group %d: expected %d chars, got %q", i, want, parts[i])
		}
	}
}

func TestWithPrefix(t *testing.T) {
	id := WithPrefix("ana_")
	if !strings.HasPrefix(id, "ana_") {
		t.Errorf("Expected ana_ prefix, got %q", id)
	}
	if len(id) != len("ana_")+24 {
		t.Errorf("Expected 24 hex chars after prefix, got %d in %q", len(id)-len("ana_"), id)
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := WithPrefix("dec_")
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}
