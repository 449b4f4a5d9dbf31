package check

import (
	"reflect"
	"strings"
	"testing"
)

func TestOrderEntities_Sorted(t *testing.T) {
	got := OrderEntities([]string{"tank/b", "tank/a", "tank/c"}, nil, nil)
	want := []string{"tank/a", "tank/b", "tank/c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderEntities() = %v, want %v", got, want)
	}
}

// Important entities come first in their configured order; absent ones
// are injected so they get reported instead of silently skipped.
func TestOrderEntities_ImportantInjection(t *testing.T) {
	got := OrderEntities([]string{"A", "B"}, nil, []string{"X", "A"})
	want := []string{"X", "A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderEntities() = %v, want %v", got, want)
	}
}

func TestOrderEntities_ImportantOrderKept(t *testing.T) {
	got := OrderEntities([]string{"a", "b", "c"}, nil, []string{"c", "a"})
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderEntities() = %v, want %v", got, want)
	}
}

func TestOrderEntities_IgnorePattern(t *testing.T) {
	ignore := func(name string) bool { return strings.HasPrefix(name, "hidden/") }

	got := OrderEntities([]string{"tank/a", "hidden/b", "tank/c"}, ignore, nil)
	want := []string{"tank/a", "tank/c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderEntities() = %v, want %v", got, want)
	}
}

// The ignore pattern never suppresses an important entity.
func TestOrderEntities_IgnoreDoesNotApplyToImportant(t *testing.T) {
	ignore := func(name string) bool { return strings.HasPrefix(name, "hidden/") }

	got := OrderEntities([]string{"tank/a", "hidden/b"}, ignore, []string{"hidden/b"})
	want := []string{"hidden/b", "tank/a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderEntities() = %v, want %v", got, want)
	}
}

func TestOrderEntities_Dedup(t *testing.T) {
	got := OrderEntities([]string{"a", "a", "b"}, nil, []string{"b", "b"})
	want := []string{"b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderEntities() = %v, want %v", got, want)
	}
}

func TestOrderEntities_Empty(t *testing.T) {
	got := OrderEntities(nil, nil, nil)
	if len(got) != 0 {
		t.Errorf("OrderEntities() = %v, want empty", got)
	}
}
