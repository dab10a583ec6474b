package listdiff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		prev []string
		next []string
		want Result
	}{
		{
			name: "identical",
			prev: []string{"a", "b"},
			next: []string{"a", "b"},
			want: Result{Maintained: [][2]int{{0, 0}, {1, 1}}},
		},
		{
			name: "append",
			prev: []string{"a"},
			next: []string{"a", "b"},
			want: Result{Added: []int{1}, Maintained: [][2]int{{0, 0}}},
		},
		{
			name: "prepend shifts maintained",
			prev: []string{"a", "b"},
			next: []string{"c", "a", "b"},
			want: Result{
				Added:      []int{0},
				Maintained: [][2]int{{0, 1}, {1, 2}},
				Changed:    [][2]int{{0, 1}, {1, 2}},
			},
		},
		{
			name: "remove and reorder",
			prev: []string{"a", "b", "c"},
			next: []string{"c", "a"},
			want: Result{
				Removed:    []int{1},
				Maintained: [][2]int{{2, 0}, {0, 1}},
				Changed:    [][2]int{{2, 0}, {0, 1}},
			},
		},
		{
			name: "duplicates pair in order",
			prev: []string{"x", "x"},
			next: []string{"x"},
			want: Result{Removed: []int{1}, Maintained: [][2]int{{0, 0}}},
		},
		{
			name: "empty to full",
			prev: nil,
			next: []string{"a", "b"},
			want: Result{Added: []int{0, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.prev, tt.next)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffFunc(t *testing.T) {
	type row struct {
		id    int
		label string
	}
	prev := []row{{1, "one"}, {2, "two"}}
	next := []row{{2, "TWO"}, {3, "three"}}

	got := DiffFunc(prev, next, func(r row) int { return r.id })
	want := Result{
		Added:      []int{1},
		Removed:    []int{0},
		Maintained: [][2]int{{1, 0}},
		Changed:    [][2]int{{1, 0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DiffFunc() mismatch (-want +got):\n%s", diff)
	}
	if !got.HasChanges() {
		t.Error("HasChanges() = false, want true")
	}
	if Diff([]int{1}, []int{1}).HasChanges() {
		t.Error("HasChanges() = true for identical lists")
	}
}
