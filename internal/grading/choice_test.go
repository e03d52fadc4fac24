package grading_test

import (
	"testing"

	"github.com/jeeyeonnnn/PJY-Quiz/internal/grading"
)

func TestSetGrader(t *testing.T) {
	g := grading.NewSetGrader()

	cases := []struct {
		name      string
		submitted []int64
		correct   []int64
		want      bool
	}{
		{"single match", []int64{7}, []int64{7}, true},
		{"single miss", []int64{7}, []int64{8}, false},
		{"order does not matter", []int64{5, 3}, []int64{3, 5}, true},
		{"subset is wrong", []int64{3}, []int64{3, 5}, false},
		{"superset is wrong", []int64{3, 5, 9}, []int64{3, 5}, false},
		{"empty vs empty", nil, nil, true},
		{"empty vs key", nil, []int64{2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Grade(tc.submitted, tc.correct); got != tc.want {
				t.Errorf("Grade(%v, %v) = %v, want %v", tc.submitted, tc.correct, got, tc.want)
			}
		})
	}
}

func TestGradeDoesNotMutateInput(t *testing.T) {
	g := grading.NewSetGrader()
	submitted := []int64{9, 1, 4}
	g.Grade(submitted, []int64{1, 4, 9})
	if submitted[0] != 9 || submitted[1] != 1 || submitted[2] != 4 {
		t.Errorf("input slice mutated: %v", submitted)
	}
}

func TestSortedIDs(t *testing.T) {
	in := []int64{4, 1, 3}
	out := grading.SortedIDs(in)
	if out[0] != 1 || out[1] != 3 || out[2] != 4 {
		t.Errorf("SortedIDs = %v", out)
	}
	if in[0] != 4 {
		t.Errorf("input mutated: %v", in)
	}
}
