// Package grading decides whether a submitted answer matches a
// question's answer key. A question is fully correct or fully
// incorrect; partial credit is not supported.
package grading

import "sort"

// Grader grades one question: the ids the user picked against the ids
// marked correct in the key.
type Grader interface {
	Grade(submitted, correct []int64) bool
}

type setGrader struct{}

// NewSetGrader returns the default grader: order-insensitive set
// equality. Multiple correct selections require precisely the full
// set, no more, no fewer.
func NewSetGrader() Grader { return setGrader{} }

func (setGrader) Grade(submitted, correct []int64) bool {
	if len(submitted) != len(correct) {
		return false
	}
	a := SortedIDs(submitted)
	b := SortedIDs(correct)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SortedIDs returns a sorted copy, leaving the input untouched.
func SortedIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
