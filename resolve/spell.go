// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

// Suggestions for misspelled names, as in
// "undefined: cout (did you mean count?)" or
// "unknown type System.Int23 (did you mean System.Int32?)".

import "strings"

// Nearest returns the candidate closest to x in edit distance, ignoring
// case, or "" if every candidate needs at least half as many edits as x
// has bytes. Ties go to the earliest candidate, so callers pass names in
// a stable order.
func Nearest(x string, candidates []string) string {
	x = strings.ToLower(x)
	best, bestD := "", (len(x)+1)/2
	for _, c := range candidates {
		if d := distance(x, strings.ToLower(c), bestD); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// distance returns the Levenshtein distance between the byte strings x
// and y, or some value above limit once the distance is known to
// exceed it. It keeps a single row of the edit matrix.
func distance(x, y string, limit int) int {
	if len(x) > len(y) {
		x, y = y, x
	}
	n := 0
	for n < len(x) && x[n] == y[n] {
		n++
	}
	x, y = x[n:], y[n:]
	if x == "" {
		return len(y)
	}

	row := make([]int, len(y)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(x); i++ {
		diag := row[0]
		row[0] = i
		lo := i
		for j := 1; j <= len(y); j++ {
			sub := diag
			if x[i-1] != y[j-1] {
				sub++
			}
			diag = row[j]
			row[j] = min(sub, row[j-1]+1, row[j]+1)
			lo = min(lo, row[j])
		}
		if lo > limit {
			return lo
		}
	}
	return row[len(y)]
}
