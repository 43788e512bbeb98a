// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gaitrec

import (
	"fmt"
	"math"
)

// Shape reports the dimensions of a 2-D array (rows = channels). The column
// count is read from the first row.
func Shape(a [][]float64) (rows, cols int) {
	if len(a) == 0 {
		return 0, 0
	}
	return len(a), len(a[0])
}

// emptyArray is the canonical empty 2-D array, shaped (1, 0).
func emptyArray() [][]float64 {
	return [][]float64{{}}
}

func cloneVector(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = cloneVector(row)
	}
	return out
}

// round rounds half to even at the given number of decimals.
func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.RoundToEven(v*p) / p
}

func roundVector(v []float64, decimals int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = round(x, decimals)
	}
	return out
}

func roundMatrix(m [][]float64, decimals int) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = roundVector(row, decimals)
	}
	return out
}

// resolveIndex maps a possibly negative index onto [0, n).
func resolveIndex(index, n int) (int, error) {
	i := index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, index, n)
	}
	return i, nil
}

// resolveSlice maps half-open bounds onto [0, n]. Negative bounds count from
// the end and out of range bounds are clamped, so the result is always a
// valid, possibly empty, range.
func resolveSlice(lo, hi, n int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		if i < 0 {
			return 0
		}
		if i > n {
			return n
		}
		return i
	}
	lo, hi = clamp(lo), clamp(hi)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
