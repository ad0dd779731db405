/*
Copyright © 2026 the biofvm authors.
This file is part of biofvm.

biofvm is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

biofvm is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with biofvm.  If not, see <http://www.gnu.org/licenses/>.
*/

package biofvm

import (
	"fmt"
	"math"
)

// thomas is the LU factorization of the n×n tridiagonal system of one
// implicit diffusion-decay substep along a mesh line with zero-flux ends:
//
//	diagonal:     1 + 2c1 + c2 (interior), 1 + c1 + c2 (ends)
//	off-diagonal: -c1
//
// where c1 = DΔt/h² and c2 = λΔt/3. A line of one voxel has diagonal 1 + c2.
type thomas struct {
	offDiag float64
	cPrime  []float64 // modified super-diagonal
	inv     []float64 // inverse of the modified diagonal
}

func newThomas(n int, c1, c2 float64) (*thomas, error) {
	t := &thomas{
		offDiag: -c1,
		cPrime:  make([]float64, n),
		inv:     make([]float64, n),
	}
	diag := func(i int) float64 {
		switch {
		case n == 1:
			return 1 + c2
		case i == 0 || i == n-1:
			return 1 + c1 + c2
		default:
			return 1 + 2*c1 + c2
		}
	}
	var prev float64
	for i := 0; i < n; i++ {
		denom := diag(i)
		if i > 0 {
			denom -= t.offDiag * prev
		}
		if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
			return nil, fmt.Errorf("%w: row %d of %d (c1=%g, c2=%g)", ErrDegeneratePivot, i, n, c1, c2)
		}
		t.inv[i] = 1 / denom
		t.cPrime[i] = t.offDiag * t.inv[i]
		prev = t.cPrime[i]
	}
	return t, nil
}

// solve overwrites the right-hand side x[start], x[start+step], ...
// with the solution of the system.
func (t *thomas) solve(x []float64, start, step int) {
	n := len(t.inv)
	a := t.offDiag

	// Forward elimination
	idx := start
	x[idx] *= t.inv[0]
	for i := 1; i < n; i++ {
		prev := x[idx]
		idx += step
		x[idx] = (x[idx] - a*prev) * t.inv[i]
	}

	// Back substitution
	for i := n - 2; i >= 0; i-- {
		next := x[idx]
		idx -= step
		x[idx] -= t.cPrime[i] * next
	}
}
