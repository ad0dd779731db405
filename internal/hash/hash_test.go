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

package hash

import "testing"

type params struct {
	Dt    float64
	Dims  [3]int
	Rates []float64
}

type unexported struct {
	f func()
	x int
}

type named string

func (n named) String() string { return "name:" + string(n) }

func TestHash(t *testing.T) {
	a := Hash(params{Dt: 0.01, Dims: [3]int{3, 3, 3}, Rates: []float64{1, 2}})
	b := Hash(params{Dt: 0.01, Dims: [3]int{3, 3, 3}, Rates: []float64{1, 2}})
	if a != b {
		t.Errorf("equal objects have different keys: %s != %s", a, b)
	}
	for _, p := range []params{
		{Dt: 0.02, Dims: [3]int{3, 3, 3}, Rates: []float64{1, 2}},
		{Dt: 0.01, Dims: [3]int{3, 3, 4}, Rates: []float64{1, 2}},
		{Dt: 0.01, Dims: [3]int{3, 3, 3}, Rates: []float64{1, 2.5}},
		{Dt: 0.01, Dims: [3]int{3, 3, 3}, Rates: []float64{1}},
	} {
		if Hash(p) == a {
			t.Errorf("%+v has the same key as the reference", p)
		}
	}
}

func TestHashFallback(t *testing.T) {
	a := Hash(unexported{x: 1})
	b := Hash(unexported{x: 2})
	if a == b || a == "" {
		t.Errorf("keys %q and %q", a, b)
	}
	if a != Hash(unexported{x: 1}) {
		t.Error("fallback key is not stable")
	}
}

func TestHashStringer(t *testing.T) {
	if h := Hash(named("x")); h != "name:x" {
		t.Errorf("have %s", h)
	}
}
