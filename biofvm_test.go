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
	"errors"
	"math"
	"testing"
)

// different returns true if a and b differ by more than the relative
// tolerance tol.
func different(a, b, tol float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tol || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// newTestEnv creates a microenvironment with a cube mesh of side n
// voxels of edge length 10 and one substrate with the given diffusion
// coefficient, decay rate and initial concentration.
func newTestEnv(t *testing.T, n int, d, λ, c0 float64) *Microenvironment {
	t.Helper()
	l := 10 * float64(n)
	e := &Microenvironment{
		TimeUnits: "minutes",
		InitFuncs: []DomainManipulator{
			UniformMesh([6]float64{0, 0, 0, l, l, l}, 10, "microns"),
			AddSubstrates(Substrate{
				Name:                 "oxygen",
				DiffusionCoefficient: d,
				DecayRate:            λ,
				InitialCondition:     c0,
			}),
			InitialDensities(),
			SetTimestep(0.01),
		},
	}
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestInitErrors(t *testing.T) {
	for _, test := range []struct {
		name  string
		funcs []DomainManipulator
	}{
		{"no mesh", []DomainManipulator{AddSubstrates(Substrate{Name: "a", DiffusionCoefficient: 1})}},
		{"no substrates", []DomainManipulator{UniformMesh([6]float64{0, 0, 0, 10, 10, 10}, 10, "")}},
		{"bad diffusion", []DomainManipulator{
			UniformMesh([6]float64{0, 0, 0, 10, 10, 10}, 10, ""),
			AddSubstrates(Substrate{Name: "a", DiffusionCoefficient: -1}),
		}},
		{"bad decay", []DomainManipulator{
			UniformMesh([6]float64{0, 0, 0, 10, 10, 10}, 10, ""),
			AddSubstrates(Substrate{Name: "a", DiffusionCoefficient: 1, DecayRate: math.NaN()}),
		}},
		{"bad timestep", []DomainManipulator{SetTimestep(0)}},
	} {
		t.Run(test.name, func(t *testing.T) {
			e := &Microenvironment{InitFuncs: test.funcs}
			if err := e.Init(); !errors.Is(err, ErrConfiguration) {
				t.Errorf("have %v, want %v", err, ErrConfiguration)
			}
		})
	}
}

func TestSubstrateRegistry(t *testing.T) {
	e := &Microenvironment{}
	if err := e.AddSubstrate(Substrate{Name: "oxygen", DiffusionCoefficient: 1e5, DecayRate: 0.1}); err != nil {
		t.Fatal(err)
	}
	if err := e.AddSubstrate(Substrate{Name: "glucose", DiffusionCoefficient: 1e3}); err != nil {
		t.Fatal(err)
	}
	if err := e.AddSubstrate(Substrate{Name: "oxygen"}); err == nil {
		t.Error("duplicate substrate should cause an error")
	}
	if err := e.AddSubstrate(Substrate{}); err == nil {
		t.Error("unnamed substrate should cause an error")
	}
	if e.NumSubstrates() != 2 {
		t.Errorf("have %d substrates", e.NumSubstrates())
	}
	if i, err := e.SubstrateIndex("glucose"); err != nil || i != 1 {
		t.Errorf("glucose: index %d, error %v", i, err)
	}
	if _, err := e.SubstrateIndex("lactate"); err == nil {
		t.Error("missing substrate should cause an error")
	}
	e.SetDecayRate(1, 0.5)
	if d := e.DecayRates(); d[0] != 0.1 || d[1] != 0.5 {
		t.Errorf("decay rates: %v", d)
	}
	e.SetDiffusionCoefficient(0, 2e5)
	if d := e.DiffusionCoefficients(); d[0] != 2e5 || d[1] != 1e3 {
		t.Errorf("diffusion coefficients: %v", d)
	}
	if names := e.SubstrateNames(); names[0] != "oxygen" || names[1] != "glucose" {
		t.Errorf("names: %v", names)
	}
}

func TestAddSubstrateAfterAllocation(t *testing.T) {
	e := newTestEnv(t, 2, 1, 0, 1)
	if err := e.AddSubstrate(Substrate{Name: "glucose", DiffusionCoefficient: 1}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("have %v, want %v", err, ErrConfiguration)
	}
	if err := UniformMesh([6]float64{0, 0, 0, 10, 10, 10}, 10, "")(e); !errors.Is(err, ErrConfiguration) {
		t.Errorf("have %v, want %v", err, ErrConfiguration)
	}
}

func TestCalculations(t *testing.T) {
	e := newTestEnv(t, 4, 1, 0, 1)
	e.NumWorkers = 3
	f := Calculations(func(e *Microenvironment, n int, c []float64, Δt float64) {
		c[0] = float64(n) * Δt
	})
	if err := f(e); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < e.Mesh.Len(); n++ {
		if want := float64(n) * 0.01; e.Density.Get(n, 0) != want {
			t.Fatalf("voxel %d: have %g, want %g", n, e.Density.Get(n, 0), want)
		}
	}
}

func TestParallelFor(t *testing.T) {
	for _, nw := range []int{0, 1, 3, 7, 100} {
		const n = 37
		seen := make([]int, n)
		parallelFor(nw, n, func(_, start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Errorf("%d workers: index %d visited %d times", nw, i, c)
			}
		}
	}
}
