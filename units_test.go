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
	"math"
	"testing"

	"github.com/ctessum/unit"
)

func TestSIUnits(t *testing.T) {
	e := newTestEnv(t, 3, 100, 0.1, 1)
	d, err := e.DiffusionCoefficientSI(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Check(meter2PerSecond); err != nil {
		t.Error(err)
	}
	if want := 100 * 1.e-12 / 60; different(d.Value(), want, 1.e-12) {
		t.Errorf("diffusion coefficient: have %g, want %g", d.Value(), want)
	}
	λ, err := e.DecayRateSI(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := λ.Check(unit.Herz); err != nil {
		t.Error(err)
	}
	if want := 0.1 / 60; different(λ.Value(), want, 1.e-12) {
		t.Errorf("decay rate: have %g, want %g", λ.Value(), want)
	}
	l, err := e.DiffusionLength(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Check(unit.Meter); err != nil {
		t.Error(err)
	}
	if want := math.Sqrt(1000) * 1.e-6; different(l.Value(), want, 1.e-12) {
		t.Errorf("diffusion length: have %g, want %g", l.Value(), want)
	}

	e.SetDecayRate(0, 0)
	l, err = e.DiffusionLength(0)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(l.Value(), 1) {
		t.Errorf("diffusion length without decay: have %g, want +Inf", l.Value())
	}
}

func TestSIUnitsUnknownLabels(t *testing.T) {
	e := newTestEnv(t, 2, 1, 0, 0)
	e.TimeUnits = "fortnights"
	if _, err := e.DiffusionCoefficientSI(0); err == nil {
		t.Error("unknown time units should cause an error")
	}
	e.TimeUnits = "s"
	e.Mesh.Units = "furlongs"
	if _, err := e.DecayRateSI(0); err == nil {
		t.Error("unknown spatial units should cause an error")
	}
	if _, err := e.DiffusionLength(0); err == nil {
		t.Error("unknown spatial units should cause an error")
	}
}
