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
	"bytes"
	"testing"
)

func TestPlotSlice(t *testing.T) {
	e := newTestEnv(t, 4, 1, 0, 0)
	for n := 0; n < e.Mesh.Len(); n++ {
		e.Density.Set(n, 0, float64(n))
	}
	buf := new(bytes.Buffer)
	if err := e.PlotSlice(buf, 0, 1); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG image")
	}

	// Uniform layers are plotted too.
	e.Density.Fill(3)
	buf.Reset()
	if err := e.PlotSlice(buf, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.PlotSlice(buf, 0, 4); err == nil {
		t.Error("out of range layer should cause an error")
	}
	if err := e.PlotSlice(buf, 1, 0); err == nil {
		t.Error("out of range substrate should cause an error")
	}
}

func TestPlotSliceThinMesh(t *testing.T) {
	for _, bounds := range [][6]float64{
		{0, 0, 0, 10, 10, 10},
		{0, 0, 0, 10, 40, 10},
		{0, 0, 0, 40, 10, 10},
	} {
		e := &Microenvironment{
			InitFuncs: []DomainManipulator{
				UniformMesh(bounds, 10, "microns"),
				AddSubstrates(Substrate{Name: "oxygen", DiffusionCoefficient: 1, InitialCondition: 2}),
				InitialDensities(),
				SetTimestep(0.01),
			},
		}
		if err := e.Init(); err != nil {
			t.Fatal(err)
		}
		e.Density.Set(0, 0, 5)
		buf := new(bytes.Buffer)
		if err := e.PlotSlice(buf, 0, 0); err != nil {
			t.Fatalf("%v: %v", bounds, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
			t.Errorf("%v: output is not a PNG image", bounds)
		}
	}
}

func TestLayerGridExtrapolates(t *testing.T) {
	m, err := NewUniformMesh([6]float64{-5, 0, 0, 5, 40, 10}, 10, "microns")
	if err != nil {
		t.Fatal(err)
	}
	g := layerGrid{m: m, values: make([]float64, m.Nx*m.Ny)}
	if x := g.X(1); different(x, 10, 1e-12) {
		t.Errorf("x: have %g, want 10", x)
	}
	if y := g.Y(4); different(y, 45, 1e-12) {
		t.Errorf("y: have %g, want 45", y)
	}
	if y := g.Y(0); y != m.YCoordinates[0] {
		t.Errorf("y: have %g, want %g", y, m.YCoordinates[0])
	}
}
