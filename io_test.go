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
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom/encoding/shp"
)

// newOutputTestEnv creates a 3×3×2 voxel domain where the oxygen
// concentration of voxel n is n.
func newOutputTestEnv(t *testing.T) *Microenvironment {
	t.Helper()
	e := &Microenvironment{
		InitFuncs: []DomainManipulator{
			UniformMesh([6]float64{0, 0, 0, 30, 30, 20}, 10, "microns"),
			AddSubstrates(Substrate{Name: "oxygen", Units: "mmHg", DiffusionCoefficient: 1e5, DecayRate: 0.1}),
			InitialDensities(),
		},
	}
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < e.Mesh.Len(); n++ {
		e.Density.Set(n, 0, float64(n))
	}
	return e
}

func TestResults(t *testing.T) {
	e := newOutputTestEnv(t)
	o, err := NewOutputter("", false, map[string]string{
		"O2":     "oxygen",
		"O2Mass": "sum(oxygen) * Volume",
		"O2Mean": "mean(oxygen)",
		"Xpos":   "X",
		"LogO2":  "log(oxygen + 1)",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.CheckOutputVars()(e); err != nil {
		t.Fatal(err)
	}
	r, err := e.Results(o)
	if err != nil {
		t.Fatal(err)
	}
	// Only the bottom layer is included.
	for _, v := range r {
		if len(v) != 9 {
			t.Fatalf("have %d output voxels, want 9", len(v))
		}
	}
	for i := 0; i < 9; i++ {
		if r["O2"][i] != float64(i) {
			t.Errorf("O2[%d] = %g", i, r["O2"][i])
		}
		if different(r["O2Mass"][i], 36*1000, 1e-12) {
			t.Errorf("O2Mass[%d] = %g", i, r["O2Mass"][i])
		}
		if different(r["O2Mean"][i], 4, 1e-12) {
			t.Errorf("O2Mean[%d] = %g", i, r["O2Mean"][i])
		}
		if r["Xpos"][i] != e.Mesh.Voxel(i).Center[0] {
			t.Errorf("Xpos[%d] = %g", i, r["Xpos"][i])
		}
		if different(r["LogO2"][i], math.Log(float64(i)+1), 1e-12) {
			t.Errorf("LogO2[%d] = %g", i, r["LogO2"][i])
		}
	}

	all, err := NewOutputter("", true, map[string]string{"O2": "oxygen"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err = e.Results(all)
	if err != nil {
		t.Fatal(err)
	}
	if len(r["O2"]) != 18 || r["O2"][17] != 17 {
		t.Errorf("all layers: %v", r["O2"])
	}
}

func TestOutputterErrors(t *testing.T) {
	e := newOutputTestEnv(t)
	for _, test := range []struct {
		name string
		vars map[string]string
	}{
		{"undefined variable", map[string]string{"G": "glucose"}},
		{"long name", map[string]string{"OxygenConc1": "oxygen"}},
		{"bad character", map[string]string{"O2-conc": "oxygen"}},
		{"leading digit", map[string]string{"2O": "oxygen"}},
	} {
		t.Run(test.name, func(t *testing.T) {
			o, err := NewOutputter("", false, test.vars, nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := o.CheckOutputVars()(e); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if _, err := NewOutputter("", false, nil, nil); err == nil {
		t.Error("no output variables should cause an error")
	}
	if _, err := NewOutputter("", false, map[string]string{"A": "oxygen +"}, nil); err == nil {
		t.Error("invalid expression should cause an error")
	}
}

func TestOutput(t *testing.T) {
	dir, err := ioutil.TempDir("", "biofvm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fileName := filepath.Join(dir, "output.shp")

	e := newOutputTestEnv(t)
	o, err := NewOutputter(fileName, false, map[string]string{
		"O2":      "oxygen",
		"O2Total": "sum(oxygen)",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	e.CleanupFuncs = []DomainManipulator{o.CheckOutputVars(), o.Output()}
	if err := e.Cleanup(); err != nil {
		t.Fatal(err)
	}

	type outData struct {
		O2      float64
		O2Total float64
	}
	dec, err := shp.NewDecoder(fileName)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	var recs []outData
	for {
		var rec outData
		if more := dec.DecodeRow(&rec); !more {
			break
		}
		recs = append(recs, rec)
	}
	if err := dec.Error(); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 9 {
		t.Fatalf("have %d records, want 9", len(recs))
	}
	for i, rec := range recs {
		if different(rec.O2, float64(i), 1e-8) {
			t.Errorf("record %d: O2=%g", i, rec.O2)
		}
		if different(rec.O2Total, 36, 1e-8) {
			t.Errorf("record %d: O2Total=%g", i, rec.O2Total)
		}
	}
}
