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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// WriteNetCDF writes a snapshot of the density field and mesh geometry
// to w in NetCDF format. Each substrate is stored as a (z, y, x) variable.
func (e *Microenvironment) WriteNetCDF(w *os.File) error {
	m := e.Mesh
	h := cdf.NewHeader([]string{"x", "y", "z"}, []int{m.Nx, m.Ny, m.Nz})
	h.AddAttribute("", "comment", "biofvm substrate density snapshot")
	h.AddAttribute("", "bounding_box", m.BoundingBox[:])
	h.AddAttribute("", "spacing", []float64{m.Dx, m.Dy, m.Dz})
	addText(h, "", "spatial_units", m.Units)
	h.AddAttribute("", "time", []float64{e.Time})
	addText(h, "", "time_units", e.TimeUnits)
	h.AddAttribute("", "iteration", []int32{int32(e.Iteration)})

	for _, s := range e.substrates {
		h.AddVariable(s.Name, []string{"z", "y", "x"}, []float64{0})
		addText(h, s.Name, "units", s.Units)
		h.AddAttribute(s.Name, "description", fmt.Sprintf("%s concentration", s.Name))
		h.AddAttribute(s.Name, "diffusion_coefficient", []float64{s.DiffusionCoefficient})
		h.AddAttribute(s.Name, "decay_rate", []float64{s.DecayRate})
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("biofvm: creating netcdf file: %v", err)
	}
	for i, s := range e.substrates {
		wr := f.Writer(s.Name, []int{0, 0, 0}, []int{m.Nz, m.Ny, m.Nx})
		if _, err = wr.Write(e.Density.Substrate(i)); err != nil {
			return fmt.Errorf("biofvm: writing variable %s to netcdf file: %v", s.Name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// addText adds a text attribute, skipping empty values.
func addText(h *cdf.Header, v, a, val string) {
	if val != "" {
		h.AddAttribute(v, a, val)
	}
}

// NetCDF returns a function that writes a snapshot of the density field
// to the file at path.
func NetCDF(path string) DomainManipulator {
	return func(e *Microenvironment) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("biofvm: creating netcdf file: %v", err)
		}
		if err = e.WriteNetCDF(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

// ReadNetCDF reads the substrate variables of a snapshot created by
// WriteNetCDF. Arrays are indexed as (k, j, i).
func ReadNetCDF(rw cdf.ReaderWriterAt) (map[string]*sparse.DenseArray, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("biofvm: opening netcdf file: %v", err)
	}
	o := make(map[string]*sparse.DenseArray)
	for _, v := range f.Header.Variables() {
		dims := f.Header.Lengths(v)
		d := sparse.ZerosDense(dims...)
		if _, err = f.Reader(v, nil, nil).Read(d.Elements); err != nil {
			return nil, fmt.Errorf("biofvm: reading variable %s from netcdf file: %v", v, err)
		}
		o[v] = d
	}
	return o, nil
}

// ReadDensities returns a function that sets the density of every
// registered substrate from a snapshot created by WriteNetCDF.
func ReadDensities(rw cdf.ReaderWriterAt) DomainManipulator {
	return func(e *Microenvironment) error {
		data, err := ReadNetCDF(rw)
		if err != nil {
			return err
		}
		if err = e.allocate(); err != nil {
			return err
		}
		for s, name := range e.SubstrateNames() {
			d, ok := data[name]
			if !ok {
				return fmt.Errorf("biofvm: netcdf snapshot has no variable %s", name)
			}
			if len(d.Shape) != 3 || d.Shape[0] != e.Mesh.Nz || d.Shape[1] != e.Mesh.Ny || d.Shape[2] != e.Mesh.Nx {
				return configErrorf("netcdf variable %s has shape %v but the mesh is %dx%dx%d",
					name, d.Shape, e.Mesh.Nx, e.Mesh.Ny, e.Mesh.Nz)
			}
			for n := 0; n < e.Mesh.Len(); n++ {
				i, j, k := e.Mesh.Coords(n)
				e.Density.Set(n, s, d.Get(k, j, i))
			}
		}
		return nil
	}
}
