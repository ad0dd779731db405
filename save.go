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
	"encoding/gob"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// checkpoint is the saved state of a Microenvironment.
type checkpoint struct {
	Name, TimeUnits string
	Mesh            *CartesianMesh
	Substrates      []Substrate
	Densities       []float64
	Time            float64
	Iteration       int
	Dt              float64
}

// Save returns a function that saves the mesh, substrates, densities and
// time of the simulation to w.
func Save(w io.Writer) DomainManipulator {
	return func(e *Microenvironment) error {
		c := checkpoint{
			Name:       e.Name,
			TimeUnits:  e.TimeUnits,
			Mesh:       e.Mesh,
			Substrates: e.substrates,
			Densities:  mat.DenseCopyOf(e.Density.Matrix()).RawMatrix().Data,
			Time:       e.Time,
			Iteration:  e.Iteration,
			Dt:         e.Dt,
		}
		if err := gob.NewEncoder(w).Encode(c); err != nil {
			return fmt.Errorf("biofvm.Microenvironment.Save: %v", err)
		}
		return nil
	}
}

// Load returns a function that restores a simulation previously saved
// with Save. Any existing state is replaced.
func Load(r io.Reader) DomainManipulator {
	return func(e *Microenvironment) error {
		var c checkpoint
		if err := gob.NewDecoder(r).Decode(&c); err != nil {
			return fmt.Errorf("biofvm.Microenvironment.Load: %v", err)
		}
		if c.Mesh == nil || len(c.Substrates) == 0 || len(c.Densities) != c.Mesh.Len()*len(c.Substrates) {
			return fmt.Errorf("biofvm.Microenvironment.Load: inconsistent checkpoint")
		}
		e.Name, e.TimeUnits = c.Name, c.TimeUnits
		e.Mesh = c.Mesh
		e.substrates = c.Substrates
		e.Density = &DensityField{m: mat.NewDense(c.Mesh.Len(), len(c.Substrates), c.Densities)}
		e.Time, e.Iteration, e.Dt = c.Time, c.Iteration, c.Dt
		e.invalidate()
		return nil
	}
}
