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

	"gonum.org/v1/gonum/mat"
)

// DensityField holds substrate concentrations for every voxel. Row n of
// the underlying matrix is the substrate vector of voxel n.
type DensityField struct {
	m *mat.Dense
}

// NewDensityField allocates a zero-valued field for nVoxels voxels and
// nSubstrates substrates.
func NewDensityField(nVoxels, nSubstrates int) (*DensityField, error) {
	if nVoxels < 1 || nSubstrates < 1 {
		return nil, configErrorf("density field must have at least one voxel and "+
			"one substrate; got %d voxels and %d substrates", nVoxels, nSubstrates)
	}
	return &DensityField{m: mat.NewDense(nVoxels, nSubstrates, nil)}, nil
}

// Len returns the number of voxels.
func (f *DensityField) Len() int {
	r, _ := f.m.Dims()
	return r
}

// NumSubstrates returns the number of substrates.
func (f *DensityField) NumSubstrates() int {
	_, c := f.m.Dims()
	return c
}

// Voxel returns the substrate vector of voxel n. The returned slice
// shares storage with the field, so writes to it change the field.
func (f *DensityField) Voxel(n int) []float64 {
	row := f.m.RawRowView(n)
	return row[:len(row):len(row)]
}

// Get returns the concentration of substrate s in voxel n.
func (f *DensityField) Get(n, s int) float64 { return f.m.At(n, s) }

// Set sets the concentration of substrate s in voxel n.
func (f *DensityField) Set(n, s int, v float64) { f.m.Set(n, s, v) }

// Fill sets every concentration to v.
func (f *DensityField) Fill(v float64) {
	data, _ := f.raw()
	for i := range data {
		data[i] = v
	}
}

// FillSubstrate sets the concentration of substrate s to v in every voxel.
func (f *DensityField) FillSubstrate(s int, v float64) {
	if s < 0 || s >= f.NumSubstrates() {
		panic(fmt.Errorf("biofvm: substrate index %d out of range [0, %d)", s, f.NumSubstrates()))
	}
	data, stride := f.raw()
	for i := s; i < len(data); i += stride {
		data[i] = v
	}
}

// Substrate returns a copy of the concentrations of substrate s in
// voxel order.
func (f *DensityField) Substrate(s int) []float64 {
	return mat.Col(nil, s, f.m)
}

// Matrix returns a read-only view of the field as an N×M matrix.
func (f *DensityField) Matrix() mat.Matrix { return f.m }

// Clone returns a deep copy of the field.
func (f *DensityField) Clone() *DensityField {
	return &DensityField{m: mat.DenseCopyOf(f.m)}
}

// raw returns the backing array of the field and the distance between
// the starts of consecutive voxel vectors.
func (f *DensityField) raw() ([]float64, int) {
	r := f.m.RawMatrix()
	return r.Data, r.Stride
}
