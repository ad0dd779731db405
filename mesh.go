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

	"github.com/ctessum/geom"
)

// Voxel holds the geometry of a single mesh element.
type Voxel struct {
	Index   int        // linear index
	I, J, K int        // axis indices
	Center  [3]float64 // center coordinates [spatial units]
	Volume  float64    // [spatial units³]
}

// CartesianMesh is a regular three-dimensional grid of rectangular voxels.
// Voxel n has axis indices (i, j, k) with n = i + Nx*(j + Ny*k).
type CartesianMesh struct {
	Units string

	// BoundingBox is {xmin, ymin, zmin, xmax, ymax, zmax}.
	BoundingBox [6]float64

	Dx, Dy, Dz float64 // voxel edge lengths
	Nx, Ny, Nz int     // number of voxels along each axis

	// Voxel center coordinates along each axis.
	XCoordinates, YCoordinates, ZCoordinates []float64

	Voxels []Voxel
}

// NewUniformMesh creates a mesh with the same target resolution along every
// axis.
func NewUniformMesh(bounds [6]float64, resolution float64, units string) (*CartesianMesh, error) {
	return NewCartesianMesh(bounds, resolution, resolution, resolution, units)
}

// NewCartesianMesh creates a mesh covering bounds with voxels of
// approximately dx×dy×dz. The number of voxels along each axis is
// ceil(span/d), and the spacing is then adjusted so that the voxels
// exactly fill the bounding box.
func NewCartesianMesh(bounds [6]float64, dx, dy, dz float64, units string) (*CartesianMesh, error) {
	m := &CartesianMesh{
		Units:       units,
		BoundingBox: bounds,
	}
	res := [3]float64{dx, dy, dz}
	n := [3]int{}
	d := [3]float64{}
	for a, name := range []string{"x", "y", "z"} {
		span := bounds[a+3] - bounds[a]
		if !(span > 0) || math.IsInf(span, 0) {
			return nil, configErrorf("%s span of bounding box %v is %g but should be >0", name, bounds, span)
		}
		if !(res[a] > 0) || math.IsInf(res[a], 0) {
			return nil, configErrorf("%s resolution is %g but should be >0", name, res[a])
		}
		var err error
		n[a], d[a], err = axisNodes(span, res[a])
		if err != nil {
			return nil, configErrorf("%s axis: %v", name, err)
		}
	}
	if total := float64(n[0]) * float64(n[1]) * float64(n[2]); total > math.MaxInt32 {
		return nil, configErrorf("mesh would have %g voxels; the limit is %d", total, math.MaxInt32)
	}
	m.Nx, m.Ny, m.Nz = n[0], n[1], n[2]
	m.Dx, m.Dy, m.Dz = d[0], d[1], d[2]
	m.XCoordinates = centers(bounds[0], m.Dx, m.Nx)
	m.YCoordinates = centers(bounds[1], m.Dy, m.Ny)
	m.ZCoordinates = centers(bounds[2], m.Dz, m.Nz)

	vol := m.Dx * m.Dy * m.Dz
	m.Voxels = make([]Voxel, m.Nx*m.Ny*m.Nz)
	for k := 0; k < m.Nz; k++ {
		for j := 0; j < m.Ny; j++ {
			for i := 0; i < m.Nx; i++ {
				idx := m.Index(i, j, k)
				m.Voxels[idx] = Voxel{
					Index:  idx,
					I:      i,
					J:      j,
					K:      k,
					Center: [3]float64{m.XCoordinates[i], m.YCoordinates[j], m.ZCoordinates[k]},
					Volume: vol,
				}
			}
		}
	}
	return m, nil
}

// axisNodes returns the number of voxels along an axis and the resulting
// spacing. The small tolerance keeps exact divisions such as 1000/10 from
// rounding up to an extra voxel.
func axisNodes(span, d float64) (int, float64, error) {
	const tolerance = 1.e-9
	nf := math.Ceil(span/d - tolerance)
	if nf > math.MaxInt32 {
		return 0, 0, fmt.Errorf("span %g at resolution %g needs %g voxels; the limit is %d",
			span, d, nf, math.MaxInt32)
	}
	n := int(nf)
	if n < 1 {
		n = 1
	}
	return n, span / float64(n), nil
}

func centers(start, d float64, n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = start + (float64(i)+0.5)*d
	}
	return c
}

// Len returns the number of voxels in the mesh.
func (m *CartesianMesh) Len() int { return len(m.Voxels) }

// Dims returns the number of voxels along each axis.
func (m *CartesianMesh) Dims() [3]int { return [3]int{m.Nx, m.Ny, m.Nz} }

// Spacing returns the voxel edge length along each axis.
func (m *CartesianMesh) Spacing() [3]float64 { return [3]float64{m.Dx, m.Dy, m.Dz} }

// Voxel returns the geometry of voxel n.
func (m *CartesianMesh) Voxel(n int) Voxel { return m.Voxels[n] }

// Index returns the linear index of the voxel with axis indices (i, j, k).
func (m *CartesianMesh) Index(i, j, k int) int {
	if i < 0 || i >= m.Nx || j < 0 || j >= m.Ny || k < 0 || k >= m.Nz {
		panic(fmt.Errorf("biofvm: voxel (%d, %d, %d) out of range for %dx%dx%d mesh",
			i, j, k, m.Nx, m.Ny, m.Nz))
	}
	return i + m.Nx*(j+m.Ny*k)
}

// Coords returns the axis indices of voxel n.
func (m *CartesianMesh) Coords(n int) (i, j, k int) {
	if n < 0 || n >= m.Len() {
		panic(fmt.Errorf("biofvm: voxel index %d out of range [0, %d)", n, m.Len()))
	}
	i = n % m.Nx
	j = (n / m.Nx) % m.Ny
	k = n / (m.Nx * m.Ny)
	return
}

// NearestVoxelIndex returns the index of the voxel containing p. Points
// outside of the mesh are mapped to the closest boundary voxel.
func (m *CartesianMesh) NearestVoxelIndex(p [3]float64) int {
	i := nearest(p[0], m.BoundingBox[0], m.Dx, m.Nx)
	j := nearest(p[1], m.BoundingBox[1], m.Dy, m.Ny)
	k := nearest(p[2], m.BoundingBox[2], m.Dz, m.Nz)
	return m.Index(i, j, k)
}

func nearest(x, start, d float64, n int) int {
	i := int(math.Floor((x - start) / d))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// TotalVolume returns the combined volume of all voxels.
func (m *CartesianMesh) TotalVolume() float64 {
	return float64(m.Len()) * m.Dx * m.Dy * m.Dz
}

// Footprint returns the horizontal (x-y) extent of the mesh.
func (m *CartesianMesh) Footprint() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: m.BoundingBox[0], Y: m.BoundingBox[1]},
		Max: geom.Point{X: m.BoundingBox[3], Y: m.BoundingBox[4]},
	}
}

// VoxelPolygon returns the horizontal footprint of voxel n as a closed
// counter-clockwise ring.
func (m *CartesianMesh) VoxelPolygon(n int) geom.Polygon {
	v := m.Voxels[n]
	x0, y0 := v.Center[0]-m.Dx/2, v.Center[1]-m.Dy/2
	x1, y1 := v.Center[0]+m.Dx/2, v.Center[1]+m.Dy/2
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}
