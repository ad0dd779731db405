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

// Package spheroid contains a bulk source and sink model of a tumor
// spheroid in a well-perfused domain: substrates are supplied in a strip
// along the domain boundary and taken up inside a sphere at the domain
// center.
package spheroid

import (
	"fmt"
	"math"

	"github.com/spatialmodel/biofvm"
)

// Model fulfils the github.com/spatialmodel/biofvm.RateProvider
// interface.
type Model struct {
	// StripWidth is the distance from the domain boundary within which
	// voxels are supplied [spatial units].
	StripWidth float64

	// SupplyRate and SupplyTarget are the supply rate [1/time] and the
	// saturation density the strip is supplied towards.
	SupplyRate, SupplyTarget float64

	// Radius is the spheroid radius [spatial units].
	Radius float64

	// UptakeRate is the uptake rate inside the spheroid [1/time].
	UptakeRate float64

	// Center is the spheroid center. If nil, the center of the domain
	// bounding box is used.
	Center *[3]float64
}

// Default returns the parameters of the reference workload.
func Default() Model {
	return Model{
		StripWidth:   40,
		SupplyRate:   10,
		SupplyTarget: 1,
		Radius:       100,
		UptakeRate:   10,
	}
}

// Validate checks that all parameters are finite and non-negative.
func (m Model) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"StripWidth", m.StripWidth},
		{"SupplyRate", m.SupplyRate},
		{"SupplyTarget", m.SupplyTarget},
		{"Radius", m.Radius},
		{"UptakeRate", m.UptakeRate},
	} {
		if !(v.val >= 0) || math.IsInf(v.val, 0) {
			return fmt.Errorf("spheroid: %s=%g but should be finite and >=0", v.name, v.val)
		}
	}
	return nil
}

// InStrip reports whether voxel is within StripWidth of any face of the
// domain bounding box.
func (m Model) InStrip(e *biofvm.Microenvironment, voxel int) bool {
	c := e.Mesh.Voxels[voxel].Center
	bb := e.Mesh.BoundingBox
	for a := 0; a < 3; a++ {
		if math.Abs(bb[a+3]-c[a]) < m.StripWidth || math.Abs(c[a]-bb[a]) < m.StripWidth {
			return true
		}
	}
	return false
}

// InSpheroid reports whether the center of voxel is inside the spheroid.
func (m Model) InSpheroid(e *biofvm.Microenvironment, voxel int) bool {
	center := m.center(e)
	c := e.Mesh.Voxels[voxel].Center
	var d2 float64
	for a := range c {
		d2 += (c[a] - center[a]) * (c[a] - center[a])
	}
	return math.Sqrt(d2) < m.Radius
}

func (m Model) center(e *biofvm.Microenvironment) [3]float64 {
	if m.Center != nil {
		return *m.Center
	}
	bb := e.Mesh.BoundingBox
	return [3]float64{(bb[0] + bb[3]) / 2, (bb[1] + bb[4]) / 2, (bb[2] + bb[5]) / 2}
}

func constant(e *biofvm.Microenvironment, dst []float64, v float64) []float64 {
	dst = dst[:0]
	for i := 0; i < e.NumSubstrates(); i++ {
		dst = append(dst, v)
	}
	return dst
}

// SupplyRates returns SupplyRate in the boundary strip and zero elsewhere.
func (m Model) SupplyRates(e *biofvm.Microenvironment, voxel int, dst []float64) []float64 {
	if m.InStrip(e, voxel) {
		return constant(e, dst, m.SupplyRate)
	}
	return constant(e, dst, 0)
}

// SupplyTargetDensities returns SupplyTarget everywhere.
func (m Model) SupplyTargetDensities(e *biofvm.Microenvironment, voxel int, dst []float64) []float64 {
	return constant(e, dst, m.SupplyTarget)
}

// UptakeRates returns UptakeRate inside the spheroid and zero elsewhere.
func (m Model) UptakeRates(e *biofvm.Microenvironment, voxel int, dst []float64) []float64 {
	if m.InSpheroid(e, voxel) {
		return constant(e, dst, m.UptakeRate)
	}
	return constant(e, dst, 0)
}
